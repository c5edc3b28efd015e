package main

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/platform/authtoken"
)

const manifestYAML = `
name: Tiny Set
size: 3
seed: 11
canvas: {width: 8, height: 8}
categories:
  - name: Background
    traits:
      - {name: Plain, file: layer.png, rarity: 1}
  - name: Eyes
    order: 1
    traits:
      - name: Dots
        file: layer.png
        rarity: 1
        rules:
          - {type: appears_at_least, value: 1}
`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "layer.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write layer: %v", err)
	}
	path := filepath.Join(dir, "collection.yaml")
	if err := os.WriteFile(path, []byte(manifestYAML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-mode", "test"}, args...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestRunWritesArchive(t *testing.T) {
	manifestPath := writeManifest(t)
	out := filepath.Join(t.TempDir(), "set.zip")

	execute(t, "run", "-m", manifestPath, "-o", out, "--size", "2")

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"images/1.png", "images/2.png", "metadata/1.json", "metadata/2.json"} {
		if !names[want] {
			t.Fatalf("archive missing %s (have %v)", want, names)
		}
	}
	if names["images/3.png"] {
		t.Fatalf("--size should override the manifest size")
	}
}

func TestRunDefaultsArchiveNextToManifest(t *testing.T) {
	manifestPath := writeManifest(t)

	execute(t, "run", "-m", manifestPath)

	if _, err := os.Stat(filepath.Join(filepath.Dir(manifestPath), "Tiny_Set.zip")); err != nil {
		t.Fatalf("expected default archive: %v", err)
	}
}

func TestRunRejectsOversizedCollection(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-mode", "test", "run", "-m", writeManifest(t), "--size", "100000"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected size error")
	}
}

func TestValidatePrintsCategories(t *testing.T) {
	out := execute(t, "validate", "-m", writeManifest(t))
	if !strings.Contains(out, "Tiny Set: size=3 canvas=8x8") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "Eyes: 1 traits, 1 rules") {
		t.Fatalf("unexpected category line: %q", out)
	}
	if !strings.Contains(out, "Dots: Appears At Least 1") {
		t.Fatalf("missing rule line: %q", out)
	}
}

func TestTokenIssuesVerifiableToken(t *testing.T) {
	userID := uuid.New()
	out := execute(t, "token", "--secret", "s3cret", "--user", userID.String())

	got, err := authtoken.NewVerifier("s3cret").Parse(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if got != userID {
		t.Fatalf("subject: got=%s want=%s", got, userID)
	}
}
