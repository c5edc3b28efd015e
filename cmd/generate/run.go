package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/traitforge-backend/internal/app"
	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/engine"
	"github.com/yungbote/traitforge-backend/internal/export"
	"github.com/yungbote/traitforge-backend/internal/manifest"
	"github.com/yungbote/traitforge-backend/internal/platform/blob"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type runOptions struct {
	manifestPath string
	out          string
	toBlob       bool
	size         int
	seed         uint64
	preview      bool
	columns      int
	thumb        int
	concurrency  int
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a collection and write its archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := root.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runGenerate(ctx, log, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.manifestPath, "manifest", "m", "collection.yaml", "path to the collection manifest")
	f.StringVarP(&opts.out, "out", "o", "", "archive path (default <name>.zip next to the manifest)")
	f.BoolVar(&opts.toBlob, "blob", false, "upload the archive to the configured blob store instead of disk")
	f.IntVar(&opts.size, "size", 0, "collection size (overrides the manifest)")
	f.Uint64Var(&opts.seed, "seed", 0, "sampler seed (overrides the manifest; 0 picks one)")
	f.BoolVar(&opts.preview, "preview", false, "add a preview.png contact sheet")
	f.IntVar(&opts.columns, "preview-columns", 0, "contact sheet columns")
	f.IntVar(&opts.thumb, "preview-thumb", 0, "contact sheet tile size in px")
	f.IntVar(&opts.concurrency, "decode-concurrency", 4, "parallel image decodes")
	return cmd
}

func runGenerate(ctx context.Context, log *logger.Logger, opts *runOptions) error {
	m, err := manifest.Load(opts.manifestPath)
	if err != nil {
		return err
	}
	cats, err := m.Resolve()
	if err != nil {
		return err
	}

	size := m.Size
	if opts.size > 0 {
		size = opts.size
	}
	if size <= 0 || size > collection.MaxCollectionSize {
		return fmt.Errorf("collection size must be between 1 and %d, got %d", collection.MaxCollectionSize, size)
	}
	seed := m.Seed
	if opts.seed != 0 {
		seed = opts.seed
	}

	gen := engine.NewGenerator(engine.GeneratorDeps{Log: log})
	cfg := engine.RunConfig{
		Size:              size,
		CanvasWidth:       m.Canvas.Width,
		CanvasHeight:      m.Canvas.Height,
		Seed:              seed,
		DecodeConcurrency: opts.concurrency,
	}

	started := time.Now()
	res, err := gen.Run(ctx, cats, cfg, func(index int, _ collection.GeneratedItem) {
		if (index+1)%100 == 0 || index+1 == size {
			log.Info("progress", "completed", index+1, "size", size)
		}
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	log.Info("generation finished",
		"items", len(res.Items),
		"seed", strconv.FormatUint(res.Seed, 10),
		"elapsed", time.Since(started).String(),
	)
	for _, s := range res.Shortfalls {
		log.Warn("quota not reached", "category", s.Category, "trait", s.Trait, "required", s.Required, "actual", s.Actual)
	}

	var buf bytes.Buffer
	archiveOpts := export.ArchiveOptions{Preview: opts.preview, PreviewColumns: opts.columns, PreviewThumb: opts.thumb}
	if err := export.WriteArchive(ctx, &buf, m.Name, res.Items, archiveOpts); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	if opts.toBlob {
		return uploadArchive(ctx, log, m.Name, &buf)
	}

	out := opts.out
	if out == "" {
		out = filepath.Join(filepath.Dir(opts.manifestPath), export.ArchiveName(m.Name))
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Info("archive written", "path", out, "bytes", buf.Len())
	return nil
}

func uploadArchive(ctx context.Context, log *logger.Logger, name string, buf *bytes.Buffer) error {
	cfg := app.LoadConfig(log)
	store, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	key := fmt.Sprintf("exports/cli/%d-%s", time.Now().UnixNano(), export.ArchiveName(name))
	info, err := store.Put(ctx, key, buf, blob.PutOptions{
		ContentType: "application/zip",
		Metadata:    map[string]string{"collection": name},
	})
	if err != nil {
		return fmt.Errorf("upload archive: %w", err)
	}
	log.Info("archive uploaded", "driver", string(store.Driver()), "key", info.Key, "bytes", info.Size, "url", info.URL)
	return nil
}
