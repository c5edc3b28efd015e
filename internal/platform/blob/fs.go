package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Filesystem stores blobs under a local directory. Each blob gets a
// "<file>.meta" JSON sidecar holding its content type and metadata.
type Filesystem struct {
	root    string
	baseURL string
}

// NewFilesystem roots a store at dir, creating it if needed. baseURL, when
// set, is used to build download URLs (e.g. a static file server).
func NewFilesystem(root, baseURL string) (*Filesystem, error) {
	if root == "" {
		root = "./blobdata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Filesystem{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (f *Filesystem) Driver() Driver { return DriverFilesystem }

func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (f *Filesystem) pathFor(key string) (dataPath, metaPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(f.root, filepath.FromSlash(k))
	return dataPath, dataPath + ".meta", nil
}

type metaFile struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (f *Filesystem) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	dataPath, metaPath, err := f.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return Info{}, fmt.Errorf("%w: %s", ErrExists, key)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return Info{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return Info{}, err
	}
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return Info{}, err
	}

	mf := metaFile{
		ContentType: opts.ContentType,
		Metadata:    cloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(h.Sum(nil)),
		Size:        size,
		UpdatedAt:   time.Now().UTC(),
	}
	b, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return Info{}, err
	}
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		return Info{}, err
	}
	return f.info(key, mf), nil
}

func (f *Filesystem) Get(_ context.Context, key string) (Info, io.ReadCloser, error) {
	dataPath, metaPath, err := f.pathFor(key)
	if err != nil {
		return Info{}, nil, err
	}
	file, err := os.Open(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Info{}, nil, err
	}
	mf, err := readMeta(metaPath)
	if err != nil {
		_ = file.Close()
		return Info{}, nil, err
	}
	return f.info(key, mf), file, nil
}

func (f *Filesystem) Head(_ context.Context, key string) (Info, error) {
	_, metaPath, err := f.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	mf, err := readMeta(metaPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Info{}, err
	}
	return f.info(key, mf), nil
}

func (f *Filesystem) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := f.pathFor(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

func (f *Filesystem) List(_ context.Context, prefix string) ([]Info, error) {
	var infos []Info
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".meta") {
			return nil
		}
		rel, err := filepath.Rel(f.root, strings.TrimSuffix(path, ".meta"))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		mf, err := readMeta(path)
		if err != nil {
			return err
		}
		infos = append(infos, f.info(key, mf))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (f *Filesystem) PresignURL(_ context.Context, key string, opts SignedURLOptions) (string, error) {
	if !presignMethodOK(opts.Method) {
		return "", ErrUnsupported
	}
	if _, err := sanitizeKey(key); err != nil {
		return "", err
	}
	return f.url(key), nil
}

func (f *Filesystem) url(key string) string {
	if f.baseURL != "" {
		return f.baseURL + "/" + key
	}
	return (&url.URL{Scheme: "http", Host: "local.blob", Path: "/" + key}).String()
}

func (f *Filesystem) info(key string, mf metaFile) Info {
	return Info{
		Key:          key,
		Size:         mf.Size,
		ContentType:  mf.ContentType,
		ETag:         mf.ETag,
		Metadata:     cloneMetadata(mf.Metadata),
		LastModified: mf.UpdatedAt,
		URL:          f.url(key),
	}
}

func readMeta(path string) (metaFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return metaFile{}, err
	}
	var mf metaFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return metaFile{}, err
	}
	return mf, nil
}
