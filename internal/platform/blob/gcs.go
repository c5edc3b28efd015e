package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	Bucket    string
	CDNDomain string
	// Credentials is either inline service-account JSON or a path to it.
	// Empty uses application default credentials.
	Credentials string
}

// GCS stores blobs in a single Google Cloud Storage bucket.
type GCS struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

func clientOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	opts := append(clientOptions(cfg.Credentials), option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: cfg.Bucket, cdnDomain: cfg.CDNDomain}, nil
}

func (g *GCS) Driver() Driver { return DriverGCS }

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = cloneMetadata(opts.Metadata)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return Info{}, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return Info{}, fmt.Errorf("%w: %s", ErrExists, key)
		}
		return Info{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return g.fromAttrs(w.Attrs()), nil
}

// readCloserWithCancel keeps the download context alive until the reader is closed.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (g *GCS) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	obj := g.client.Bucket(g.bucket).Object(key)
	attrs, err := obj.Attrs(ctx2)
	if err != nil {
		cancel()
		return Info{}, nil, g.mapErr(key, err)
	}
	rc, err := obj.NewReader(ctx2)
	if err != nil {
		cancel()
		return Info{}, nil, g.mapErr(key, err)
	}
	return g.fromAttrs(attrs), &readCloserWithCancel{ReadCloser: rc, cancel: cancel}, nil
}

func (g *GCS) Head(ctx context.Context, key string) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	attrs, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if err != nil {
		return Info{}, g.mapErr(key, err)
	}
	return g.fromAttrs(attrs), nil
}

func (g *GCS) Delete(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := g.client.Bucket(g.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, g.bucket, err)
	}
	return true, nil
}

func (g *GCS) List(ctx context.Context, prefix string) ([]Info, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var out []Info
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, g.fromAttrs(attrs))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (g *GCS) PresignURL(_ context.Context, key string, opts SignedURLOptions) (string, error) {
	if !presignMethodOK(opts.Method) {
		return "", ErrUnsupported
	}
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	u, err := g.client.Bucket(g.bucket).SignedURL(key, &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("sign url: %w", err)
	}
	return u, nil
}

func (g *GCS) publicURL(key string) string {
	if g.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", g.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key)
}

func (g *GCS) fromAttrs(attrs *storage.ObjectAttrs) Info {
	if attrs == nil {
		return Info{}
	}
	return Info{
		Key:          attrs.Name,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		ETag:         attrs.Etag,
		Metadata:     cloneMetadata(attrs.Metadata),
		LastModified: attrs.Updated,
		URL:          g.publicURL(attrs.Name),
	}
}

func (g *GCS) mapErr(key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}
