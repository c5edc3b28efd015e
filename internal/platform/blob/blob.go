// Package blob stores exported archives behind a small S3-like interface.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Driver identifies a concrete blob storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default, dev)
	DriverMemory     Driver = "memory" // in-memory (tests)
	DriverGCS        Driver = "gcs"    // Google Cloud Storage
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
)

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

type SignedURLOptions struct {
	Method string        // only GET is supported
	Expiry time.Duration // default 15m
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is implemented by every driver. Put is create-only: writing an
// existing key fails with ErrExists.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete reports false, nil when the key did not exist.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns blobs under prefix ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

var (
	ErrNotFound    = errors.New("blob: not found")
	ErrExists      = errors.New("blob: already exists")
	ErrUnsupported = errors.New("blob: unsupported operation")
)

const defaultPresignExpiry = 15 * time.Minute

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func presignMethodOK(method string) bool {
	return method == "" || strings.EqualFold(method, "GET")
}
