package blob

import (
	"context"
	"fmt"
	"strings"
)

// Config selects and configures one driver.
type Config struct {
	Driver    string
	FSRoot    string
	FSBaseURL string
	GCS       GCSConfig
	S3        S3Config
}

// Open builds the Store named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(cfg.Driver)))
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot, cfg.FSBaseURL)
	case DriverMemory:
		return NewMemory(), nil
	case DriverGCS:
		return NewGCS(ctx, cfg.GCS)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
