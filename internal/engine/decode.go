package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

var ErrBadPayload = errors.New("unsupported image payload")

// ImageDecoder turns an opaque trait payload into pixels.
type ImageDecoder interface {
	Decode(ctx context.Context, payload string) (image.Image, error)
}

// DataURLDecoder decodes "data:<mime>[;base64],<data>" payloads in any
// registered format (png, jpeg, gif, webp).
type DataURLDecoder struct{}

func (DataURLDecoder) Decode(ctx context.Context, payload string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, raw, err := ParseDataURL(payload)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// ParseDataURL splits a data URI into its media type and decoded bytes.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrBadPayload)
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrBadPayload)
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if mime == "" {
		mime = "text/plain"
	}
	if !isBase64 {
		decoded, err := url.PathUnescape(data)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		return mime, []byte(decoded), nil
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
	}
	return mime, raw, nil
}

func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ImageCache memoises decoded trait images for the duration of one run.
type ImageCache struct {
	decoder     ImageDecoder
	concurrency int

	mu     sync.RWMutex
	images map[string]image.Image
	failed map[string]error
}

func NewImageCache(decoder ImageDecoder, concurrency int) *ImageCache {
	if decoder == nil {
		decoder = DataURLDecoder{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &ImageCache{
		decoder:     decoder,
		concurrency: concurrency,
		images:      make(map[string]image.Image),
		failed:      make(map[string]error),
	}
}

// Warm decodes every variant of the registry up front. Decoding is independent
// per variant so it runs in parallel; drawing still happens in category order.
// Individual decode failures are remembered, not returned.
func (c *ImageCache) Warm(ctx context.Context, reg *Registry) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, cat := range reg.Categories() {
		for _, v := range Variants(cat) {
			v := v
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				_, _ = c.Decode(gctx, v)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (c *ImageCache) Decode(ctx context.Context, v *collection.TraitVariant) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.images[v.ID]
	failure, failedBefore := c.failed[v.ID]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}
	if failedBefore {
		return nil, failure
	}

	img, err := c.decoder.Decode(ctx, v.Image)
	if err == nil && img == nil {
		err = fmt.Errorf("%w: decoder returned no image", ErrBadPayload)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if ctx.Err() == nil {
			c.failed[v.ID] = err
		}
		return nil, err
	}
	c.images[v.ID] = img
	return img, nil
}
