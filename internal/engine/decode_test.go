package engine

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

func TestParseDataURL(t *testing.T) {
	mime, raw, err := ParseDataURL("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)
	require.Equal(t, "hello", string(raw))

	mime, raw, err = ParseDataURL("data:,a%20b")
	require.NoError(t, err)
	require.Equal(t, "text/plain", mime)
	require.Equal(t, "a b", string(raw))

	_, _, err = ParseDataURL("https://example.com/x.png")
	require.ErrorIs(t, err, ErrBadPayload)
	_, _, err = ParseDataURL("data:image/png;base64")
	require.ErrorIs(t, err, ErrBadPayload)
}

func TestDataURLDecoderRoundTrip(t *testing.T) {
	img, err := DataURLDecoder{}.Decode(context.Background(), solidPNG(t, 3, 2, red))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

func TestDataURLDecoderRejectsGarbage(t *testing.T) {
	_, err := DataURLDecoder{}.Decode(context.Background(), "data:image/png;base64,bm90IGFuIGltYWdl")
	require.Error(t, err)
}

type countingDecoder struct {
	calls atomic.Int32
	inner ImageDecoder
}

func (d *countingDecoder) Decode(ctx context.Context, payload string) (image.Image, error) {
	d.calls.Add(1)
	return d.inner.Decode(ctx, payload)
}

func TestImageCacheWarmDecodesOnce(t *testing.T) {
	good := variant("red", 1)
	good.Image = solidPNG(t, 2, 2, red)
	bad := variant("broken", 1)
	bad.Image = "data:image/png;base64,AAAA"
	reg := NewRegistry([]collection.TraitCategory{category("bg", 0, good, bad)})

	dec := &countingDecoder{inner: DataURLDecoder{}}
	cache := NewImageCache(dec, 4)
	require.NoError(t, cache.Warm(context.Background(), reg))
	require.EqualValues(t, 2, dec.calls.Load())

	v, _ := reg.Variant("red")
	_, err := cache.Decode(context.Background(), v)
	require.NoError(t, err)
	v, _ = reg.Variant("broken")
	_, err = cache.Decode(context.Background(), v)
	require.Error(t, err)
	require.EqualValues(t, 2, dec.calls.Load())
}

func TestImageCacheWarmCancelled(t *testing.T) {
	reg := NewRegistry([]collection.TraitCategory{category("bg", 0, variant("red", 1))})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewImageCache(nil, 1).Warm(ctx, reg)
	require.True(t, errors.Is(err, context.Canceled))
}
