package engine

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

func TestRenderForegroundOccludesBackground(t *testing.T) {
	bg := variant("red", 1)
	bg.Image = solidPNG(t, 4, 4, red)
	fg := variant("blue", 1)
	fg.Image = topHalfPNG(t, 4, 4, blue)
	// declared out of order on purpose
	reg := NewRegistry([]collection.TraitCategory{
		category("foreground", 1, fg),
		category("background", 0, bg),
	})

	c := NewCompositor(64, 64, NewImageCache(nil, 1))
	frame := c.Render(context.Background(), Selection{"background": "red", "foreground": "blue"}, reg)
	require.Empty(t, frame.Skipped)

	img := frame.Image()
	require.Equal(t, 64, img.Bounds().Dx())
	requireColor(t, img, 32, 8, blue)
	requireColor(t, img, 32, 56, red)
}

func TestRenderDrawsSharedCategoryIDOnce(t *testing.T) {
	half := variant("half", 1)
	half.Image = topHalfPNG(t, 4, 4, color.NRGBA{R: 255, A: 128})
	other := variant("other", 1)
	other.Image = solidPNG(t, 4, 4, blue)
	reg := NewRegistry([]collection.TraitCategory{
		category("bg", 0, half),
		category("bg", 1, other),
	})

	frame := NewCompositor(8, 8, NewImageCache(nil, 1)).Render(context.Background(), Selection{"bg": "half"}, reg)
	got := color.NRGBAModel.Convert(frame.Image().At(4, 1)).(color.NRGBA)
	// a second draw of a half-transparent layer would push alpha towards 192
	require.InDelta(t, 128, int(got.A), 3)
}

func TestRenderScalesToCanvas(t *testing.T) {
	v := variant("red", 1)
	v.Image = solidPNG(t, 2, 2, red)
	reg := NewRegistry([]collection.TraitCategory{category("bg", 0, v)})

	frame := NewCompositor(40, 20, NewImageCache(nil, 1)).Render(context.Background(), Selection{"bg": "red"}, reg)
	img := frame.Image()
	require.Equal(t, 40, img.Bounds().Dx())
	require.Equal(t, 20, img.Bounds().Dy())
	requireColor(t, img, 2, 2, red)
	requireColor(t, img, 37, 17, red)
}

func TestRenderSkipsUndecodableLayer(t *testing.T) {
	bg := variant("red", 1)
	bg.Image = solidPNG(t, 2, 2, red)
	broken := variant("broken", 1)
	broken.Image = "data:image/png;base64,AAAA"
	reg := NewRegistry([]collection.TraitCategory{
		category("bg", 0, bg),
		category("fg", 1, broken),
	})

	frame := NewCompositor(8, 8, NewImageCache(nil, 1)).Render(context.Background(), Selection{"bg": "red", "fg": "broken"}, reg)
	require.Equal(t, []string{"broken"}, frame.Skipped)
	requireColor(t, frame.Image(), 4, 4, red)
}

func TestRenderEmptySelectionIsTransparent(t *testing.T) {
	reg := NewRegistry([]collection.TraitCategory{category("bg", 0, variant("red", 1))})
	frame := NewCompositor(4, 4, NewImageCache(nil, 1)).Render(context.Background(), Selection{}, reg)
	requireColor(t, frame.Image(), 1, 1, color.NRGBA{})

	url, err := frame.DataURL()
	require.NoError(t, err)
	mime, _, err := ParseDataURL(url)
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)
}
