package engine

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

// solidPNG returns a data URI of a w×h image filled with c.
func solidPNG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return encodePNG(t, img)
}

// topHalfPNG fills only the upper half of a w×h image with c.
func topHalfPNG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h/2; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return encodePNG(t, img)
}

func encodePNG(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return EncodeDataURL("image/png", buf.Bytes())
}

func variant(id string, rarity int, rules ...collection.Rule) collection.TraitVariant {
	return collection.TraitVariant{ID: id, Name: id, Rarity: rarity, Rules: rules}
}

func category(id string, order int, variants ...collection.TraitVariant) collection.TraitCategory {
	return collection.TraitCategory{ID: id, Name: id, Order: order, Images: variants}
}

func rule(kind collection.RuleKind, targets ...string) collection.Rule {
	return collection.Rule{Type: kind, TargetTraitIDs: targets}
}

func quotaRule(n int) collection.Rule {
	return collection.Rule{Type: collection.RuleAppearsAtLeast, Value: n}
}

func ptrs(vs ...collection.TraitVariant) []*collection.TraitVariant {
	out := make([]*collection.TraitVariant, 0, len(vs))
	for i := range vs {
		out = append(out, &vs[i])
	}
	return out
}

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func requireColor(t *testing.T, img image.Image, x, y int, want color.NRGBA) {
	t.Helper()
	got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d >= -3 && d <= 3
	}
	require.Truef(t, near(got.R, want.R) && near(got.G, want.G) && near(got.B, want.B) && near(got.A, want.A),
		"pixel (%d,%d): got %v want %v", x, y, got, want)
}
