package engine

import (
	"bytes"
	"context"
	"image"

	"github.com/fogleman/gg"
)

// Compositor flattens a selection into one canvas-sized image.
type Compositor struct {
	Width  int
	Height int
	images *ImageCache
}

func NewCompositor(width, height int, images *ImageCache) *Compositor {
	return &Compositor{Width: width, Height: height, images: images}
}

// Frame is a rendered item. Skipped lists variant ids whose layer could not
// be decoded and was left out of the image.
type Frame struct {
	dc      *gg.Context
	Skipped []string
}

func (f *Frame) Image() image.Image { return f.dc.Image() }

func (f *Frame) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Frame) DataURL() (string, error) {
	raw, err := f.PNG()
	if err != nil {
		return "", err
	}
	return EncodeDataURL("image/png", raw), nil
}

// Render draws each selected layer back to front. Each layer is decoded and
// fully drawn before the next category is visited.
func (c *Compositor) Render(ctx context.Context, sel Selection, reg *Registry) *Frame {
	f := &Frame{dc: gg.NewContext(c.Width, c.Height)}
	drawn := make(map[string]bool, len(sel))
	for _, cat := range reg.Categories() {
		variantID, ok := sel[cat.ID]
		if !ok || drawn[cat.ID] {
			continue
		}
		drawn[cat.ID] = true
		if owner, ok := reg.CategoryOf(variantID); !ok || owner != cat.ID {
			continue
		}
		v, _ := reg.Variant(variantID)
		img, err := c.images.Decode(ctx, v)
		if err != nil {
			f.Skipped = append(f.Skipped, variantID)
			continue
		}
		c.drawLayer(f.dc, img)
	}
	return f
}

func (c *Compositor) drawLayer(dc *gg.Context, img image.Image) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	dc.Push()
	dc.Scale(float64(c.Width)/float64(b.Dx()), float64(c.Height)/float64(b.Dy()))
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	dc.Pop()
}
