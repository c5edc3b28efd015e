package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/engine"
)

const (
	defaultColumns = 5
	defaultThumb   = 128
	labelHeight    = 20
	sheetPadding   = 8
)

var (
	labelFontOnce sync.Once
	labelFont     *truetype.Font
	labelFontErr  error
)

func loadLabelFace(size float64) (font.Face, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = truetype.Parse(goregular.TTF)
	})
	if labelFontErr != nil {
		return nil, fmt.Errorf("parse label font: %w", labelFontErr)
	}
	return truetype.NewFace(labelFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// ContactSheet lays the items out on a grid of thumb×thumb tiles, each
// labelled with its 1-based number, and returns the PNG bytes.
func ContactSheet(ctx context.Context, items []collection.GeneratedItem, columns, thumb int) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("contact sheet: no items")
	}
	if columns <= 0 {
		columns = defaultColumns
	}
	if columns > len(items) {
		columns = len(items)
	}
	if thumb <= 0 {
		thumb = defaultThumb
	}
	rows := int(math.Ceil(float64(len(items)) / float64(columns)))
	cellW := thumb + sheetPadding
	cellH := thumb + labelHeight + sheetPadding
	dc := gg.NewContext(columns*cellW+sheetPadding, rows*cellH+sheetPadding)

	dc.SetColor(color.White)
	dc.Clear()

	face, err := loadLabelFace(12)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	dec := engine.DataURLDecoder{}
	for i, item := range items {
		x := sheetPadding + (i%columns)*cellW
		y := sheetPadding + (i/columns)*cellH

		img, err := dec.Decode(ctx, item.DataURL)
		if err != nil {
			return nil, fmt.Errorf("contact sheet item %d: %w", i+1, err)
		}
		tile := image.NewRGBA(image.Rect(0, 0, thumb, thumb))
		draw.CatmullRom.Scale(tile, tile.Bounds(), img, img.Bounds(), draw.Over, nil)
		dc.DrawImage(tile, x, y)

		dc.SetColor(color.Black)
		dc.DrawStringAnchored(fmt.Sprintf("#%d", i+1), float64(x)+float64(thumb)/2, float64(y+thumb)+labelHeight/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode contact sheet: %w", err)
	}
	return buf.Bytes(), nil
}
