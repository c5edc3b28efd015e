package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/engine"
)

type ArchiveOptions struct {
	// Preview adds a preview.png contact sheet at the archive root.
	Preview        bool
	PreviewColumns int
	PreviewThumb   int
}

// ItemPNG returns the raw PNG bytes of an item's data URI.
func ItemPNG(item collection.GeneratedItem) ([]byte, error) {
	_, raw, err := engine.ParseDataURL(item.DataURL)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}
	return raw, nil
}

// WriteArchive streams a zip holding images/<n>.png and metadata/<n>.json
// for every item, numbered from 1 in item order.
func WriteArchive(ctx context.Context, w io.Writer, collectionName string, items []collection.GeneratedItem, opts ArchiveOptions) error {
	zw := zip.NewWriter(w)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}
		raw, err := ItemPNG(item)
		if err != nil {
			_ = zw.Close()
			return err
		}
		if err := writeEntry(zw, fmt.Sprintf("images/%d.png", i+1), raw); err != nil {
			_ = zw.Close()
			return err
		}
		meta, err := json.MarshalIndent(BuildMetadata(collectionName, i, item), "", "  ")
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("marshal metadata %d: %w", i+1, err)
		}
		if err := writeEntry(zw, fmt.Sprintf("metadata/%d.json", i+1), meta); err != nil {
			_ = zw.Close()
			return err
		}
	}
	if opts.Preview && len(items) > 0 {
		sheet, err := ContactSheet(ctx, items, opts.PreviewColumns, opts.PreviewThumb)
		if err != nil {
			_ = zw.Close()
			return err
		}
		if err := writeEntry(zw, "preview.png", sheet); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("zip %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("zip %s: %w", name, err)
	}
	return nil
}
