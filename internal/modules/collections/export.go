package collections

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/export"
	"github.com/yungbote/traitforge-backend/internal/platform/apierr"
	"github.com/yungbote/traitforge-backend/internal/platform/blob"
	"github.com/yungbote/traitforge-backend/internal/realtime"
)

const exportURLExpiry = time.Hour

var keySafe = strings.NewReplacer("/", "_", "\\", "_", "..", "_")

type StoredExport struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size_bytes"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WriteExport streams the collection archive to w and returns the download name.
func (u Usecases) WriteExport(ctx context.Context, userID, id uuid.UUID, w io.Writer, opts export.ArchiveOptions) (string, error) {
	d, err := u.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if err := export.WriteArchive(ctx, w, d.Name, d.Items, opts); err != nil {
		return "", apierr.New(http.StatusInternalServerError, "export_failed", err)
	}
	return export.ArchiveName(d.Name), nil
}

// StoreExport writes the archive to the blob store under
// exports/<user>/<collection>/<unix>-<name>.zip.
func (u Usecases) StoreExport(ctx context.Context, userID, id uuid.UUID, opts export.ArchiveOptions) (*StoredExport, error) {
	if u.deps.Blob == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "blob_store_not_configured", nil)
	}
	d, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteArchive(ctx, &buf, d.Name, d.Items, opts); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "export_failed", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("exports/%s/%s/%d-%s", userID, id, now.UnixNano(), keySafe.Replace(export.ArchiveName(d.Name)))
	info, err := u.deps.Blob.Put(ctx, key, &buf, blob.PutOptions{
		ContentType: "application/zip",
		Metadata:    map[string]string{"collection_id": id.String(), "items": fmt.Sprint(len(d.Items))},
	})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "store_export_failed", err)
	}

	out := &StoredExport{Key: info.Key, Size: info.Size, URL: info.URL, CreatedAt: now}
	signed, err := u.deps.Blob.PresignURL(ctx, info.Key, blob.SignedURLOptions{Expiry: exportURLExpiry})
	switch {
	case err == nil:
		out.URL = signed
	case errors.Is(err, blob.ErrUnsupported):
	default:
		if u.deps.Log != nil {
			u.deps.Log.Warn("presign export failed", "key", info.Key, "error", err)
		}
	}

	u.notify(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventExportReady,
		Data:    out,
	})
	return out, nil
}

// ListExports returns previously stored archives of a collection.
func (u Usecases) ListExports(ctx context.Context, userID, id uuid.UUID) ([]blob.Info, error) {
	if u.deps.Blob == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "blob_store_not_configured", nil)
	}
	if _, err := u.load(ctx, userID, id); err != nil {
		return nil, err
	}
	infos, err := u.deps.Blob.List(ctx, fmt.Sprintf("exports/%s/%s/", userID, id))
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "list_exports_failed", err)
	}
	return infos, nil
}
