package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitforge-backend/internal/export"
	"github.com/yungbote/traitforge-backend/internal/http/response"
	collectionsmod "github.com/yungbote/traitforge-backend/internal/modules/collections"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type CollectionHandler struct {
	log         *logger.Logger
	collections collectionsmod.Usecases
}

func NewCollectionHandler(log *logger.Logger, collections collectionsmod.Usecases) *CollectionHandler {
	return &CollectionHandler{
		log:         log.With("handler", "CollectionHandler"),
		collections: collections,
	}
}

// GET /api/collections
func (h *CollectionHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	out, err := h.collections.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondUsecaseError(c, "list_collections_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"collections": out})
}

// POST /api/collections
func (h *CollectionHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req collectionsmod.SaveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.collections.Save(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondUsecaseError(c, "save_collection_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"collectionId": id,
		"message":      "Collection saved successfully",
	})
}

// GET /api/collections/:id
func (h *CollectionHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_collection_id")
	if !ok {
		return
	}
	d, err := h.collections.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondUsecaseError(c, "load_collection_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"collection":    d,
		"generatedNFTs": d.Items,
	})
}

// DELETE /api/collections/:id
func (h *CollectionHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_collection_id")
	if !ok {
		return
	}
	if err := h.collections.Delete(c.Request.Context(), userID, id); err != nil {
		response.RespondUsecaseError(c, "delete_collection_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

func archiveOptions(c *gin.Context) export.ArchiveOptions {
	return export.ArchiveOptions{
		Preview:        queryBool(c, "preview"),
		PreviewColumns: queryInt(c, "columns", 0),
		PreviewThumb:   queryInt(c, "thumb", 0),
	}
}

// GET /api/collections/:id/export
func (h *CollectionHandler) Export(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_collection_id")
	if !ok {
		return
	}
	// buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	name, err := h.collections.WriteExport(c.Request.Context(), userID, id, &buf, archiveOptions(c))
	if err != nil {
		response.RespondUsecaseError(c, "export_failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// POST /api/collections/:id/exports
func (h *CollectionHandler) StoreExport(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_collection_id")
	if !ok {
		return
	}
	out, err := h.collections.StoreExport(c.Request.Context(), userID, id, archiveOptions(c))
	if err != nil {
		response.RespondUsecaseError(c, "store_export_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"export": out})
}

// GET /api/collections/:id/exports
func (h *CollectionHandler) ListExports(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_collection_id")
	if !ok {
		return
	}
	out, err := h.collections.ListExports(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondUsecaseError(c, "list_exports_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"exports": out})
}

// GET /api/collections/:id/items/:index/image
func (h *CollectionHandler) ItemImage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "invalid_collection_id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_index", err)
		return
	}
	name, item, err := h.collections.Item(c.Request.Context(), userID, id, index)
	if err != nil {
		response.RespondUsecaseError(c, "load_item_failed", err)
		return
	}
	raw, err := export.ItemPNG(*item)
	if err != nil {
		h.log.Error("stored item is not a valid data url", "collection_id", id, "index", index, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "decode_item_failed", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.ItemFileName(name, index)))
	c.Data(http.StatusOK, "image/png", raw)
}
