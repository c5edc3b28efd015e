package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitforge-backend/internal/http/response"
	"github.com/yungbote/traitforge-backend/internal/modules/generation"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type GenerationHandler struct {
	log    *logger.Logger
	runner *generation.Runner
}

func NewGenerationHandler(log *logger.Logger, runner *generation.Runner) *GenerationHandler {
	return &GenerationHandler{
		log:    log.With("handler", "GenerationHandler"),
		runner: runner,
	}
}

// POST /api/generations
func (h *GenerationHandler) Start(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req generation.StartInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	run, err := h.runner.Start(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondUsecaseError(c, "start_generation_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

// GET /api/generations/:id
func (h *GenerationHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	runID, ok := uuidParam(c, "id", "invalid_run_id")
	if !ok {
		return
	}
	run, err := h.runner.Get(userID, runID)
	if err != nil {
		response.RespondUsecaseError(c, "load_generation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}

// DELETE /api/generations/:id
func (h *GenerationHandler) Cancel(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	runID, ok := uuidParam(c, "id", "invalid_run_id")
	if !ok {
		return
	}
	run, err := h.runner.Cancel(userID, runID)
	if err != nil {
		response.RespondUsecaseError(c, "cancel_generation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}

// POST /api/generations/:id/save
func (h *GenerationHandler) Save(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	runID, ok := uuidParam(c, "id", "invalid_run_id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.runner.Save(c.Request.Context(), userID, runID, req.Name)
	if err != nil {
		response.RespondUsecaseError(c, "save_collection_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "collectionId": id})
}
