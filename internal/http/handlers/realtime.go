package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/http/response"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
	"github.com/yungbote/traitforge-backend/internal/realtime"
)

// RunLookup reports whether a run belongs to a user.
type RunLookup interface {
	Owns(userID, runID uuid.UUID) bool
}

type RealtimeHandler struct {
	log  *logger.Logger
	hub  *realtime.SSEHub
	runs RunLookup
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, runs RunLookup) *RealtimeHandler {
	return &RealtimeHandler{
		log:  log.With("handler", "RealtimeHandler"),
		hub:  hub,
		runs: runs,
	}
}

// GET /api/sse/stream?channel=run:<id>
//
// Every stream is subscribed to the caller's user channel; extra channels
// must be runs the caller owns.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	channels := []string{realtime.UserChannel(userID)}
	for _, ch := range c.QueryArray("channel") {
		ch = strings.TrimSpace(ch)
		if ch == "" || ch == channels[0] {
			continue
		}
		if err := h.authorizeChannel(userID, ch); err != nil {
			response.RespondError(c, http.StatusForbidden, "channel_forbidden", err)
			return
		}
		channels = append(channels, ch)
	}

	client := h.hub.NewSSEClient(userID)
	client.Logger = h.log.With("SSEClientID", client.ID)
	for _, ch := range channels {
		h.hub.AddChannel(client, ch)
	}
	h.log.Debug("SSEStream open", "user_id", userID.String(), "channels", channels)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.hub.CloseClient(client)
}

func (h *RealtimeHandler) authorizeChannel(userID uuid.UUID, ch string) error {
	raw, ok := strings.CutPrefix(ch, "run:")
	if !ok {
		return fmt.Errorf("unknown channel %q", ch)
	}
	runID, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid run channel %q", ch)
	}
	if h.runs == nil || !h.runs.Owns(userID, runID) {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}
