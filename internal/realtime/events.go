package realtime

import (
	"fmt"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventGenerationStarted   SSEEvent = "GenerationStarted"
	SSEEventGenerationItem      SSEEvent = "GenerationItem"
	SSEEventGenerationDone      SSEEvent = "GenerationDone"
	SSEEventGenerationCancelled SSEEvent = "GenerationCancelled"
	SSEEventGenerationFailed    SSEEvent = "GenerationFailed"
	SSEEventCollectionSaved     SSEEvent = "CollectionSaved"
	SSEEventExportReady         SSEEvent = "ExportReady"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// RunChannel is the channel progress of one generation run is published on.
func RunChannel(runID uuid.UUID) string { return fmt.Sprintf("run:%s", runID) }

// UserChannel carries account-wide notifications (saved collections, exports).
func UserChannel(userID uuid.UUID) string { return fmt.Sprintf("user:%s", userID) }
