package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/http/response"
	"github.com/yungbote/traitforge-backend/internal/platform/ctxutil"
)

// requireUser writes 401 and returns false when the request is anonymous.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}

func queryBool(c *gin.Context, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
