package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitforge-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "unknown error"
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondUsecaseError unwraps an *apierr.Error, falling back to 500 with fallbackCode.
func RespondUsecaseError(c *gin.Context, fallbackCode string, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		_ = c.Error(err)
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, fallbackCode, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
