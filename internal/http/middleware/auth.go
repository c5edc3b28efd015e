package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/platform/ctxutil"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

// TokenVerifier attaches the caller identified by a bearer token to ctx.
type TokenVerifier interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type AuthMiddleware struct {
	log      *logger.Logger
	verifier TokenVerifier
	// devUserID, when set, is used for every request instead of a token.
	devUserID uuid.UUID
}

func NewAuthMiddleware(log *logger.Logger, verifier TokenVerifier) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, verifier: verifier}
}

// NewDevAuthMiddleware authenticates every request as userID. Local use only.
func NewDevAuthMiddleware(log *logger.Logger, userID uuid.UUID) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	middlewareLogger.Warn("auth disabled: all requests run as the dev user", "user_id", userID.String())
	return &AuthMiddleware{log: middlewareLogger, devUserID: userID}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if am.devUserID != uuid.Nil {
			ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: am.devUserID})
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}
		tokenString := extractTokenFromAll(c)
		if tokenString == "" || am.verifier == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}
		ctx, err := am.verifier.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": err.Error(), "code": "unauthorized"},
			})
			return
		}
		c.Request = c.Request.WithContext(ctx)
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"message": "forbidden", "code": "forbidden"},
			})
			return
		}
		c.Next()
	}
}

// EventSource cannot set headers, so SSE clients pass ?token=.
func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
