package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// CORS allows the given origins, or the local dev servers when none are set.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = defaultAllowedOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-Id"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
	})
}
