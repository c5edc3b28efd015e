package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(t *testing.T, h gin.HandlerFunc, origin string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Use(h)
	r.OPTIONS("/api/generations", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodOptions, "/api/generations", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsLocalDevOrigins(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	origins := []string{
		"http://localhost:5173",
		"http://127.0.0.1:3000",
	}

	for _, origin := range origins {
		origin := origin
		t.Run(origin, func(t *testing.T) {
			t.Parallel()
			rec := preflight(t, CORS(nil), origin)
			if rec.Code != http.StatusNoContent {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNoContent)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
				t.Fatalf("unexpected allow-origin header: got=%q want=%q", got, origin)
			}
		})
	}
}

func TestCORSConfiguredOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := CORS([]string{"https://studio.example.com"})

	rec := preflight(t, h, "https://studio.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://studio.example.com" {
		t.Fatalf("configured origin rejected: %q", got)
	}
	rec = preflight(t, h, "http://localhost:5173")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("dev origin should not be allowed once origins are configured: %q", got)
	}
}
