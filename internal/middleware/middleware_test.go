package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupRouter(logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(logger, func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	}))
	r.Use(RequestID())
	r.Use(CORS())
	r.Use(AccessLog(logger))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })
	return r
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated when absent"},
		{name: "propagated when present", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(slog.New(slog.NewJSONHandler(io.Discard, nil)))
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			if tt.incoming != "" {
				req.Header.Set(requestIDHeader, tt.incoming)
			}
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got == "" {
				t.Fatal("expected request id header")
			}
			if tt.incoming != "" && got != tt.incoming {
				t.Fatalf("want %q, got %q", tt.incoming, got)
			}
		})
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	r := setupRouter(slog.New(slog.NewJSONHandler(&buf, nil)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	for _, want := range []string{`"msg":"http request"`, `"path":"/ok"`, `"status":200`} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("want log containing %s, got %s", want, buf.String())
		}
	}
}

func TestRecovery(t *testing.T) {
	r := setupRouter(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("want status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error":"boom"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	r := setupRouter(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("want allow-origin *, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ok", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("want preflight status 204, got %d", w.Code)
	}
}
