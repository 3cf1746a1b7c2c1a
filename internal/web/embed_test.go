package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterStaticRoutes(t *testing.T) {
	require.True(t, HasEmbeddedFiles())

	e := echo.New()
	e.GET("/api/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	require.NoError(t, RegisterStaticRoutes(e))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		contains   string
	}{
		{"root", "/", http.StatusOK, "Transfer Learning Studio"},
		{"index file", "/index.html", http.StatusOK, "Transfer Learning Studio"},
		{"client route falls back to page", "/sessions/abc", http.StatusOK, "Transfer Learning Studio"},
		{"api route wins", "/api/health", http.StatusOK, "ok"},
		{"unknown api path is not the page", "/api/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}
