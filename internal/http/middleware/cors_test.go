package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	called := false
	mw := CORS(CORSConfig{AllowedOrigins: []string{"https://acesoft.in/"}, AllowCredentials: true})
	req := httptest.NewRequest(http.MethodPost, "/api/forms/contact", nil)
	req.Header.Set("Origin", "https://acesoft.in")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://acesoft.in", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Accept-Language")
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	called := false
	mw := CORS(CORSConfig{AllowedOrigins: []string{"https://acesoft.in"}})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://unknown.example")
	rec := httptest.NewRecorder()

	mw(okHandler(&called)).ServeHTTP(rec, req)

	assert.True(t, called, "non-preflight requests still reach the handler")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	mw := CORS(CORSConfig{AllowedOrigins: []string{"*"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/forms/contact", nil)
	req.Header.Set("Origin", "https://preview.acesoft.in")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	called := false
	mw(okHandler(&called)).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://preview.acesoft.in", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSPreflightRejected(t *testing.T) {
	mw := CORS(CORSConfig{AllowedOrigins: []string{"https://acesoft.in"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/forms/contact", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	mw(okHandler(nil)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
