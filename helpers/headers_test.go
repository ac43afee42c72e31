package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoWith(mw ...echo.MiddlewareFunc) (*echo.Echo, *bool) {
	e := echo.New()
	called := false
	handler := func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	}
	e.GET("/x", handler, mw...)
	return e, &called
}

func TestCORS_WildcardReflectsAnyOrigin(t *testing.T) {
	e, called := newEchoWith(CORS("*"))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://anything.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.True(t, *called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://anything.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_AllowListRejectsUnknownOrigin(t *testing.T) {
	e, called := newEchoWith(CORS("https://ok.example"))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.False(t, *called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Origin not allowed"}`, rec.Body.String())
}

func TestCORS_AllowListAcceptsListedOrigin(t *testing.T) {
	e, called := newEchoWith(CORS("https://a.example,https://ok.example"))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://ok.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.True(t, *called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://ok.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_OptionsPreflightNoContent(t *testing.T) {
	e := echo.New()
	e.Any("/x", func(c echo.Context) error {
		return c.String(http.StatusOK, "should not be reached for OPTIONS")
	}, CORS("*"))
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://a.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHeaderNoCache(t *testing.T) {
	e, _ := newEchoWith(HeaderNoCache())
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "private, no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "-1", rec.Header().Get("Expires"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}

func TestHeaderTimestamp(t *testing.T) {
	e, _ := newEchoWith(HeaderTimestamp())
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Header().Get("X-Timestamp"))
}
