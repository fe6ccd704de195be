package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_BypassesWriteMiddleware(t *testing.T) {
	deny := func(echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return c.NoContent(http.StatusUnauthorized) }
	}
	e, _ := newServer(t, deny)

	before := time.Now().UTC().Add(-time.Second)
	rec := do(e, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	at, err := time.Parse(time.RFC3339Nano, body["time"])
	require.NoError(t, err)
	assert.Equal(t, time.UTC, at.Location())
	assert.False(t, at.Before(before))

	rec = do(e, http.MethodPost, "/proposals", map[string]any{"author_id": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "writes stay behind the middleware")
}

func TestPathID(t *testing.T) {
	e := echo.New()
	tests := []struct {
		raw  string
		want uint64
		ok   bool
	}{
		{"7", 7, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tt.raw)
		got, ok := pathID(c, "id")
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}
