package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRequestLoggerEmitsSingleAccessLine(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	h := RequestID(WithRequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetLogger(r.Context()).Warn().Msg("handler detail")
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "one handler line plus exactly one access line")

	var access map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &access))
	assert.Equal(t, "request", access["message"])
	assert.Equal(t, "req-42", access["request_id"])
	assert.Equal(t, "GET", access["method"])
	assert.Equal(t, "/api/invoices", access["path"])
	assert.Equal(t, float64(http.StatusTeapot), access["status"])

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &detail))
	assert.Equal(t, "req-42", detail["request_id"], "handler log must carry the request id")
}

func TestGetLoggerFallsBackToNop(t *testing.T) {
	logger := GetLogger(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.NotNil(t, logger)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}
