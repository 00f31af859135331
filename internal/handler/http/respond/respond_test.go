package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]int{"count": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())
}

func TestJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestJSON_EncodeFailure(t *testing.T) {
	logs := captureLog(t)
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), "failed to encode JSON response")
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		err     error
		wantMsg string
	}{
		{"not found passes through", http.StatusNotFound, errors.New("feed not found: weather2"), "feed not found: weather2"},
		{"invalid passes through", http.StatusBadRequest, errors.New("invalid category"), "invalid category"},
		{"unknown 4xx is hidden", http.StatusBadRequest, errors.New("dial tcp 10.0.0.1:443"), "internal server error"},
		{"5xx is always hidden", http.StatusInternalServerError, errors.New("feed not found"), "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLog(t)
			rec := httptest.NewRecorder()
			SafeError(rec, tt.code, tt.err)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rec)["error"])
		})
	}
}

func TestSafeError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusInternalServerError, nil)
	assert.Empty(t, rec.Body.String())
}

func TestSafeError_LogsSanitized(t *testing.T) {
	logs := captureLog(t)
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusBadGateway, errors.New("GET https://api.eia.gov/v2?api_key=abc123&x=1 failed"))

	assert.Contains(t, logs.String(), "api_key=****")
	assert.NotContains(t, logs.String(), "abc123")
}
