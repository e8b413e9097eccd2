package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		value   string
		status  int
		message string
	}{
		{"header key", "X-API-Key", "test-key", http.StatusOK, ""},
		{"bearer token", "Authorization", "Bearer test-key", http.StatusOK, ""},
		{"no key", "", "", http.StatusUnauthorized, "missing API key"},
		{"wrong key", "X-API-Key", "wrong-key", http.StatusUnauthorized, "invalid API key"},
		{"prefix of key", "X-API-Key", "test", http.StatusUnauthorized, "invalid API key"},
		{"basic auth", "Authorization", "Basic dGVzdA==", http.StatusUnauthorized, "missing API key"},
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := apiKeyMiddleware("test-key")(ok)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				var resp APIResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.False(t, resp.Success)
				assert.Equal(t, tt.message, resp.Error)
			}
		})
	}
}

func TestSendSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	sendSuccess(w, map[string]string{"status": "healthy"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"status":"healthy"}}`, w.Body.String())
}

func TestSendError(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
		w := httptest.NewRecorder()
		sendError(w, "channel 9 not found", code)

		assert.Equal(t, code, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"channel 9 not found"}`, w.Body.String())
	}
}
