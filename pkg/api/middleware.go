package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// presentedKey returns the API key a request carries, either in X-API-Key
// or as a bearer token.
func presentedKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// apiKeyMiddleware rejects requests that do not present key.
func apiKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := presentedKey(r)
			switch {
			case got == "":
				sendError(w, "missing API key", http.StatusUnauthorized)
			case subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1:
				sendError(w, "invalid API key", http.StatusUnauthorized)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func sendSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func sendError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, APIResponse{Error: message})
}
