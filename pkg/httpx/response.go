package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as an uncacheable JSON response.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteBody writes an already encoded, uncacheable response.
func WriteBody(w http.ResponseWriter, code int, contentType string, body []byte) {
	NoCache(w)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// NoCache forbids caching. Every page of the app shows user data.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
