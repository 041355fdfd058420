package api

import (
	"encoding/json"
	"net/http"
)

// WriteJSON serializes v with the right headers. Encoding failures after
// the header is written can only be logged by middleware, not surfaced.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
