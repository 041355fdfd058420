package handlers

import (
	"errors"
	"net/http"

	"github.com/example/movie-catalog/internal/platform/api"
	"github.com/example/movie-catalog/internal/store"
)

// writeStoreError maps store sentinels onto the shared error envelope.
func writeStoreError(w http.ResponseWriter, requestID string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", "resource not found", requestID)
	case errors.Is(err, store.ErrConflict):
		api.Conflict(w, "DUPLICATE_IMDB_ID", "a movie with this imdb_id already exists", requestID, nil)
	case errors.Is(err, store.ErrValidation):
		api.BadRequest(w, "VALIDATION", err.Error(), requestID, nil)
	default:
		api.Internal(w, requestID)
	}
}
