package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/movie-catalog/internal/events"
	"github.com/example/movie-catalog/internal/platform/api"
	"github.com/example/movie-catalog/internal/platform/httpserver"
	"github.com/example/movie-catalog/internal/store"
)

type listRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type listUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type listsResponse struct {
	Lists []store.List `json:"lists"`
	Total int          `json:"total"`
}

type listMoviesResponse struct {
	ListID string        `json:"list_id"`
	Movies []store.Movie `json:"movies"`
	Total  int           `json:"total"`
}

// ListLists handles GET /v1/lists
func ListLists(ls store.ListStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		lists, err := ls.ListLists(r.Context())
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, listsResponse{Lists: lists, Total: len(lists)})
	}
}

// GetList handles GET /v1/lists/{list_id}
func GetList(ls store.ListStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		listID := strings.TrimSpace(chi.URLParam(r, "list_id"))
		if listID == "" {
			api.BadRequest(w, "MISSING_ID", "list_id is required", rid, nil)
			return
		}

		l, err := ls.GetList(r.Context(), listID)
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, l)
	}
}

// CreateList handles POST /v1/lists
func CreateList(ls store.ListStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req listRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			api.BadRequest(w, "VALIDATION", "name must not be empty", rid, nil)
			return
		}

		created, err := ls.CreateList(r.Context(), store.ListInput{
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
		})
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ev.Publish(events.SubjectListCreated, map[string]any{
			"list_id": created.ID,
			"name":    created.Name,
		})
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateList handles PUT /v1/lists/{list_id}. Updates are partial:
// absent fields keep their stored values.
func UpdateList(ls store.ListStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		listID := strings.TrimSpace(chi.URLParam(r, "list_id"))
		if listID == "" {
			api.BadRequest(w, "MISSING_ID", "list_id is required", rid, nil)
			return
		}

		var req listUpdateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
			api.BadRequest(w, "VALIDATION", "name must not be empty", rid, nil)
			return
		}

		updated, err := ls.UpdateList(r.Context(), listID, store.ListUpdate{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ev.Publish(events.SubjectListUpdated, map[string]any{
			"list_id": updated.ID,
			"name":    updated.Name,
		})
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteList handles DELETE /v1/lists/{list_id}
func DeleteList(ls store.ListStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		listID := strings.TrimSpace(chi.URLParam(r, "list_id"))
		if listID == "" {
			api.BadRequest(w, "MISSING_ID", "list_id is required", rid, nil)
			return
		}

		if err := ls.DeleteList(r.Context(), listID); err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ev.Publish(events.SubjectListDeleted, map[string]any{
			"list_id": listID,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// AddListMovie handles POST /v1/lists/{list_id}/movies/{movie_id}
func AddListMovie(ls store.ListStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		listID := strings.TrimSpace(chi.URLParam(r, "list_id"))
		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if listID == "" || movieID == "" {
			api.BadRequest(w, "MISSING_ID", "list_id and movie_id are required", rid, nil)
			return
		}

		updated, err := ls.AddListMovie(r.Context(), listID, movieID)
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ev.Publish(events.SubjectListUpdated, map[string]any{
			"list_id":  updated.ID,
			"movie_id": movieID,
			"action":   "add",
		})
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// RemoveListMovie handles DELETE /v1/lists/{list_id}/movies/{movie_id}
func RemoveListMovie(ls store.ListStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		listID := strings.TrimSpace(chi.URLParam(r, "list_id"))
		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if listID == "" || movieID == "" {
			api.BadRequest(w, "MISSING_ID", "list_id and movie_id are required", rid, nil)
			return
		}

		updated, err := ls.RemoveListMovie(r.Context(), listID, movieID)
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ev.Publish(events.SubjectListUpdated, map[string]any{
			"list_id":  updated.ID,
			"movie_id": movieID,
			"action":   "remove",
		})
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// ListMoviesInList handles GET /v1/lists/{list_id}/movies
func ListMoviesInList(ls store.ListStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		listID := strings.TrimSpace(chi.URLParam(r, "list_id"))
		if listID == "" {
			api.BadRequest(w, "MISSING_ID", "list_id is required", rid, nil)
			return
		}

		movies, err := ls.ListMoviesInList(r.Context(), listID)
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, listMoviesResponse{ListID: listID, Movies: movies, Total: len(movies)})
	}
}
