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

type movieRequest struct {
	Title      string   `json:"title"`
	Year       *int     `json:"year"`
	Genre      string   `json:"genre"`
	Director   string   `json:"director"`
	Plot       string   `json:"plot"`
	Poster     string   `json:"poster"`
	IMDBID     string   `json:"imdb_id"`
	IMDBRating *float64 `json:"imdb_rating"`
}

type movieUpdateRequest struct {
	Title      *string  `json:"title"`
	Year       *int     `json:"year"`
	Genre      *string  `json:"genre"`
	Director   *string  `json:"director"`
	Plot       *string  `json:"plot"`
	Poster     *string  `json:"poster"`
	IMDBID     *string  `json:"imdb_id"`
	IMDBRating *float64 `json:"imdb_rating"`
}

type moviesResponse struct {
	Movies []store.Movie `json:"movies"`
	Total  int           `json:"total"`
}

// ListMovies handles GET /v1/movies
func ListMovies(ms store.MovieStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		movies, err := ms.ListMovies(r.Context())
		if err != nil {
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, moviesResponse{Movies: movies, Total: len(movies)})
	}
}

// GetMovie handles GET /v1/movies/{movie_id}
func GetMovie(ms store.MovieStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if movieID == "" {
			api.BadRequest(w, "MISSING_ID", "movie_id is required", rid, nil)
			return
		}

		m, err := ms.GetMovie(r.Context(), movieID)
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, m)
	}
}

// CreateMovie handles POST /v1/movies
func CreateMovie(ms store.MovieStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req movieRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			api.BadRequest(w, "VALIDATION", "title must not be empty", rid, nil)
			return
		}

		in := store.MovieInput{
			Title:      strings.TrimSpace(req.Title),
			Year:       req.Year,
			Genre:      req.Genre,
			Director:   req.Director,
			Plot:       req.Plot,
			Poster:     req.Poster,
			IMDBID:     strings.TrimSpace(req.IMDBID),
			IMDBRating: req.IMDBRating,
		}

		created, err := ms.CreateMovie(r.Context(), in)
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ev.Publish(events.SubjectMovieCreated, map[string]any{
			"movie_id": created.ID,
			"title":    created.Title,
		})
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateMovie handles PUT /v1/movies/{movie_id}. Updates are partial:
// absent fields keep their stored values.
func UpdateMovie(ms store.MovieStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if movieID == "" {
			api.BadRequest(w, "MISSING_ID", "movie_id is required", rid, nil)
			return
		}

		var req movieUpdateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
			api.BadRequest(w, "VALIDATION", "title must not be empty", rid, nil)
			return
		}

		upd := store.MovieUpdate{
			Title:      req.Title,
			Year:       req.Year,
			Genre:      req.Genre,
			Director:   req.Director,
			Plot:       req.Plot,
			Poster:     req.Poster,
			IMDBID:     req.IMDBID,
			IMDBRating: req.IMDBRating,
		}

		updated, err := ms.UpdateMovie(r.Context(), movieID, upd)
		if err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ev.Publish(events.SubjectMovieUpdated, map[string]any{
			"movie_id": updated.ID,
			"title":    updated.Title,
		})
		api.WriteJSON(w, http.StatusOK, updated)
	}
}

// DeleteMovie handles DELETE /v1/movies/{movie_id}
func DeleteMovie(ms store.MovieStore, ev *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		movieID := strings.TrimSpace(chi.URLParam(r, "movie_id"))
		if movieID == "" {
			api.BadRequest(w, "MISSING_ID", "movie_id is required", rid, nil)
			return
		}

		if err := ms.DeleteMovie(r.Context(), movieID); err != nil {
			writeStoreError(w, rid, err)
			return
		}

		ev.Publish(events.SubjectMovieDeleted, map[string]any{
			"movie_id": movieID,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
