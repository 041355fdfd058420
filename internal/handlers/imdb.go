package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/movie-catalog/internal/importer"
	"github.com/example/movie-catalog/internal/media"
	"github.com/example/movie-catalog/internal/platform/api"
	"github.com/example/movie-catalog/internal/platform/httpserver"
	"github.com/example/movie-catalog/internal/store"
)

type searchResponse struct {
	Results []importer.Candidate `json:"results"`
	Total   int                  `json:"total"`
}

type importRequest struct {
	IMDBIDs []string `json:"imdb_ids"`
}

type importResponse struct {
	Imported []store.Movie `json:"imported"`
	Failed   []string      `json:"failed"`
}

type imagesResponse struct {
	IMDBID string        `json:"imdb_id"`
	Images []media.Image `json:"images"`
	Total  int           `json:"total"`
}

type videosResponse struct {
	IMDBID string        `json:"imdb_id"`
	Videos []media.Video `json:"videos"`
	Total  int           `json:"total"`
}

// SearchIMDB handles GET /v1/imdb/search?query=
func SearchIMDB(imp *importer.Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if len(query) < 2 {
			api.BadRequest(w, "VALIDATION_QUERY", "query must be at least 2 characters", rid, nil)
			return
		}

		results, err := imp.Search(r.Context(), query)
		if err != nil {
			api.BadGateway(w, "IMDB_FAILED", "imdb search failed", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, searchResponse{Results: results, Total: len(results)})
	}
}

// ImportIMDB handles POST /v1/imdb/import
func ImportIMDB(imp *importer.Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req importRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
			return
		}
		if len(req.IMDBIDs) == 0 {
			api.BadRequest(w, "VALIDATION", "imdb_ids must not be empty", rid, nil)
			return
		}

		imported, failed, err := imp.Import(r.Context(), req.IMDBIDs)
		if err != nil {
			if errors.Is(err, importer.ErrProviderUnavailable) {
				api.BadGateway(w, "PROVIDER_UNAVAILABLE", "imdb provider is unreachable", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		if failed == nil {
			failed = []string{}
		}
		api.WriteJSON(w, http.StatusOK, importResponse{Imported: imported, Failed: failed})
	}
}

// ListIMDBImages handles GET /v1/imdb/images/{imdb_id}
func ListIMDBImages(res *media.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		imdbID := strings.TrimSpace(chi.URLParam(r, "imdb_id"))
		if imdbID == "" {
			api.BadRequest(w, "MISSING_ID", "imdb_id is required", rid, nil)
			return
		}

		images, err := res.Images(r.Context(), imdbID)
		if err != nil {
			api.BadGateway(w, "IMDB_FAILED", "imdb image lookup failed", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, imagesResponse{IMDBID: imdbID, Images: images, Total: len(images)})
	}
}

// ListIMDBVideos handles GET /v1/imdb/videos/{imdb_id}
func ListIMDBVideos(res *media.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		imdbID := strings.TrimSpace(chi.URLParam(r, "imdb_id"))
		if imdbID == "" {
			api.BadRequest(w, "MISSING_ID", "imdb_id is required", rid, nil)
			return
		}

		videos, err := res.Videos(r.Context(), imdbID)
		if err != nil {
			api.BadGateway(w, "IMDB_FAILED", "imdb video lookup failed", rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, videosResponse{IMDBID: imdbID, Videos: videos, Total: len(videos)})
	}
}
