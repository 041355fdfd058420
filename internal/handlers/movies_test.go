package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/example/movie-catalog/internal/events"
	"github.com/example/movie-catalog/internal/store"
)

// setupReq builds a request with chi URL params injected into the context.
func setupReq(method, url, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// noEvents is a disabled publisher; Publish on it is a no-op.
var noEvents *events.Publisher

func TestCreateMovie(t *testing.T) {
	ms := store.NewInMemoryStore()
	handler := CreateMovie(ms, noEvents)

	req := setupReq(http.MethodPost, "/v1/movies",
		`{"title":"Inception","year":2010,"imdb_id":"tt1375666"}`, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var m store.Movie
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ID == "" || m.Title != "Inception" {
		t.Fatalf("unexpected movie: %+v", m)
	}
	if m.Year == nil || *m.Year != 2010 {
		t.Fatalf("expected year 2010, got %v", m.Year)
	}
}

func TestCreateMovie_EmptyTitle(t *testing.T) {
	ms := store.NewInMemoryStore()
	handler := CreateMovie(ms, noEvents)

	req := setupReq(http.MethodPost, "/v1/movies", `{"title":"  "}`, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateMovie_DuplicateIMDBID(t *testing.T) {
	ms := store.NewInMemoryStore()
	handler := CreateMovie(ms, noEvents)

	req := setupReq(http.MethodPost, "/v1/movies", `{"title":"Inception","imdb_id":"tt1375666"}`, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	req = setupReq(http.MethodPost, "/v1/movies", `{"title":"Inception (copy)","imdb_id":"tt1375666"}`, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetMovie_NotFound(t *testing.T) {
	ms := store.NewInMemoryStore()
	handler := GetMovie(ms)

	req := setupReq(http.MethodGet, "/v1/movies/missing", "",
		map[string]string{"movie_id": "missing"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListMovies(t *testing.T) {
	ms := store.NewInMemoryStore()
	ctx := context.Background()
	_, _ = ms.CreateMovie(ctx, store.MovieInput{Title: "One"})
	_, _ = ms.CreateMovie(ctx, store.MovieInput{Title: "Two"})

	handler := ListMovies(ms)
	req := setupReq(http.MethodGet, "/v1/movies", "", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp moviesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Movies) != 2 {
		t.Fatalf("expected 2 movies, got %+v", resp)
	}
}

func TestUpdateMovie_Partial(t *testing.T) {
	ms := store.NewInMemoryStore()
	ctx := context.Background()
	m, _ := ms.CreateMovie(ctx, store.MovieInput{Title: "Old", Genre: "Drama"})

	handler := UpdateMovie(ms, noEvents)
	req := setupReq(http.MethodPut, "/v1/movies/"+m.ID, `{"title":"New"}`,
		map[string]string{"movie_id": m.ID})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated store.Movie
	if err := json.NewDecoder(rr.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Title != "New" || updated.Genre != "Drama" {
		t.Fatalf("unexpected movie after partial update: %+v", updated)
	}
}

func TestDeleteMovie(t *testing.T) {
	ms := store.NewInMemoryStore()
	ctx := context.Background()
	m, _ := ms.CreateMovie(ctx, store.MovieInput{Title: "Doomed"})

	handler := DeleteMovie(ms, noEvents)
	req := setupReq(http.MethodDelete, "/v1/movies/"+m.ID, "",
		map[string]string{"movie_id": m.ID})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	// Second delete: already gone.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodDelete, "/v1/movies/"+m.ID, "",
		map[string]string{"movie_id": m.ID}))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
