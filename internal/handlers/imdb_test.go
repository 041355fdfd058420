package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/example/movie-catalog/internal/imdb"
	"github.com/example/movie-catalog/internal/importer"
	"github.com/example/movie-catalog/internal/media"
	"github.com/example/movie-catalog/internal/store"
)

type fakeProvider struct {
	titles map[string]*imdb.Title
	err    error
}

func (f *fakeProvider) SearchTitles(_ context.Context, query string) (*imdb.SearchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := &imdb.SearchResponse{}
	for _, t := range f.titles {
		resp.Titles = append(resp.Titles, *t)
	}
	return resp, nil
}

func (f *fakeProvider) GetTitle(_ context.Context, id string) (*imdb.Title, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.titles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", imdb.ErrNotFound, id)
	}
	return t, nil
}

func (f *fakeProvider) ListImages(_ context.Context, id, pageToken string) (*imdb.ImagesResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &imdb.ImagesResponse{Images: []imdb.Image{{URL: "a.jpg"}}}, nil
}

func (f *fakeProvider) ListVideos(_ context.Context, id string) (*imdb.VideosResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &imdb.VideosResponse{Videos: []imdb.Video{{ID: "vi1", Name: "Trailer"}}}, nil
}

func newImporter(p imdb.Provider) *importer.Importer {
	return importer.New(store.NewInMemoryStore(), p, zap.NewNop())
}

func TestSearchIMDB(t *testing.T) {
	p := &fakeProvider{titles: map[string]*imdb.Title{
		"tt1375666": {ID: "tt1375666", PrimaryTitle: "Inception", StartYear: 2010},
	}}
	handler := SearchIMDB(newImporter(p))

	req := setupReq(http.MethodGet, "/v1/imdb/search?query=inception", "", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Results[0].IMDBID != "tt1375666" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSearchIMDB_ShortQuery(t *testing.T) {
	handler := SearchIMDB(newImporter(&fakeProvider{}))

	req := setupReq(http.MethodGet, "/v1/imdb/search?query=a", "", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSearchIMDB_ProviderError(t *testing.T) {
	handler := SearchIMDB(newImporter(&fakeProvider{err: errors.New("connection refused")}))

	req := setupReq(http.MethodGet, "/v1/imdb/search?query=inception", "", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestImportIMDB(t *testing.T) {
	p := &fakeProvider{titles: map[string]*imdb.Title{
		"tt1375666": {ID: "tt1375666", PrimaryTitle: "Inception", StartYear: 2010},
	}}
	handler := ImportIMDB(newImporter(p))

	req := setupReq(http.MethodPost, "/v1/imdb/import",
		`{"imdb_ids":["tt1375666","tt0000404"]}`, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp importResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Imported) != 1 || resp.Imported[0].IMDBID != "tt1375666" {
		t.Fatalf("unexpected imported set: %+v", resp.Imported)
	}
	if len(resp.Failed) != 1 || resp.Failed[0] != "tt0000404" {
		t.Fatalf("unexpected failed set: %v", resp.Failed)
	}
}

func TestImportIMDB_EmptyBatch(t *testing.T) {
	handler := ImportIMDB(newImporter(&fakeProvider{}))

	req := setupReq(http.MethodPost, "/v1/imdb/import", `{"imdb_ids":[]}`, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestImportIMDB_ProviderUnavailable(t *testing.T) {
	handler := ImportIMDB(newImporter(&fakeProvider{err: errors.New("connection refused")}))

	req := setupReq(http.MethodPost, "/v1/imdb/import", `{"imdb_ids":["tt1375666"]}`, nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestListIMDBImages(t *testing.T) {
	res := media.NewResolver(&fakeProvider{}, nil, zap.NewNop())
	handler := ListIMDBImages(res)

	req := setupReq(http.MethodGet, "/v1/imdb/images/tt1375666", "",
		map[string]string{"imdb_id": "tt1375666"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp imagesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.IMDBID != "tt1375666" || resp.Total != 1 || resp.Images[0].URL != "a.jpg" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListIMDBVideos(t *testing.T) {
	res := media.NewResolver(&fakeProvider{}, nil, zap.NewNop())
	handler := ListIMDBVideos(res)

	req := setupReq(http.MethodGet, "/v1/imdb/videos/tt1375666", "",
		map[string]string{"imdb_id": "tt1375666"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp videosResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Videos[0].EmbedURL != "https://www.imdb.com/videoembed/vi1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListIMDBImages_ProviderError(t *testing.T) {
	res := media.NewResolver(&fakeProvider{err: errors.New("boom")}, nil, zap.NewNop())
	handler := ListIMDBImages(res)

	req := setupReq(http.MethodGet, "/v1/imdb/images/tt1375666", "",
		map[string]string{"imdb_id": "tt1375666"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}
