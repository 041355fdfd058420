package imdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	return New(baseURL, ClientConfig{
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
	})
}

func TestSearchTitles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/titles" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "inception" {
			t.Fatalf("unexpected query %q", got)
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{Titles: []Title{
			{ID: "tt1375666", PrimaryTitle: "Inception", StartYear: 2010},
		}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.SearchTitles(context.Background(), "inception")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Titles) != 1 || resp.Titles[0].ID != "tt1375666" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Titles[0].StartYear != 2010 {
		t.Fatalf("expected startYear 2010, got %d", resp.Titles[0].StartYear)
	}
}

func TestGetTitle_NotFound(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GetTitle(context.Background(), "tt0000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("404 must not be retried, got %d calls", calls)
	}
}

func TestGetTitle_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(Title{ID: "tt1375666", PrimaryTitle: "Inception"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	title, err := c.GetTitle(context.Background(), "tt1375666")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if title.PrimaryTitle != "Inception" {
		t.Fatalf("unexpected title: %+v", title)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestListImages_PageToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "next" {
			_ = json.NewEncoder(w).Encode(ImagesResponse{Images: []Image{{URL: "b.jpg"}}})
			return
		}
		_ = json.NewEncoder(w).Encode(ImagesResponse{Images: []Image{{URL: "a.jpg"}}, NextPageToken: "next"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	first, err := c.ListImages(context.Background(), "tt1375666", "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if first.NextPageToken != "next" || first.Images[0].URL != "a.jpg" {
		t.Fatalf("unexpected first page: %+v", first)
	}

	second, err := c.ListImages(context.Background(), "tt1375666", first.NextPageToken)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if second.NextPageToken != "" || second.Images[0].URL != "b.jpg" {
		t.Fatalf("unexpected second page: %+v", second)
	}
}

func TestYearUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want Year
	}{
		{`2010`, 2010},
		{`"2010"`, 2010},
		{`"2010–2013"`, 2010},
		{`"2010-2013"`, 2010},
		{`null`, 0},
		{`"unknown"`, 0},
	}
	for _, tc := range cases {
		var y Year
		if err := json.Unmarshal([]byte(tc.in), &y); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if y != tc.want {
			t.Fatalf("unmarshal %s: expected %d, got %d", tc.in, tc.want, y)
		}
	}
}

func TestBestTitleAndDirectors(t *testing.T) {
	tt := Title{OriginalTitle: "Le Film"}
	if got := tt.BestTitle(); got != "Le Film" {
		t.Fatalf("expected original title fallback, got %q", got)
	}
	tt.PrimaryTitle = "The Movie"
	if got := tt.BestTitle(); got != "The Movie" {
		t.Fatalf("expected primary title, got %q", got)
	}

	tt.Directors = []Person{{DisplayName: "A"}, {DisplayName: ""}, {DisplayName: "B"}}
	if got := tt.DirectorNames(); got != "A, B" {
		t.Fatalf("expected 'A, B', got %q", got)
	}
}

func TestGetTitle_EmptyID(t *testing.T) {
	c := newTestClient("http://unused")
	if _, err := c.GetTitle(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}
