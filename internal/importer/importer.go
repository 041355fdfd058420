// Package importer reconciles external search results into the local
// catalog: search passthrough plus idempotent bulk import keyed on imdb_id.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/example/movie-catalog/internal/events"
	"github.com/example/movie-catalog/internal/imdb"
	"github.com/example/movie-catalog/internal/store"
)

// ErrProviderUnavailable means the metadata provider gave no answer for
// any requested id; per-id failures are reported per id instead.
var ErrProviderUnavailable = errors.New("imdb provider unreachable")

// Candidate is one external search hit offered for import. Transient,
// never persisted.
type Candidate struct {
	IMDBID string `json:"imdb_id"`
	Title  string `json:"title"`
	Year   *int   `json:"year,omitempty"`
	Poster string `json:"poster,omitempty"`
	Type   string `json:"type,omitempty"`
}

type Importer struct {
	Movies   store.MovieStore
	Provider imdb.Provider
	Events   *events.Publisher
	Log      *zap.Logger

	// Concurrency bounds the provider round trips issued per Import call.
	Concurrency int
}

func New(movies store.MovieStore, provider imdb.Provider, log *zap.Logger) *Importer {
	return &Importer{Movies: movies, Provider: provider, Log: log, Concurrency: 4}
}

// Search forwards the query verbatim to the provider. An empty result is
// a normal outcome, not an error.
func (im *Importer) Search(ctx context.Context, query string) ([]Candidate, error) {
	resp, err := im.Provider.SearchTitles(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("imdb search: %w", err)
	}

	out := make([]Candidate, 0, len(resp.Titles))
	for _, t := range resp.Titles {
		if t.ID == "" {
			continue
		}
		c := Candidate{IMDBID: t.ID, Title: t.BestTitle(), Type: t.Type}
		if t.StartYear != 0 {
			y := int(t.StartYear)
			c.Year = &y
		}
		if t.PrimaryImage != nil {
			c.Poster = t.PrimaryImage.URL
		}
		out = append(out, c)
	}
	return out, nil
}

type importResult struct {
	movie    store.Movie
	created  bool
	err      error
	resolved bool // the provider answered, even if with "no such title"
}

// Import materializes the requested external ids into the catalog.
// Already-imported ids reuse their existing local identity; ids that fail
// to resolve are skipped and reported back, never aborting the batch.
// ErrProviderUnavailable is returned only when no id got any answer.
func (im *Importer) Import(ctx context.Context, imdbIDs []string) ([]store.Movie, []string, error) {
	ids := dedupe(imdbIDs)
	if len(ids) == 0 {
		return []store.Movie{}, nil, nil
	}

	concurrency := im.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]importResult, len(ids))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = im.importOne(ctx, id)
		}(i, id)
	}
	wg.Wait()

	imported := []store.Movie{}
	var failed []string
	var firstErr error
	anyAnswer := false
	for i, r := range results {
		if r.err == nil {
			imported = append(imported, r.movie)
			anyAnswer = true
			if r.created {
				im.Events.Publish(events.SubjectMovieImported, map[string]any{
					"movie_id": r.movie.ID,
					"imdb_id":  r.movie.IMDBID,
					"title":    r.movie.Title,
				})
			}
			continue
		}
		failed = append(failed, ids[i])
		if r.resolved {
			anyAnswer = true
		}
		if firstErr == nil {
			firstErr = r.err
		}
		im.Log.Warn("import failed", zap.String("imdb_id", ids[i]), zap.Error(r.err))
	}

	if !anyAnswer {
		return nil, failed, fmt.Errorf("%w: %v", ErrProviderUnavailable, firstErr)
	}
	return imported, failed, nil
}

func (im *Importer) importOne(ctx context.Context, imdbID string) importResult {
	// Reuse the existing identity when the id was imported before.
	if m, err := im.Movies.GetMovieByIMDBID(ctx, imdbID); err == nil {
		return importResult{movie: m, resolved: true}
	} else if !errors.Is(err, store.ErrNotFound) {
		return importResult{err: err}
	}

	t, err := im.Provider.GetTitle(ctx, imdbID)
	if err != nil {
		return importResult{err: err, resolved: errors.Is(err, imdb.ErrNotFound)}
	}

	m, err := im.Movies.CreateMovie(ctx, movieInputFromTitle(imdbID, t))
	if errors.Is(err, store.ErrConflict) {
		// Lost a race against a concurrent import of the same id; the
		// winner's record is the one to reuse.
		m, err = im.Movies.GetMovieByIMDBID(ctx, imdbID)
		if err != nil {
			return importResult{err: err, resolved: true}
		}
		return importResult{movie: m, resolved: true}
	}
	if err != nil {
		return importResult{err: err, resolved: true}
	}
	return importResult{movie: m, created: true, resolved: true}
}

func movieInputFromTitle(imdbID string, t *imdb.Title) store.MovieInput {
	in := store.MovieInput{
		Title:    t.BestTitle(),
		Genre:    strings.Join(t.Genres, ", "),
		Director: t.DirectorNames(),
		Plot:     t.Plot,
		IMDBID:   imdbID,
	}
	if t.StartYear != 0 {
		y := int(t.StartYear)
		in.Year = &y
	}
	if t.PrimaryImage != nil {
		in.Poster = t.PrimaryImage.URL
	}
	if t.Rating != nil && t.Rating.AggregateRating > 0 {
		r := t.Rating.AggregateRating
		in.IMDBRating = &r
	}
	return in
}

// dedupe keeps first occurrences, preserving request order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
