package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is the development and test implementation. A single
// RWMutex guards movies and lists together so a movie delete and its
// membership cascade are observed atomically.
type InMemoryStore struct {
	mu     sync.RWMutex
	movies map[string]Movie
	lists  map[string]List
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		movies: make(map[string]Movie),
		lists:  make(map[string]List),
	}
}

// ── Movies ─────────────────────────────────────────────────────────────────

func (s *InMemoryStore) ListMovies(_ context.Context) ([]Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m)
	}
	sortMovies(out)
	return out, nil
}

func (s *InMemoryStore) GetMovie(_ context.Context, id string) (Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movies[id]
	if !ok {
		return Movie{}, fmt.Errorf("movie %s: %w", id, ErrNotFound)
	}
	return m, nil
}

func (s *InMemoryStore) GetMovieByIMDBID(_ context.Context, imdbID string) (Movie, error) {
	if imdbID == "" {
		return Movie{}, fmt.Errorf("empty imdb_id: %w", ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.movies {
		if m.IMDBID == imdbID {
			return m, nil
		}
	}
	return Movie{}, fmt.Errorf("imdb_id %s: %w", imdbID, ErrNotFound)
}

func (s *InMemoryStore) CreateMovie(_ context.Context, in MovieInput) (Movie, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Movie{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.IMDBID != "" {
		for _, m := range s.movies {
			if m.IMDBID == in.IMDBID {
				return Movie{}, fmt.Errorf("%w: %s", ErrConflict, in.IMDBID)
			}
		}
	}

	m := Movie{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Year:       in.Year,
		Genre:      in.Genre,
		Director:   in.Director,
		Plot:       in.Plot,
		Poster:     in.Poster,
		IMDBID:     in.IMDBID,
		IMDBRating: in.IMDBRating,
		CreatedAt:  time.Now().UTC(),
	}
	s.movies[m.ID] = m
	return m, nil
}

func (s *InMemoryStore) UpdateMovie(_ context.Context, id string, upd MovieUpdate) (Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.movies[id]
	if !ok {
		return Movie{}, fmt.Errorf("movie %s: %w", id, ErrNotFound)
	}

	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return Movie{}, fmt.Errorf("%w: title is required", ErrValidation)
		}
		m.Title = *upd.Title
	}
	if upd.IMDBID != nil && *upd.IMDBID != "" && *upd.IMDBID != m.IMDBID {
		for _, other := range s.movies {
			if other.ID != id && other.IMDBID == *upd.IMDBID {
				return Movie{}, fmt.Errorf("%w: %s", ErrConflict, *upd.IMDBID)
			}
		}
	}
	if upd.IMDBID != nil {
		m.IMDBID = *upd.IMDBID
	}
	if upd.Year != nil {
		m.Year = upd.Year
	}
	if upd.Genre != nil {
		m.Genre = *upd.Genre
	}
	if upd.Director != nil {
		m.Director = *upd.Director
	}
	if upd.Plot != nil {
		m.Plot = *upd.Plot
	}
	if upd.Poster != nil {
		m.Poster = *upd.Poster
	}
	if upd.IMDBRating != nil {
		m.IMDBRating = upd.IMDBRating
	}

	s.movies[id] = m
	return m, nil
}

func (s *InMemoryStore) DeleteMovie(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movies[id]; !ok {
		return fmt.Errorf("movie %s: %w", id, ErrNotFound)
	}
	delete(s.movies, id)

	// Cascade: prune the id from every list's membership.
	for lid, l := range s.lists {
		for i, mid := range l.MovieIDs {
			if mid == id {
				l.MovieIDs = append(l.MovieIDs[:i:i], l.MovieIDs[i+1:]...)
				s.lists[lid] = l
				break
			}
		}
	}
	return nil
}

// ── Lists ──────────────────────────────────────────────────────────────────

func (s *InMemoryStore) ListLists(_ context.Context) ([]List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]List, 0, len(s.lists))
	for _, l := range s.lists {
		out = append(out, cloneList(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryStore) GetList(_ context.Context, id string) (List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lists[id]
	if !ok {
		return List{}, fmt.Errorf("list %s: %w", id, ErrNotFound)
	}
	return cloneList(l), nil
}

func (s *InMemoryStore) CreateList(_ context.Context, in ListInput) (List, error) {
	if strings.TrimSpace(in.Name) == "" {
		return List{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := List{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		MovieIDs:    []string{},
		CreatedAt:   time.Now().UTC(),
	}
	s.lists[l.ID] = l
	return cloneList(l), nil
}

func (s *InMemoryStore) UpdateList(_ context.Context, id string, upd ListUpdate) (List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[id]
	if !ok {
		return List{}, fmt.Errorf("list %s: %w", id, ErrNotFound)
	}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return List{}, fmt.Errorf("%w: name is required", ErrValidation)
		}
		l.Name = *upd.Name
	}
	if upd.Description != nil {
		l.Description = *upd.Description
	}
	s.lists[id] = l
	return cloneList(l), nil
}

func (s *InMemoryStore) DeleteList(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[id]; !ok {
		return fmt.Errorf("list %s: %w", id, ErrNotFound)
	}
	delete(s.lists, id)
	return nil
}

func (s *InMemoryStore) AddListMovie(_ context.Context, listID, movieID string) (List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listID]
	if !ok {
		return List{}, fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	if _, ok := s.movies[movieID]; !ok {
		return List{}, fmt.Errorf("movie %s: %w", movieID, ErrNotFound)
	}
	for _, mid := range l.MovieIDs {
		if mid == movieID {
			return cloneList(l), nil
		}
	}
	l.MovieIDs = append(l.MovieIDs, movieID)
	s.lists[listID] = l
	return cloneList(l), nil
}

func (s *InMemoryStore) RemoveListMovie(_ context.Context, listID, movieID string) (List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listID]
	if !ok {
		return List{}, fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	for i, mid := range l.MovieIDs {
		if mid == movieID {
			l.MovieIDs = append(l.MovieIDs[:i:i], l.MovieIDs[i+1:]...)
			s.lists[listID] = l
			break
		}
	}
	return cloneList(l), nil
}

func (s *InMemoryStore) ListMoviesInList(_ context.Context, listID string) ([]Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lists[listID]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}
	out := make([]Movie, 0, len(l.MovieIDs))
	for _, mid := range l.MovieIDs {
		if m, ok := s.movies[mid]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func sortMovies(movies []Movie) {
	sort.Slice(movies, func(i, j int) bool {
		if !movies[i].CreatedAt.Equal(movies[j].CreatedAt) {
			return movies[i].CreatedAt.Before(movies[j].CreatedAt)
		}
		return movies[i].ID < movies[j].ID
	})
}

// cloneList copies the membership slice so callers cannot mutate store state.
func cloneList(l List) List {
	ids := make([]string, len(l.MovieIDs))
	copy(ids, l.MovieIDs)
	l.MovieIDs = ids
	return l
}
