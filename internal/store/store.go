package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by every store implementation. Handlers map them
// onto the HTTP error envelope.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("imdb_id already in catalog")
	ErrValidation = errors.New("invalid input")
)

// Movie is a locally-owned catalog record. IMDBID, when present, is the
// join key to the external metadata provider and unique across the catalog.
type Movie struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Year       *int      `json:"year,omitempty"`
	Genre      string    `json:"genre,omitempty"`
	Director   string    `json:"director,omitempty"`
	Plot       string    `json:"plot,omitempty"`
	Poster     string    `json:"poster,omitempty"`
	IMDBID     string    `json:"imdb_id,omitempty"`
	IMDBRating *float64  `json:"imdb_rating,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MovieInput carries caller-supplied fields for a new movie.
type MovieInput struct {
	Title      string
	Year       *int
	Genre      string
	Director   string
	Plot       string
	Poster     string
	IMDBID     string
	IMDBRating *float64
}

// MovieUpdate is a partial update; nil fields are left unchanged.
type MovieUpdate struct {
	Title      *string
	Year       *int
	Genre      *string
	Director   *string
	Plot       *string
	Poster     *string
	IMDBID     *string
	IMDBRating *float64
}

// List is a user-named collection of movie ids. Membership is a set;
// the slice order carries no semantics beyond display.
type List struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MovieIDs    []string  `json:"movie_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListInput struct {
	Name        string
	Description string
}

type ListUpdate struct {
	Name        *string
	Description *string
}

// MovieStore owns the catalog of Movie records.
type MovieStore interface {
	ListMovies(ctx context.Context) ([]Movie, error)
	GetMovie(ctx context.Context, id string) (Movie, error)
	GetMovieByIMDBID(ctx context.Context, imdbID string) (Movie, error)
	CreateMovie(ctx context.Context, in MovieInput) (Movie, error)
	UpdateMovie(ctx context.Context, id string, upd MovieUpdate) (Movie, error)
	// DeleteMovie removes the record and its membership in every list.
	// The cascade is observed by any subsequent list read.
	DeleteMovie(ctx context.Context, id string) error
}

// ListStore owns List records and their movie membership.
type ListStore interface {
	ListLists(ctx context.Context) ([]List, error)
	GetList(ctx context.Context, id string) (List, error)
	CreateList(ctx context.Context, in ListInput) (List, error)
	UpdateList(ctx context.Context, id string, upd ListUpdate) (List, error)
	DeleteList(ctx context.Context, id string) error
	// AddListMovie is idempotent: re-adding a member is a no-op. Both the
	// list and the movie must exist.
	AddListMovie(ctx context.Context, listID, movieID string) (List, error)
	// RemoveListMovie is idempotent: removing an absent member is a no-op.
	RemoveListMovie(ctx context.Context, listID, movieID string) (List, error)
	ListMoviesInList(ctx context.Context, listID string) ([]Movie, error)
}

// Store is the full persistence contract for the catalog service.
type Store interface {
	MovieStore
	ListStore
}
