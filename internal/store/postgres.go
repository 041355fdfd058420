package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production implementation. The imdb_id uniqueness
// invariant and the delete cascade both live in the schema, so every
// mutation is atomic with respect to them.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS movies (
	id          UUID PRIMARY KEY,
	title       TEXT NOT NULL,
	year        INT,
	genre       TEXT NOT NULL DEFAULT '',
	director    TEXT NOT NULL DEFAULT '',
	plot        TEXT NOT NULL DEFAULT '',
	poster      TEXT NOT NULL DEFAULT '',
	imdb_id     TEXT,
	imdb_rating DOUBLE PRECISION,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS movies_imdb_id_key
	ON movies (imdb_id) WHERE imdb_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS lists (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS list_movies (
	list_id  UUID NOT NULL REFERENCES lists(id)  ON DELETE CASCADE,
	movie_id UUID NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
	added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (list_id, movie_id)
);`

// EnsureSchema creates the tables if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// ── Movies ─────────────────────────────────────────────────────────────────

const movieColumns = `id, title, year, genre, director, plot, poster, imdb_id, imdb_rating, created_at`

func scanMovie(row pgx.Row) (Movie, error) {
	var m Movie
	var imdbID *string
	err := row.Scan(&m.ID, &m.Title, &m.Year, &m.Genre, &m.Director, &m.Plot,
		&m.Poster, &imdbID, &m.IMDBRating, &m.CreatedAt)
	if err != nil {
		return Movie{}, err
	}
	if imdbID != nil {
		m.IMDBID = *imdbID
	}
	return m, nil
}

func (s *PostgresStore) ListMovies(ctx context.Context) ([]Movie, error) {
	rows, err := s.db.Query(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var out []Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetMovie(ctx context.Context, id string) (Movie, error) {
	m, err := scanMovie(s.db.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies WHERE id=$1`, id))
	if err != nil {
		if notFound(err) {
			return Movie{}, fmt.Errorf("movie %s: %w", id, ErrNotFound)
		}
		return Movie{}, fmt.Errorf("get movie: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetMovieByIMDBID(ctx context.Context, imdbID string) (Movie, error) {
	if imdbID == "" {
		return Movie{}, fmt.Errorf("empty imdb_id: %w", ErrNotFound)
	}
	m, err := scanMovie(s.db.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies WHERE imdb_id=$1`, imdbID))
	if err != nil {
		if notFound(err) {
			return Movie{}, fmt.Errorf("imdb_id %s: %w", imdbID, ErrNotFound)
		}
		return Movie{}, fmt.Errorf("get movie by imdb_id: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) CreateMovie(ctx context.Context, in MovieInput) (Movie, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Movie{}, fmt.Errorf("%w: title is required", ErrValidation)
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
	}
	err := s.db.QueryRow(ctx, `
INSERT INTO movies (id, title, year, genre, director, plot, poster, imdb_id, imdb_rating)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING created_at`,
		m.ID, m.Title, m.Year, m.Genre, m.Director, m.Plot, m.Poster, textOrNull(m.IMDBID), m.IMDBRating,
	).Scan(&m.CreatedAt)
	if err != nil {
		if pgCode(err) == "23505" {
			return Movie{}, fmt.Errorf("%w: %s", ErrConflict, in.IMDBID)
		}
		return Movie{}, fmt.Errorf("create movie: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) UpdateMovie(ctx context.Context, id string, upd MovieUpdate) (Movie, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Movie{}, fmt.Errorf("update movie: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	m, err := scanMovie(tx.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if notFound(err) {
			return Movie{}, fmt.Errorf("movie %s: %w", id, ErrNotFound)
		}
		return Movie{}, fmt.Errorf("update movie: %w", err)
	}

	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return Movie{}, fmt.Errorf("%w: title is required", ErrValidation)
		}
		m.Title = *upd.Title
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
	if upd.IMDBID != nil {
		m.IMDBID = *upd.IMDBID
	}
	if upd.IMDBRating != nil {
		m.IMDBRating = upd.IMDBRating
	}

	_, err = tx.Exec(ctx, `
UPDATE movies SET title=$2, year=$3, genre=$4, director=$5, plot=$6, poster=$7, imdb_id=$8, imdb_rating=$9
WHERE id=$1`,
		m.ID, m.Title, m.Year, m.Genre, m.Director, m.Plot, m.Poster, textOrNull(m.IMDBID), m.IMDBRating)
	if err != nil {
		if pgCode(err) == "23505" {
			return Movie{}, fmt.Errorf("%w: %s", ErrConflict, m.IMDBID)
		}
		return Movie{}, fmt.Errorf("update movie: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Movie{}, fmt.Errorf("update movie: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) DeleteMovie(ctx context.Context, id string) error {
	// Membership rows go with the movie via the FK cascade.
	tag, err := s.db.Exec(ctx, `DELETE FROM movies WHERE id=$1`, id)
	if err != nil {
		if pgCode(err) == "22P02" {
			return fmt.Errorf("movie %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movie %s: %w", id, ErrNotFound)
	}
	return nil
}

// ── Lists ──────────────────────────────────────────────────────────────────

func (s *PostgresStore) ListLists(ctx context.Context) ([]List, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description, created_at FROM lists ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	var out []List
	for rows.Next() {
		var l List
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ids, err := s.memberIDs(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].MovieIDs = ids
	}
	return out, nil
}

func (s *PostgresStore) GetList(ctx context.Context, id string) (List, error) {
	var l List
	err := s.db.QueryRow(ctx, `SELECT id, name, description, created_at FROM lists WHERE id=$1`, id).
		Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt)
	if err != nil {
		if notFound(err) {
			return List{}, fmt.Errorf("list %s: %w", id, ErrNotFound)
		}
		return List{}, fmt.Errorf("get list: %w", err)
	}
	ids, err := s.memberIDs(ctx, id)
	if err != nil {
		return List{}, err
	}
	l.MovieIDs = ids
	return l, nil
}

func (s *PostgresStore) CreateList(ctx context.Context, in ListInput) (List, error) {
	if strings.TrimSpace(in.Name) == "" {
		return List{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	l := List{ID: uuid.NewString(), Name: in.Name, Description: in.Description, MovieIDs: []string{}}
	err := s.db.QueryRow(ctx, `
INSERT INTO lists (id, name, description) VALUES ($1,$2,$3) RETURNING created_at`,
		l.ID, l.Name, l.Description).Scan(&l.CreatedAt)
	if err != nil {
		return List{}, fmt.Errorf("create list: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) UpdateList(ctx context.Context, id string, upd ListUpdate) (List, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return List{}, fmt.Errorf("update list: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var l List
	err = tx.QueryRow(ctx, `SELECT id, name, description, created_at FROM lists WHERE id=$1 FOR UPDATE`, id).
		Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt)
	if err != nil {
		if notFound(err) {
			return List{}, fmt.Errorf("list %s: %w", id, ErrNotFound)
		}
		return List{}, fmt.Errorf("update list: %w", err)
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
	if _, err := tx.Exec(ctx, `UPDATE lists SET name=$2, description=$3 WHERE id=$1`, l.ID, l.Name, l.Description); err != nil {
		return List{}, fmt.Errorf("update list: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return List{}, fmt.Errorf("update list: %w", err)
	}
	ids, err := s.memberIDs(ctx, id)
	if err != nil {
		return List{}, err
	}
	l.MovieIDs = ids
	return l, nil
}

func (s *PostgresStore) DeleteList(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM lists WHERE id=$1`, id)
	if err != nil {
		if pgCode(err) == "22P02" {
			return fmt.Errorf("list %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("list %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) AddListMovie(ctx context.Context, listID, movieID string) (List, error) {
	// ON CONFLICT DO NOTHING gives the idempotent re-add; the FKs reject
	// a missing list or movie in the same statement.
	_, err := s.db.Exec(ctx, `
INSERT INTO list_movies (list_id, movie_id) VALUES ($1,$2)
ON CONFLICT (list_id, movie_id) DO NOTHING`, listID, movieID)
	if err != nil {
		if code := pgCode(err); code == "23503" || code == "22P02" {
			return List{}, fmt.Errorf("list %s or movie %s: %w", listID, movieID, ErrNotFound)
		}
		return List{}, fmt.Errorf("add list movie: %w", err)
	}
	return s.GetList(ctx, listID)
}

func (s *PostgresStore) RemoveListMovie(ctx context.Context, listID, movieID string) (List, error) {
	// Deleting an absent membership row is the idempotent no-op; only a
	// missing list is an error.
	if _, err := s.GetList(ctx, listID); err != nil {
		return List{}, err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM list_movies WHERE list_id=$1 AND movie_id=$2`, listID, movieID); err != nil {
		return List{}, fmt.Errorf("remove list movie: %w", err)
	}
	return s.GetList(ctx, listID)
}

func (s *PostgresStore) ListMoviesInList(ctx context.Context, listID string) ([]Movie, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM lists WHERE id=$1)`, listID).Scan(&exists); err != nil {
		if pgCode(err) == "22P02" {
			return nil, fmt.Errorf("list %s: %w", listID, ErrNotFound)
		}
		return nil, fmt.Errorf("members of list: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}

	rows, err := s.db.Query(ctx, `
SELECT m.id, m.title, m.year, m.genre, m.director, m.plot, m.poster, m.imdb_id, m.imdb_rating, m.created_at
FROM movies m
JOIN list_movies lm ON lm.movie_id = m.id
WHERE lm.list_id = $1
ORDER BY lm.added_at, m.id`, listID)
	if err != nil {
		return nil, fmt.Errorf("members of list: %w", err)
	}
	defer rows.Close()

	var out []Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) memberIDs(ctx context.Context, listID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT movie_id FROM list_movies WHERE list_id=$1 ORDER BY added_at, movie_id`, listID)
	if err != nil {
		return nil, fmt.Errorf("member ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func textOrNull(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// notFound treats both a missing row and a malformed uuid in the path as
// a not-found condition; callers pass ids straight from the URL.
func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || pgCode(err) == "22P02"
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
