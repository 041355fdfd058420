package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/movie-catalog/internal/config"
	"github.com/example/movie-catalog/internal/events"
	"github.com/example/movie-catalog/internal/handlers"
	"github.com/example/movie-catalog/internal/imdb"
	"github.com/example/movie-catalog/internal/importer"
	"github.com/example/movie-catalog/internal/media"
	pconfig "github.com/example/movie-catalog/internal/platform/config"
	"github.com/example/movie-catalog/internal/platform/db"
	"github.com/example/movie-catalog/internal/platform/httpserver"
	"github.com/example/movie-catalog/internal/platform/logging"
	"github.com/example/movie-catalog/internal/platform/natsconn"
	"github.com/example/movie-catalog/internal/platform/run"
	"github.com/example/movie-catalog/internal/store"
)

func main() {
	appCfg := pconfig.Load()
	svcCfg := config.Load()

	log, err := logging.New(appCfg.LogLevel, appCfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	st, pool := initStore(log, appCfg.IsProduction())
	if pool != nil {
		defer pool.Close()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "imdb",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit-breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	imdbClient := imdb.New(svcCfg.IMDB.BaseURL, imdb.ClientConfig{
		Timeout:    svcCfg.IMDB.Timeout,
		MaxRetries: svcCfg.IMDB.MaxRetries,
	}, imdb.WithCircuitBreaker(cb), imdb.WithLogger(log))

	// Catalog events are best-effort: the service runs fine without NATS.
	pub := events.New(nil, log)
	nc, err := natsconn.Connect(natsconn.Options{})
	if err != nil {
		log.Warn("nats unavailable, catalog events disabled", zap.Error(err))
	} else {
		defer nc.Close()
		js, err := nc.JetStream()
		if err != nil {
			log.Warn("jetstream unavailable, catalog events disabled", zap.Error(err))
		} else {
			pub = events.New(js, log)
		}
	}

	imp := importer.New(st, imdbClient, log)
	imp.Events = pub
	imp.Concurrency = svcCfg.ImportConcurrency

	var mediaCache media.Cache
	if svcCfg.RedisURL != "" {
		rc, err := media.NewRedisCache(svcCfg.RedisURL, svcCfg.MediaCacheTTL)
		if err != nil {
			log.Warn("redis unavailable, media cache disabled", zap.Error(err))
		} else {
			mediaCache = rc
		}
	}
	resolver := media.NewResolver(imdbClient, mediaCache, log)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: func() error {
		if pool == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	}})

	r.Get("/v1/movies", handlers.ListMovies(st))
	r.Post("/v1/movies", handlers.CreateMovie(st, pub))
	r.Get("/v1/movies/{movie_id}", handlers.GetMovie(st))
	r.Put("/v1/movies/{movie_id}", handlers.UpdateMovie(st, pub))
	r.Delete("/v1/movies/{movie_id}", handlers.DeleteMovie(st, pub))

	r.Get("/v1/lists", handlers.ListLists(st))
	r.Post("/v1/lists", handlers.CreateList(st, pub))
	r.Get("/v1/lists/{list_id}", handlers.GetList(st))
	r.Put("/v1/lists/{list_id}", handlers.UpdateList(st, pub))
	r.Delete("/v1/lists/{list_id}", handlers.DeleteList(st, pub))
	r.Get("/v1/lists/{list_id}/movies", handlers.ListMoviesInList(st))
	r.Post("/v1/lists/{list_id}/movies/{movie_id}", handlers.AddListMovie(st, pub))
	r.Delete("/v1/lists/{list_id}/movies/{movie_id}", handlers.RemoveListMovie(st, pub))

	r.Get("/v1/imdb/search", handlers.SearchIMDB(imp))
	r.Post("/v1/imdb/import", handlers.ImportIMDB(imp))
	r.Get("/v1/imdb/images/{imdb_id}", handlers.ListIMDBImages(resolver))
	r.Get("/v1/imdb/videos/{imdb_id}", handlers.ListIMDBVideos(resolver))

	srv := httpserver.New(httpserver.Options{Addr: appCfg.HTTP.Addr, ServiceName: appCfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStore selects the catalog store backend. In production
// (APP_ENV=production) it requires a working Postgres connection and
// terminates the process otherwise.
func initStore(log *zap.Logger, isProd bool) (store.Store, *pgxpool.Pool) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		if isProd {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory catalog store (development only)")
		return store.NewInMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Open(ctx)
	if err != nil {
		if isProd {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory catalog store", zap.Error(err))
		return store.NewInMemoryStore(), nil
	}

	pg := store.NewPostgresStore(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		if isProd {
			log.Error("schema setup failed in production", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("schema setup failed, falling back to in-memory catalog store", zap.Error(err))
		return store.NewInMemoryStore(), nil
	}

	log.Info("catalog store: postgres")
	return pg, pool
}
