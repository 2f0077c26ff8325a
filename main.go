package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/debemdeboas/draftdesk/internal/config"
	"github.com/debemdeboas/draftdesk/internal/db"
	"github.com/debemdeboas/draftdesk/internal/logger"
	"github.com/debemdeboas/draftdesk/internal/repository"
	"github.com/debemdeboas/draftdesk/internal/server"
	"github.com/debemdeboas/draftdesk/internal/sse"
	"github.com/debemdeboas/draftdesk/internal/util/compression"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	if err := config.LoadConfig(config.Path()); err != nil {
		bootLogger := logger.New("info")
		bootLogger.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg := config.AppConfig

	log := logger.New(cfg.Logging.Level)
	config.SetLogger(log)
	db.SetLogger(log)
	repository.SetLogger(log)
	server.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer closeStore()

	repo := repository.NewPosts(store)
	if err := repo.Init(ctx); err != nil {
		log.Fatal().Stack().Err(err).Msg(config.ErrInitializingPosts)
	}

	srv := server.New(repo, sse.NewSSEClients(), cfg.Server)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.Info().Str("addr", httpServer.Addr).Str("storage", cfg.Storage.Driver).Msg("Listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// newStore opens the configured storage driver. The returned close function
// is never nil.
func newStore(ctx context.Context, cfg config.StorageConfig) (repository.Store, func(), error) {
	noop := func() {}

	compressor, err := compression.New(cfg.Compression)
	if err != nil {
		return nil, noop, err
	}

	switch cfg.Driver {
	case "memory":
		return repository.NewMemoryStore(), noop, nil
	case "sqlite":
		sqlite := db.NewSQLite(cfg.SQLitePath)
		if err := sqlite.InitDB(); err != nil {
			sqlite.Close()
			return nil, noop, errors.Wrapf(err, "opening %s", cfg.SQLitePath)
		}
		return repository.NewDBStore(sqlite, compressor), func() { sqlite.Close() }, nil
	case "s3":
		store, err := repository.NewS3Store(ctx, cfg.S3,
			os.Getenv(config.EnvS3AccessKeyID), os.Getenv(config.EnvS3SecretAccessKey), compressor)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return nil, noop, errors.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
