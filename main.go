package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"vociary/ai"
	"vociary/archive"
	"vociary/auth"
	"vociary/config"
	"vociary/db"
	"vociary/handlers"
	appmw "vociary/middleware"
	"vociary/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	handler, cleanup, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("environment", cfg.Environment),
			zap.String("db_driver", cfg.DB.Driver),
			zap.String("ai_provider", cfg.AI.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setup opens and migrates the database and wires every component into an HTTP handler.
func setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (http.Handler, func(), error) {
	store, err := db.Open(ctx, cfg.DB.Driver, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	fail := func(err error) (http.Handler, func(), error) {
		_ = store.Close()
		return nil, nil, err
	}

	if err := store.Migrate(ctx, logger); err != nil {
		return fail(err)
	}
	tokens, err := auth.NewTokens(cfg.SecretKey, cfg.Algorithm, cfg.AccessTokenTTL)
	if err != nil {
		return fail(err)
	}
	transcriber, generator, err := ai.New(cfg.AI)
	if err != nil {
		return fail(err)
	}
	arc, err := archive.New(ctx, cfg.S3)
	if err != nil {
		return fail(err)
	}

	accounts := service.NewAccounts(store, tokens, logger)
	journal := service.NewJournal(store, transcriber, generator, arc, logger)
	h := handlers.New(accounts, journal, store, logger, cfg.MaxAudioBytes)

	return newRouter(cfg, logger, h), func() { _ = store.Close() }, nil
}

func newRouter(cfg *config.Config, logger *zap.Logger, h *handlers.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmw.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(appmw.CORS(cfg.AllowedOrigin()))
	h.Mount(r, cfg.APIPrefix())
	return r
}
