package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/salonbook/salonbook/internal/book"
	"github.com/salonbook/salonbook/internal/config"
	"github.com/salonbook/salonbook/internal/httpapi"
	"github.com/salonbook/salonbook/internal/service/catalog"
	"github.com/salonbook/salonbook/internal/storage/memory"
	pgstore "github.com/salonbook/salonbook/internal/storage/postgres"
	"github.com/salonbook/salonbook/internal/viewcache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local .env, if present. Real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	views := viewcache.New(cfg.ViewTTL)

	var handler http.Handler
	var closeFn func()

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		if cfg.DevSeed {
			seedCatalog(ctx, logger, catalog.New(pg, pg))
		}
		handler = httpapi.New(pg, pg, pg, pg, views, logger).Handler()
		logger.Info("storage backend: postgres")
	} else {
		store := memory.New()
		if cfg.DevSeed {
			seedCatalog(ctx, logger, catalog.New(store, store))
		}
		handler = httpapi.New(store, store, store, store, views, logger).Handler()
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("shop ledger service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedCatalog installs a small demo catalog so a fresh instance has
// something to record against. Skipped silently for rows that already exist.
func seedCatalog(ctx context.Context, logger *slog.Logger, svc *catalog.Service) {
	services := []catalog.ServiceInput{
		{Name: "Cut", UnitPrice: 30000, Color: "#ff8a65"},
		{Name: "Perm", UnitPrice: 80000, Color: "#4db6ac"},
		{Name: "Color", UnitPrice: 70000, Color: "#7986cb"},
	}
	ids := make([]uuid.UUID, 0, len(services))
	for _, in := range services {
		v, err := svc.CreateService(ctx, in)
		if err != nil {
			logger.Warn("dev seed: service skipped", "name", in.Name, "err", err)
			continue
		}
		ids = append(ids, v.ID)
	}
	for _, name := range []string{"Rent", "Supplies", "Utilities"} {
		if _, err := svc.CreateCategory(ctx, catalog.CategoryInput{Name: name}); err != nil {
			logger.Warn("dev seed: category skipped", "name", name, "err", err)
		}
	}
	logger.Info("dev seed installed", "services", len(ids), "today", book.DayOf(time.Now()))
}

func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
