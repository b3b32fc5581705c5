package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spielapi/internal/config"
	"spielapi/internal/platform/logger"
	"spielapi/internal/platform/tracing"
	"spielapi/internal/spiel"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("server stopped", "error", err)
		log.Sync()
		os.Exit(1)
	}
	log.Info("server stopped")
	log.Sync()
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, cfg.OtelEnabled, "spielapi", os.Stdout, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if cfg.SeedOnStart {
		n, err := spiel.Seed(ctx, a.repo)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Info("seeded spiele", "count", n)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      a.router(ctx),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		a.spiele.Wait()
		return err
	})
	return g.Wait()
}
