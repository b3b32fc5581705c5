package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"spielapi/internal/auth"
	"spielapi/internal/config"
	"spielapi/internal/media"
	"spielapi/internal/notify"
	"spielapi/internal/platform/logger"
	"spielapi/internal/spiel"

	"google.golang.org/api/option"
)

// app holds the wired components of the API process.
type app struct {
	cfg       config.Config
	log       *logger.Logger
	repo      spiel.Repository
	spiele    *spiel.Service
	media     *media.Service
	auth      *auth.Service
	blacklist auth.Blacklist
	checks    map[string]func(context.Context) error
	closers   []func() error
}

func buildApp(ctx context.Context, cfg config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, checks: map[string]func(context.Context) error{}}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	var (
		pg  *spiel.PostgresRepo
		err error
	)
	if cfg.UsePostgres() {
		pg, err = spiel.OpenPostgres(ctx, cfg.DBDSN, cfg.DBTimeout)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.repo = pg
		log.Info("using postgres store")
	} else {
		a.repo = spiel.NewMemoryRepo()
		log.Info("using in-memory store")
	}
	repo := a.repo
	a.closers = append(a.closers, func() error { repo.Close(); return nil })
	a.checks["store"] = repo.Ping

	var notifier spiel.Notifier = notify.NewLogNotifier(log)
	if cfg.MailEnabled {
		notifier = notify.NewMailer(cfg.MailHost, cfg.MailPort, cfg.MailFrom, log)
	}
	a.spiele = spiel.NewService(a.repo, notifier, cfg.MailTo, log)

	var store media.Store
	switch cfg.MediaBackend {
	case "postgres":
		if pg == nil {
			return nil, errors.New("media backend postgres requires DB_DSN")
		}
		store = media.NewPostgresStore(pg.Pool(), cfg.DBTimeout)
	case "gcs":
		var opts []option.ClientOption
		if os.Getenv("STORAGE_EMULATOR_HOST") != "" {
			opts = append(opts, option.WithoutAuthentication())
		}
		gcs, err := media.OpenGCS(ctx, cfg.MediaBucket, opts...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		store = gcs
	default:
		store = media.NewMemoryStore()
	}
	a.media = media.NewService(store, a.spiele, log)

	if cfg.RedisAddr != "" {
		rb, err := auth.OpenRedisBlacklist(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rb.Close)
		a.checks["redis"] = rb.Ping
		a.blacklist = rb
	} else if pg != nil {
		a.blacklist = auth.NewPostgresBlacklist(pg.Pool())
	} else {
		a.blacklist = auth.NewMemoryBlacklist()
	}

	users, err := auth.LoadUsers(cfg.UsersFile)
	if err != nil {
		return nil, err
	}
	log.Info("users loaded", "count", users.Len(), "file", cfg.UsersFile)
	a.auth = auth.NewService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, users, a.blacklist, log)

	ok = true
	return a, nil
}

// ready runs every readiness check.
func (a *app) ready(ctx context.Context) error {
	var errs []error
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
