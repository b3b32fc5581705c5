package main

import (
	"context"
	"net/http"
	"time"

	"spielapi/internal/auth"
	"spielapi/internal/httpx"
	"spielapi/internal/media"
	"spielapi/internal/spiel"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// router builds the HTTP surface. ctx bounds the rate limiter janitor.
func (a *app) router(ctx context.Context) http.Handler {
	spiele := spiel.NewHTTPHandler(a.spiele)
	files := media.NewHTTPHandler(a.media)
	login := auth.NewHTTPHandler(a.auth)

	r := chi.NewRouter()
	r.Use(httpx.RequestIDMiddleware)
	r.Use(chimw.RealIP)
	r.Use(httpx.AccessLogMiddleware(a.log))
	r.Use(httpx.RecoveryMiddleware(a.log))
	r.Use(httpx.SecurityHeadersMiddleware(a.cfg.EnableHSTS))
	r.Use(httpx.CORSMiddleware(a.cfg.CORSOrigins))
	r.Use(httpx.RequestSizeLimitMiddleware(a.cfg.MaxBodyBytes))
	r.Use(httpx.NewRateLimitMiddleware(ctx, a.cfg.RateLimitRPS, a.cfg.RateLimitBurst).Middleware)
	r.Use(chimw.Compress(5))
	r.Use(httpx.MetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := a.ready(ctx); err != nil {
			a.log.Warn("not ready", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", httpx.MetricsHandler())

	authn := httpx.AuthMiddleware(a.cfg.JWTSecret, a.blacklist)
	writers := httpx.RequireRoles(auth.RoleAdmin, auth.RoleMitarbeiter)

	r.Post("/login", login.Login)
	r.With(authn).Post("/logout", login.Logout)

	r.Route("/spiele", func(r chi.Router) {
		r.Get("/", spiele.List)
		r.Get("/{id}", spiele.Get)
		r.Get("/{id}/media", files.Download)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.With(writers, httpx.RequireJSON).Post("/", spiele.Create)
			r.With(writers, httpx.RequireJSON).Put("/{id}", spiele.Update)
			r.With(httpx.RequireRoles(auth.RoleAdmin)).Delete("/{id}", spiele.Delete)
			r.With(writers).Put("/{id}/media", files.Upload)
		})
	})

	return r
}
