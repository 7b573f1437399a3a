// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stagecms/stagecms/internal/middleware"
	"github.com/stagecms/stagecms/internal/preview"
)

// Routes assembles the full HTTP router: the content API, the preview
// WebSocket endpoint, and the health check. hub may be nil when the
// WebSocket transport is disabled; writeLimiter may be nil in tests.
func Routes(h *Handler, health *HealthHandler, hub *preview.Hub, writeLimiter *middleware.WriteRateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", health.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		if writeLimiter != nil {
			r.Use(writeLimiter.Middleware())
		}

		r.Route("/pages/{slug}", func(r chi.Router) {
			r.Get("/", h.GetPage)
			r.Get("/version", h.GetVersion)
			r.Get("/draft", h.GetDraft)
			r.Put("/draft", h.UpdateDraft)
			r.Put("/publish", h.PublishPage)
		})

		if hub != nil {
			r.Get("/preview/events", hub.ServeHTTP)
		}
	})

	return r
}
