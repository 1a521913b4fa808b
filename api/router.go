package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/alexherrero/tradekeeper/config"
	"github.com/alexherrero/tradekeeper/cycle"
	"github.com/alexherrero/tradekeeper/notifications"
	"github.com/alexherrero/tradekeeper/realtime"
)

// NewRouter builds the control-plane router described in SPEC_FULL's
// supplemented features: health, manual cycle triggers, the
// notification feed, and (if wired) a websocket stream of the same
// notifications in real time.
func NewRouter(orchestrator *cycle.Orchestrator, notifier *notifications.Manager, cfg *config.Config, wsManager *realtime.WebSocketManager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(TraceMiddleware)
	r.Use(middleware.RealIP)
	r.Use(zerologLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Protects the manual-trigger endpoints from accidental hammering
	// by a misconfigured operator script; the trade loop itself is
	// never reachable fast enough to matter economically, but a tight
	// retry loop calling the HTTP trigger would otherwise thrash the
	// exchange rate limiter.
	r.Use(httprate.LimitByIP(30, 1*time.Minute))

	h := NewHandler(orchestrator, notifier, cfg)

	r.Get("/healthz", h.HealthHandler)

	if wsManager != nil {
		r.Get("/ws", wsManager.HandleWebSocket)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cycles", func(r chi.Router) {
			r.Post("/signals", h.TriggerSignalsHandler)
			r.Post("/reconcile", h.TriggerReconcileHandler)
		})
		r.Get("/notifications", h.NotificationsHandler)
		r.Post("/config/reload", h.ReloadConfigHandler)
		r.Post("/trades/{id}/force-sell", h.ForceSellHandler)
	})

	return r
}
