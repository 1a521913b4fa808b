package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alexherrero/tradekeeper/config"
	"github.com/alexherrero/tradekeeper/cycle"
	"github.com/alexherrero/tradekeeper/notifications"
)

// Handler holds the dependencies the control-plane routes need.
// orchestrator and cfg are required; a nil notifier simply makes
// the notification routes report 501, mirroring the teacher's
// not-yet-wired-subsystem handling.
type Handler struct {
	orchestrator *cycle.Orchestrator
	notifier     *notifications.Manager
	cfg          *config.Config
	startTime    time.Time
}

// NewHandler builds the control-plane handler set.
func NewHandler(orchestrator *cycle.Orchestrator, notifier *notifications.Manager, cfg *config.Config) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		notifier:     notifier,
		cfg:          cfg,
		startTime:    time.Now(),
	}
}

// HealthHandler reports liveness and uptime. It never touches the
// exchange or the store: a trade manager wedged on a slow venue
// response should still answer /healthz so an operator can tell the
// process is alive and decide whether to restart it.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

// TriggerSignalsHandler runs one CheckStrategySignals cycle on demand,
// useful for operators and integration tests that don't want to wait
// for the scheduler's cadence.
func (h *Handler) TriggerSignalsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.orchestrator.CheckStrategySignals(r.Context()); err != nil {
		log.Error().Err(err).Msg("manual check_strategy_signals failed")
		writeError(w, http.StatusInternalServerError, "check_strategy_signals failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// TriggerReconcileHandler runs one UpdateRunningTrades cycle on demand.
func (h *Handler) TriggerReconcileHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.orchestrator.UpdateRunningTrades(r.Context()); err != nil {
		log.Error().Err(err).Msg("manual update_running_trades failed")
		writeError(w, http.StatusInternalServerError, "update_running_trades failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// NotificationsHandler reads back the notification feed, newest first.
func (h *Handler) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	if h.notifier == nil {
		writeError(w, http.StatusNotImplemented, "notification feed not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	notifs, err := h.notifier.History(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notifications: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, notifs)
}

// ReloadConfigHandler re-reads the hot-reloadable subset of config
// from the environment (see config.Config.Reload).
func (h *Handler) ReloadConfigHandler(w http.ResponseWriter, r *http.Request) {
	applied, restartRequired, err := h.cfg.Reload()
	if err != nil {
		writeError(w, http.StatusBadRequest, "reload failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applied":          applied,
		"restart_required": restartRequired,
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}
