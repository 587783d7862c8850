// Package handlers holds the HTTP handlers for the strategy API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/quantfold/ebbtide/internal/engine"
	"github.com/quantfold/ebbtide/internal/scheduler"
	"github.com/quantfold/ebbtide/internal/strategyconfig"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// StrategyHandler serves read-only views of the running strategy
type StrategyHandler struct {
	engine     *engine.Engine
	sched      *scheduler.Scheduler
	strategy   *strategyconfig.Config
	configHash string
	logger     *logger.Logger
}

// NewStrategyHandler creates the handler. sched may be nil when the process
// runs without the cron loop (replay).
func NewStrategyHandler(eng *engine.Engine, sched *scheduler.Scheduler, strategy *strategyconfig.Config, configHash string, log *logger.Logger) *StrategyHandler {
	return &StrategyHandler{
		engine:     eng,
		sched:      sched,
		strategy:   strategy,
		configHash: configHash,
		logger:     log,
	}
}

// GetSelection returns the pending long/short selection
func (h *StrategyHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	selection := h.engine.Selection()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"longs":  selection.Longs,
		"shorts": selection.Shorts,
	})
}

// GetUniverse returns the tracked universe snapshot
func (h *StrategyHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	universe := h.engine.Universe()
	if universe == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"members": []string{},
			"note":    "no refresh has run yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, universe)
}

// GetIndicators returns indicator registry statistics
func (h *StrategyHandler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.IndicatorStats())
}

// GetJobs returns scheduler job statistics
func (h *StrategyHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	writeJSON(w, http.StatusOK, h.sched.JobStats())
}

// GetConfig returns the strategy parameters and their hash
func (h *StrategyHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"config":      h.strategy,
		"config_hash": h.configHash,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
