package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bluewaters/internal/alerts"
	"bluewaters/internal/core"
)

// AlertAggregator runs one aggregation pass. alerts.Aggregator satisfies it.
type AlertAggregator interface {
	Aggregate(ctx context.Context) (*alerts.Report, error)
}

// AlertHandler serves the live alert feed.
type AlertHandler struct {
	aggregator AlertAggregator
	logger     *slog.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(aggregator AlertAggregator, logger *slog.Logger) *AlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertHandler{aggregator: aggregator, logger: logger}
}

// RegisterRoutes mounts GET /alerts.
func (h *AlertHandler) RegisterRoutes(r chi.Router) {
	r.Get("/alerts", h.HandleList)
}

// HandleList handles GET /alerts. Alerts are computed on every call; the
// request blocks until every advisory call has completed. When entries were
// dropped under the skip policy the count is reported in X-Alerts-Degraded.
func (h *AlertHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	report, err := h.aggregator.Aggregate(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if report.Degraded > 0 {
		w.Header().Set(core.AlertsDegradedHeader, strconv.Itoa(report.Degraded))
	}
	core.JSON(w, r, http.StatusOK, report.Alerts)
}
