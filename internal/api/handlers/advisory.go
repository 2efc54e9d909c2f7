package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bluewaters/internal/core"
	"bluewaters/internal/knowledge"
	"bluewaters/internal/types"
)

// Advisor answers a free-text prompt. external.WatsonxClient and
// external.StubAdvisor satisfy it.
type Advisor interface {
	FetchAdvice(ctx context.Context, prompt string) (string, error)
}

// advisoryQuery is the query string of the live advisory endpoints.
type advisoryQuery struct {
	Query string `query:"query" validate:"required"`
}

// AdvisoryHandler serves the live and simulated advisory agents.
type AdvisoryHandler struct {
	advisor      Advisor
	waterQuality knowledge.Table
	healthRisk   knowledge.Table
	validator    *core.Validator
	logger       *slog.Logger
}

// NewAdvisoryHandler creates a new AdvisoryHandler backed by the built-in
// canned answer tables.
func NewAdvisoryHandler(advisor Advisor, val *core.Validator, logger *slog.Logger) *AdvisoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if val == nil {
		val = core.NewValidator(logger)
	}
	return &AdvisoryHandler{
		advisor:      advisor,
		waterQuality: knowledge.WaterQuality,
		healthRisk:   knowledge.HealthRisk,
		validator:    val,
		logger:       logger,
	}
}

// RegisterRoutes mounts the advisory endpoints onto the mux.
func (h *AdvisoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/water-quality-agent", h.HandleWaterQualityAgent)
	r.Get("/health-risk-agent", h.HandleHealthRiskAgent)
	r.Get("/simulate-water-quality-agent", h.HandleSimulateWaterQuality)
	r.Get("/simulate-health-risk-agent", h.HandleSimulateHealthRisk)
}

// HandleWaterQualityAgent handles GET /water-quality-agent. The query is
// forwarded to the advisor verbatim.
func (h *AdvisoryHandler) HandleWaterQualityAgent(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, "water_quality")
}

// HandleHealthRiskAgent handles GET /health-risk-agent.
func (h *AdvisoryHandler) HandleHealthRiskAgent(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, "health_risk")
}

// HandleSimulateWaterQuality handles GET /simulate-water-quality-agent.
func (h *AdvisoryHandler) HandleSimulateWaterQuality(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, h.waterQuality)
}

// HandleSimulateHealthRisk handles GET /simulate-health-risk-agent.
func (h *AdvisoryHandler) HandleSimulateHealthRisk(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, h.healthRisk)
}

func (h *AdvisoryHandler) ask(w http.ResponseWriter, r *http.Request, agent string) {
	var q advisoryQuery
	if err := h.validator.BindQuery(r.URL.Query(), &q); err != nil {
		core.Error(w, r, err)
		return
	}

	logger := types.LoggerFromContext(r.Context(), h.logger)
	start := time.Now()
	answer, err := h.advisor.FetchAdvice(r.Context(), q.Query)
	if err != nil {
		logger.WarnContext(r.Context(), "advisory query failed", "agent", agent, "error", err)
		core.Error(w, r, err)
		return
	}
	logger.DebugContext(r.Context(), "advisory query answered",
		"agent", agent,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	core.JSON(w, r, http.StatusOK, types.AdvisoryResponse{Response: answer})
}

// lookup rejects only an absent query parameter. An empty value is a
// non-matching query and gets the fallback answer.
func (h *AdvisoryHandler) lookup(w http.ResponseWriter, r *http.Request, table knowledge.Table) {
	values := r.URL.Query()
	if !values.Has("query") {
		core.Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationMissingField,
			"query query parameter is required",
			nil,
			map[string]any{"field": "query"},
		))
		return
	}
	core.JSON(w, r, http.StatusOK, types.AdvisoryResponse{Response: table.Lookup(values.Get("query"))})
}
