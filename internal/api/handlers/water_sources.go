// Package handlers contains the HTTP handler implementations for the Blue
// Waters API. Each handler declares the narrow service interface it needs and
// mounts its routes through RegisterRoutes.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bluewaters/internal/core"
	"bluewaters/internal/types"
)

// WaterSourceStore is the read-only data the water-source endpoints serve.
// store.Store satisfies it.
type WaterSourceStore interface {
	ListWaterSources(ctx context.Context) ([]types.WaterSource, error)
	GetWaterSource(ctx context.Context, id string) (*types.WaterSource, error)
	ListHistoricalData(ctx context.Context) ([]types.HistoricalData, error)
	GetQualityPrediction(ctx context.Context, sourceID string) (*types.QualityPrediction, error)
}

// WaterSourceHandler serves sources, their history and quality predictions.
type WaterSourceHandler struct {
	store  WaterSourceStore
	logger *slog.Logger
}

// NewWaterSourceHandler creates a new WaterSourceHandler.
func NewWaterSourceHandler(store WaterSourceStore, logger *slog.Logger) *WaterSourceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WaterSourceHandler{store: store, logger: logger}
}

// RegisterRoutes mounts the water-source endpoints onto the mux.
func (h *WaterSourceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/water-sources", h.HandleList)
	r.Get("/water-source/{sourceID}", h.HandleGet)
	r.Get("/historical-data", h.HandleHistoricalData)
	r.Get("/quality-predictions/{sourceID}", h.HandlePrediction)
}

// HandleList handles GET /water-sources.
func (h *WaterSourceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListWaterSources(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, sources)
}

// HandleGet handles GET /water-source/{sourceID}. Unknown ids are 404.
func (h *WaterSourceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	src, err := h.store.GetWaterSource(r.Context(), chi.URLParam(r, "sourceID"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, src)
}

// HandleHistoricalData handles GET /historical-data.
func (h *WaterSourceHandler) HandleHistoricalData(w http.ResponseWriter, r *http.Request) {
	history, err := h.store.ListHistoricalData(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, history)
}

// HandlePrediction handles GET /quality-predictions/{sourceID}.
func (h *WaterSourceHandler) HandlePrediction(w http.ResponseWriter, r *http.Request) {
	prediction, err := h.store.GetQualityPrediction(r.Context(), chi.URLParam(r, "sourceID"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, prediction)
}
