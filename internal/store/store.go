// Package store holds the read-only water-quality dataset served by the API.
// It is decoded once at startup from the JSON fixtures embedded in the binary
// and never modified afterwards, so it is safe for concurrent readers.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"bluewaters/internal/types"
)

//go:embed fixtures/*.json
var embeddedFixtures embed.FS

const (
	waterSourcesFile       = "fixtures/water_sources.json"
	historicalDataFile     = "fixtures/historical_data.json"
	qualityPredictionsFile = "fixtures/quality_predictions.json"
)

// Store is the in-memory dataset. Returned slices are copies of the top-level
// lists; nested metric and disease slices are shared and must be treated as
// read-only by callers.
type Store struct {
	sources     []types.WaterSource
	byID        map[string]int
	historical  []types.HistoricalData
	predictions map[string]types.QualityPrediction
}

// Load decodes the embedded fixtures.
func Load(logger *slog.Logger) (*Store, error) {
	return LoadFS(embeddedFixtures, logger)
}

// LoadFS decodes fixtures from fsys, which must contain the three files under
// fixtures/. Any decode or consistency failure is an
// internal_fixture_corruption AppError.
func LoadFS(fsys fs.FS, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{}
	if err := decodeFile(fsys, waterSourcesFile, &s.sources); err != nil {
		return nil, err
	}
	if err := decodeFile(fsys, historicalDataFile, &s.historical); err != nil {
		return nil, err
	}
	if err := decodeFile(fsys, qualityPredictionsFile, &s.predictions); err != nil {
		return nil, err
	}
	if err := s.index(logger); err != nil {
		return nil, err
	}

	logger.Info("water-quality dataset loaded",
		"sources", len(s.sources),
		"series", len(s.historical),
		"predictions", len(s.predictions),
	)
	return s, nil
}

func decodeFile(fsys fs.FS, name string, dst any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalFixture, fmt.Sprintf("reading %s", name), err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return types.NewAppError(types.ErrCodeInternalFixture, fmt.Sprintf("decoding %s", name), err)
	}
	return nil
}

// index builds the id lookup. Unknown status or risk values are kept (the
// classifier ignores them) but logged.
func (s *Store) index(logger *slog.Logger) error {
	s.byID = make(map[string]int, len(s.sources))
	for i, src := range s.sources {
		if src.ID == "" {
			return fixtureError("water source at index %d has no id", i)
		}
		if _, dup := s.byID[src.ID]; dup {
			return fixtureError("duplicate water source id %q", src.ID)
		}
		s.byID[src.ID] = i

		for _, m := range src.Metrics {
			if !m.Status.Valid() {
				logger.Warn("metric has unknown status", "source_id", src.ID, "metric_id", m.ID, "status", m.Status)
			}
		}
		for _, d := range src.Diseases {
			if !d.RiskLevel.Valid() {
				logger.Warn("disease has unknown risk level", "source_id", src.ID, "disease_id", d.ID, "risk_level", d.RiskLevel)
			}
		}
	}
	if s.predictions == nil {
		s.predictions = map[string]types.QualityPrediction{}
	}
	return nil
}

func fixtureError(format string, args ...any) error {
	return types.NewAppError(types.ErrCodeInternalFixture, fmt.Sprintf(format, args...), nil)
}

// ListWaterSources returns every source in fixture order.
func (s *Store) ListWaterSources(_ context.Context) ([]types.WaterSource, error) {
	return slices.Clone(s.sources), nil
}

// GetWaterSource returns the source with the given id or a
// not_found_water_source AppError.
func (s *Store) GetWaterSource(_ context.Context, id string) (*types.WaterSource, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundWaterSource, "Water source not found", nil)
	}
	src := s.sources[i]
	return &src, nil
}

// ListHistoricalData returns every historical series in fixture order.
func (s *Store) ListHistoricalData(_ context.Context) ([]types.HistoricalData, error) {
	return slices.Clone(s.historical), nil
}

// GetQualityPrediction returns the prediction keyed by source id or a
// not_found_prediction AppError.
func (s *Store) GetQualityPrediction(_ context.Context, sourceID string) (*types.QualityPrediction, error) {
	p, ok := s.predictions[sourceID]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundPrediction, "Prediction not found", nil)
	}
	return &p, nil
}

// Loaded reports whether the dataset holds at least one source. It backs the
// store health probe.
func (s *Store) Loaded() bool {
	return s != nil && len(s.sources) > 0
}
