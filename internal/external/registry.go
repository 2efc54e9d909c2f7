package external

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"bluewaters/internal/config"
)

// ErrAdvisorCircuitOpen is reported by CheckAdvisor while either watsonx
// circuit breaker (token exchange or chat) is open.
var ErrAdvisorCircuitOpen = errors.New("advisory circuit breaker open")

// ClientRegistry holds the external service clients. It is the single point
// of access for the rest of the application to third-party services.
type ClientRegistry struct {
	Advisor Advisor

	// watsonx is nil in stub mode.
	watsonx *WatsonxClient
}

// RegistryOption is a functional option for configuring a ClientRegistry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	advisoryMetrics AdvisoryMetrics
}

// WithAdvisoryMetrics reports every token exchange and completion to m.
// Ignored in stub mode.
func WithAdvisoryMetrics(m AdvisoryMetrics) RegistryOption {
	return func(rc *registryConfig) {
		rc.advisoryMetrics = m
	}
}

// NewClientRegistry initializes the external clients. With ADVISORY_STUB set
// the registry holds a StubAdvisor that needs no credentials; otherwise it
// builds the watsonx client with the configured timeouts.
func NewClientRegistry(cfg *config.Config, logger *slog.Logger, opts ...RegistryOption) *ClientRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	rc := &registryConfig{}
	for _, opt := range opts {
		opt(rc)
	}

	if cfg.Advisory.Stub {
		logger.Warn("initializing external clients in STUB mode",
			"environment", cfg.Environment,
		)
		return &ClientRegistry{Advisor: NewStubAdvisor(logger.With("mode", "stub"))}
	}

	logger.Info("initializing external clients",
		"environment", cfg.Environment,
		"model_id", cfg.Advisory.ModelID,
	)
	wx := NewWatsonxClient(WatsonxConfig{
		APIKey:              cfg.Advisory.APIKey,
		ProjectID:           cfg.Advisory.ProjectID,
		BaseURL:             cfg.Advisory.BaseURL,
		IAMURL:              cfg.Advisory.IAMURL,
		ModelID:             cfg.Advisory.ModelID,
		APIVersion:          cfg.Advisory.APIVersion,
		MaxTokens:           cfg.Advisory.MaxTokens,
		Temperature:         cfg.Advisory.Temperature,
		TimeLimit:           cfg.Advisory.TimeLimit,
		TokenConnectTimeout: cfg.Advisory.TokenConnectTimeout,
		TokenReadTimeout:    cfg.Advisory.TokenReadTimeout,
		CompletionTimeout:   cfg.Advisory.CompletionTimeout,
		Logger:              logger.With("client", "watsonx"),
		Metrics:             rc.advisoryMetrics,
	})
	return &ClientRegistry{Advisor: wx, watsonx: wx}
}

// CheckAdvisor is a health probe: it fails while a watsonx breaker is open.
// The stub advisor is always healthy.
func (r *ClientRegistry) CheckAdvisor(_ context.Context) error {
	if r.watsonx != nil && r.watsonx.BreakerState() == gobreaker.StateOpen {
		return ErrAdvisorCircuitOpen
	}
	return nil
}
