package external

import (
	"context"
	"log/slog"
)

// StubAdvisor implements Advisor without network access. It is selected when
// ADVISORY_STUB is set so the dashboard can run offline.
type StubAdvisor struct {
	logger *slog.Logger
}

var _ Advisor = (*StubAdvisor)(nil)

// NewStubAdvisor creates a new StubAdvisor.
func NewStubAdvisor(logger *slog.Logger) *StubAdvisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubAdvisor{logger: logger}
}

// StubAdvice is the text every StubAdvisor call returns.
const StubAdvice = "Advisory service is running in stub mode. Retest the sample and follow local water authority guidance."

func (s *StubAdvisor) FetchAdvice(ctx context.Context, prompt string) (string, error) {
	s.logger.InfoContext(ctx, "stub: FetchAdvice called", "prompt_len", len(prompt))
	return StubAdvice, nil
}
