package external

import (
	"context"
	"time"
)

// Advisor turns a natural-language prompt into recommendation text.
// WatsonxClient is the production implementation; StubAdvisor serves local
// development without credentials.
type Advisor interface {
	FetchAdvice(ctx context.Context, prompt string) (string, error)
}

// AdvisoryMetrics receives one observation per outbound advisory step.
// step is types.AdvisoryStepToken or types.AdvisoryStepCompletion; result is
// one of the types.Result* constants.
type AdvisoryMetrics interface {
	RecordAdvisoryCall(ctx context.Context, step, result string, duration time.Duration)
}

type nopAdvisoryMetrics struct{}

func (nopAdvisoryMetrics) RecordAdvisoryCall(context.Context, string, string, time.Duration) {}
