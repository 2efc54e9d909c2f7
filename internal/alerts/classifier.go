// Package alerts turns water-source readings into advisory-enriched alerts.
//
// The Classifier inspects one source: every metric in "danger" or "warning"
// status and every disease at "high" or "medium" risk yields exactly one
// alert, whose message embeds advice fetched from the Advisor. The
// Aggregator runs the Classifier over every source for a single request.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"bluewaters/internal/types"
)

// Advisor is the advisory capability the classifier depends on.
// external.WatsonxClient and external.StubAdvisor both satisfy it.
type Advisor interface {
	FetchAdvice(ctx context.Context, prompt string) (string, error)
}

// ClassifierConfig configures a Classifier. Zero values select the real
// clock, the abort policy and slog.Default().
type ClassifierConfig struct {
	Advisor Advisor
	Clock   types.Clock
	Policy  types.FailurePolicy
	Logger  *slog.Logger
	// NewID generates alert ids. Defaults to random UUIDs.
	NewID func() string
}

// Classifier derives alerts from a single water source.
type Classifier struct {
	advisor Advisor
	clock   types.Clock
	policy  types.FailurePolicy
	logger  *slog.Logger
	newID   func() string
}

// NewClassifier creates a Classifier.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	c := &Classifier{
		advisor: cfg.Advisor,
		clock:   cfg.Clock,
		policy:  cfg.Policy,
		logger:  cfg.Logger,
		newID:   cfg.NewID,
	}
	if c.clock == nil {
		c.clock = types.RealClock{}
	}
	if c.policy == "" {
		c.policy = types.FailurePolicyAbort
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	return c
}

// Policy returns the failure policy in effect.
func (c *Classifier) Policy() types.FailurePolicy {
	return c.policy
}

// Classify returns the alerts for src: metrics first, then diseases, each in
// stored order. Under the abort policy the first advisory failure discards
// everything produced for src and is returned. Under the skip policy the
// failing entry is dropped and classification continues.
func (c *Classifier) Classify(ctx context.Context, src types.WaterSource) ([]types.Alert, error) {
	alerts, _, err := c.classify(ctx, src)
	return alerts, err
}

// candidate is one qualifying metric or disease awaiting advice.
type candidate struct {
	level  types.AlertLevel
	name   string
	value  float64
	unit   string
	prompt string
	// render builds the alert message once advice is known.
	render func(advice string) string
}

// classify also reports how many entries were skipped.
func (c *Classifier) classify(ctx context.Context, src types.WaterSource) ([]types.Alert, int, error) {
	candidates := candidatesFor(src)
	if len(candidates) == 0 {
		return nil, 0, nil
	}

	alerts := make([]types.Alert, 0, len(candidates))
	skipped := 0
	for _, cand := range candidates {
		advice, err := c.advisor.FetchAdvice(ctx, cand.prompt)
		if err != nil {
			// Cancellation ends the pass regardless of policy.
			if ctx.Err() != nil || c.policy != types.FailurePolicySkip {
				return nil, skipped, err
			}
			skipped++
			c.logger.WarnContext(ctx, "advisory failed; alert skipped",
				"source", src.Name,
				"entry", cand.name,
				"level", cand.level,
				"error", err,
			)
			continue
		}
		alerts = append(alerts, c.newAlert(src, cand, advice))
	}
	return alerts, skipped, nil
}

// newAlert stamps id and timestamp exactly once.
func (c *Classifier) newAlert(src types.WaterSource, cand candidate, advice string) types.Alert {
	return types.Alert{
		ID:        c.newID(),
		Message:   cand.render(advice),
		Source:    src.Name,
		Level:     cand.level,
		Metric:    cand.name,
		Value:     cand.value,
		Unit:      cand.unit,
		Timestamp: c.clock.Now(),
	}
}

func candidatesFor(src types.WaterSource) []candidate {
	var out []candidate
	for _, m := range src.Metrics {
		if cand, ok := metricCandidate(src, m); ok {
			out = append(out, cand)
		}
	}
	for _, d := range src.Diseases {
		if cand, ok := diseaseCandidate(src, d); ok {
			out = append(out, cand)
		}
	}
	return out
}

func metricCandidate(src types.WaterSource, m types.Metric) (candidate, bool) {
	reading := formatReading(m.Value, m.Unit)
	safe := fmt.Sprintf("%s to %s", formatNumber(m.SafeRange[0]), formatReading(m.SafeRange[1], m.Unit))

	var level types.AlertLevel
	var prompt string
	switch m.Status {
	case types.MetricStatusDanger:
		level = types.AlertLevelCritical
		prompt = fmt.Sprintf(
			"The %s at %s (%s) is %s, outside the safe range of %s. "+
				"What immediate actions should operators take to protect people using this water?",
			m.Name, src.Name, src.Location, reading, safe)
	case types.MetricStatusWarning:
		level = types.AlertLevelWarning
		prompt = fmt.Sprintf(
			"The %s at %s (%s) is %s, close to the limit of the safe range of %s. "+
				"What preventive steps are recommended?",
			m.Name, src.Name, src.Location, reading, safe)
	default:
		return candidate{}, false
	}

	return candidate{
		level:  level,
		name:   m.Name,
		value:  m.Value,
		unit:   m.Unit,
		prompt: prompt,
		render: func(advice string) string {
			return fmt.Sprintf("%s %s at %s. %s", m.Name, levelWord(level), reading, advice)
		},
	}, true
}

func diseaseCandidate(src types.WaterSource, d types.Disease) (candidate, bool) {
	var level types.AlertLevel
	var prompt string
	var causes string
	if len(d.CausedBy) > 0 {
		causes = ", linked to " + strings.Join(d.CausedBy, ", ")
	}
	switch d.RiskLevel {
	case types.RiskHigh:
		level = types.AlertLevelCritical
		prompt = fmt.Sprintf(
			"There is a high risk of %s at %s (%s)%s. "+
				"What immediate health precautions should the community take?",
			d.Name, src.Name, src.Location, causes)
	case types.RiskMedium:
		level = types.AlertLevelWarning
		prompt = fmt.Sprintf(
			"There is a moderate risk of %s at %s (%s)%s. "+
				"What preventive measures are recommended?",
			d.Name, src.Name, src.Location, causes)
	default:
		return candidate{}, false
	}

	return candidate{
		level:  level,
		name:   d.Name,
		prompt: prompt,
		render: func(advice string) string {
			return fmt.Sprintf("%s risk is %s. %s", d.Name, d.RiskLevel, advice)
		},
	}, true
}

func levelWord(level types.AlertLevel) string {
	if level == types.AlertLevelCritical {
		return "critical"
	}
	return "elevated"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatReading(v float64, unit string) string {
	if unit == "" {
		return formatNumber(v)
	}
	return formatNumber(v) + " " + unit
}
