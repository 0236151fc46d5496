// Package engine runs the fixed SentinelWatch rule set against a
// single event, generalized from the teacher library's
// engine.GeoGuard.Validate loop (run every rule, skip failures,
// collect results) to support windowed correlation over event and
// alert history instead of a single last-record lookup.
package engine

import (
	"context"
	"fmt"

	"github.com/arjunmehta/sentinelwatch/internal/logging"
	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/rules"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

// Engine evaluates an ordered set of rules against each event it is
// given, isolating failures per spec.md §4.4/§7: a rule that errors or
// panics yields nothing for that event, and every other rule still
// runs.
type Engine struct {
	rules    []rules.Rule
	settings rules.Settings
}

// New creates an Engine running ruleset (use rules.Default() for the
// standard five) against the given correlation settings.
func New(ruleset []rules.Rule, settings rules.Settings) *Engine {
	return &Engine{rules: ruleset, settings: settings}
}

// Detect runs every rule in order against event, using events and
// alerts for correlation queries, and returns the alert specs of every
// rule that fired.
func (en *Engine) Detect(ctx context.Context, event models.Event, events store.EventStore, alerts store.AlertStore) []models.AlertSpec {
	var specs []models.AlertSpec

	for _, rule := range en.rules {
		spec := en.runRule(ctx, rule, event, events, alerts)
		if spec != nil {
			specs = append(specs, *spec)
		}
	}

	return specs
}

// runRule isolates a single rule's panic or error so one misbehaving
// rule can't stop the rest of the engine from running.
func (en *Engine) runRule(ctx context.Context, rule rules.Rule, event models.Event, events store.EventStore, alerts store.AlertStore) (spec *models.AlertSpec) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get().Error().
				Str("rule", rule.Name()).
				Interface("panic", r).
				Msg("detection rule panicked; skipping")
			spec = nil
		}
	}()

	result, err := rule.Evaluate(ctx, event, events, alerts, en.settings)
	if err != nil {
		logging.Get().Error().
			Err(fmt.Errorf("rule %s: %w", rule.Name(), err)).
			Str("rule", rule.Name()).
			Msg("detection rule failed; skipping")
		return nil
	}
	return result
}
