// Package rules implements the fixed SIEM detection rule set: brute
// force, impossible travel, off-hours login, privilege escalation, and
// blacklisted IP. Each rule is a value satisfying the Rule interface
// below, generalized from the teacher library's Rule/EphemeralGeoRule
// split — here every rule may consult event and alert history, since
// SIEM correlation (unlike the teacher's single-last-record model)
// needs full windowed queries.
package rules

import (
	"context"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

// Settings carries the subset of configuration the rule set needs to
// evaluate. It is a narrow view so pkg/rules never imports the
// top-level config package.
type Settings struct {
	BusinessHoursStart      int
	BusinessHoursEnd        int
	BruteForceThreshold     int
	BruteForceWindowMinutes int
	Blacklist               map[string]bool
}

// Rule is the contract every detection rule satisfies. Evaluate
// returns a nil spec when the rule does not fire, and must never
// panic across a batch — the engine recovers from rule panics, but a
// well-behaved rule reports failure as an error instead.
type Rule interface {
	// Name is the stable rule_name stored on any alert this rule
	// raises.
	Name() string

	// Severity is the fixed severity this rule raises alerts at.
	Severity() models.Severity

	// Evaluate inspects event against its event/alert history and
	// returns an AlertSpec if the rule fires, or nil if it doesn't.
	Evaluate(ctx context.Context, event models.Event, events store.EventStore, alerts store.AlertStore, cfg Settings) (*models.AlertSpec, error)
}

// Default returns the fixed, ordered rule set spec.md requires: brute
// force, impossible travel, off-hours, privilege escalation,
// blacklisted IP. The engine runs rules in exactly this order.
func Default() []Rule {
	return []Rule{
		BruteForce{},
		ImpossibleTravel{},
		OffHours{},
		PrivilegeEscalation{},
		BlacklistedIP{},
	}
}
