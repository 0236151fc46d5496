package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

// escalationKeywords are checked case-insensitively against the raw
// log when the event type itself isn't already a privilege-related
// one. Order matches original_source's keyword list so the reported
// "matching keyword" is deterministic.
var escalationKeywords = []string{
	"sudo", "su", "admin", "root", "elevate", "privilege", "runas", "impersonate", "escalate",
}

var escalationEventTypes = map[string]bool{
	string(models.EventTypePrivilegeEscalation): true,
	string(models.EventTypeAdminAccess):         true,
	string(models.EventTypeSudo):                true,
	string(models.EventTypeSu):                  true,
}

// PrivilegeEscalation detects privilege escalation or admin access,
// either by event type (unconditional, no dedup) or by a keyword
// match in the raw log (30-minute dedup window keyed by username).
// Grounded on
// original_source/api/app/detection/rules.py's PrivilegeEscalationDetectionRule.
type PrivilegeEscalation struct{}

func (PrivilegeEscalation) Name() string             { return "privilege_escalation" }
func (PrivilegeEscalation) Severity() models.Severity { return models.SeverityHigh }

func (PrivilegeEscalation) Evaluate(ctx context.Context, e models.Event, events store.EventStore, alerts store.AlertStore, cfg Settings) (*models.AlertSpec, error) {
	if escalationEventTypes[e.EventType] {
		return &models.AlertSpec{
			RuleName:    "privilege_escalation",
			Severity:    models.SeverityHigh,
			Description: fmt.Sprintf("Privilege escalation attempt detected for user %s from %s", e.Username, e.SourceIP),
			Context: map[string]any{
				"username":   e.Username,
				"source_ip":  e.SourceIP,
				"event_type": e.EventType,
				"status":     e.Status,
				"raw_log":    truncate(e.RawLog, 500),
			},
		}, nil
	}

	if e.RawLog == "" {
		return nil, nil
	}
	lower := strings.ToLower(e.RawLog)

	for _, keyword := range escalationKeywords {
		if !strings.Contains(lower, keyword) {
			continue
		}

		windowStart := e.Timestamp.Add(-30 * time.Minute)
		existing, err := alerts.FindUnresolvedSince(ctx, models.AlertFilter{
			RuleName:       "privilege_escalation",
			Username:       e.Username,
			TriggeredAfter: windowStart,
		})
		if err != nil {
			return nil, fmt.Errorf("privilege_escalation: dedup query: %w", err)
		}
		if len(existing) > 0 {
			return nil, nil
		}

		return &models.AlertSpec{
			RuleName: "privilege_escalation",
			Severity: models.SeverityHigh,
			Description: fmt.Sprintf(
				"Potential privilege escalation detected for user %s from %s. Keyword: %s",
				e.Username, e.SourceIP, keyword,
			),
			Context: map[string]any{
				"username":   e.Username,
				"source_ip":  e.SourceIP,
				"keyword":    keyword,
				"event_type": e.EventType,
				"status":     e.Status,
				"raw_log":    truncate(e.RawLog, 500),
			},
		}, nil
	}

	return nil, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
