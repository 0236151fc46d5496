package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

// BlacklistedIP detects activity from a statically configured
// blacklist of IPv4 literals. Grounded on
// original_source/api/app/detection/rules.py's BlacklistIPDetectionRule.
type BlacklistedIP struct{}

func (BlacklistedIP) Name() string             { return "blacklisted_ip" }
func (BlacklistedIP) Severity() models.Severity { return models.SeverityCritical }

func (BlacklistedIP) Evaluate(ctx context.Context, e models.Event, events store.EventStore, alerts store.AlertStore, cfg Settings) (*models.AlertSpec, error) {
	if e.SourceIP == "" || !cfg.Blacklist[e.SourceIP] {
		return nil, nil
	}

	windowStart := e.Timestamp.Add(-time.Hour)
	existing, err := alerts.FindUnresolvedSince(ctx, models.AlertFilter{
		RuleName:       "blacklisted_ip",
		SourceIP:       e.SourceIP,
		TriggeredAfter: windowStart,
	})
	if err != nil {
		return nil, fmt.Errorf("blacklisted_ip: dedup query: %w", err)
	}
	if len(existing) > 0 {
		return nil, nil
	}

	return &models.AlertSpec{
		RuleName:    "blacklisted_ip",
		Severity:    models.SeverityCritical,
		Description: fmt.Sprintf("Activity detected from blacklisted IP address: %s", e.SourceIP),
		Context: map[string]any{
			"source_ip":    e.SourceIP,
			"username":     e.Username,
			"event_type":   e.EventType,
			"status":       e.Status,
			"country_code": e.CountryCode,
			"raw_log":      truncate(e.RawLog, 500),
		},
	}, nil
}
