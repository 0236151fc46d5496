package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

// BruteForce detects repeated failed logins from the same source IP
// within a configured window, grounded on
// original_source/api/app/detection/rules.py's BruteForceDetectionRule.
type BruteForce struct{}

func (BruteForce) Name() string             { return "brute_force_login" }
func (BruteForce) Severity() models.Severity { return models.SeverityHigh }

func (BruteForce) Evaluate(ctx context.Context, e models.Event, events store.EventStore, alerts store.AlertStore, cfg Settings) (*models.AlertSpec, error) {
	if e.Status != string(models.StatusFailed) || e.EventType != string(models.EventTypeLogin) {
		return nil, nil
	}
	if e.SourceIP == "" {
		return nil, nil
	}

	window := time.Duration(cfg.BruteForceWindowMinutes) * time.Minute
	windowStart := e.Timestamp.Add(-window)

	count, err := events.CountEvents(ctx, models.EventFilter{
		SourceIP:  e.SourceIP,
		Status:    string(models.StatusFailed),
		EventType: string(models.EventTypeLogin),
		From:      windowStart,
		To:        e.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("brute_force_login: count events: %w", err)
	}
	if count < cfg.BruteForceThreshold {
		return nil, nil
	}

	existing, err := alerts.FindUnresolvedSince(ctx, models.AlertFilter{
		RuleName:       "brute_force_login",
		SourceIP:       e.SourceIP,
		TriggeredAfter: windowStart,
	})
	if err != nil {
		return nil, fmt.Errorf("brute_force_login: dedup query: %w", err)
	}
	if len(existing) > 0 {
		return nil, nil
	}

	affected := []string{}
	if e.Username != "" {
		affected = append(affected, e.Username)
	}

	return &models.AlertSpec{
		RuleName: "brute_force_login",
		Severity: models.SeverityHigh,
		Description: fmt.Sprintf(
			"Brute-force login attempt detected from %s. %d failed attempts in %d minutes.",
			e.SourceIP, count, cfg.BruteForceWindowMinutes,
		),
		Context: map[string]any{
			"source_ip":           e.SourceIP,
			"failed_attempts":     count,
			"time_window_minutes": cfg.BruteForceWindowMinutes,
			"affected_users":      affected,
		},
	}, nil
}
