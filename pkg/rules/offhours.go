package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
	"github.com/arjunmehta/sentinelwatch/pkg/timeutil"
)

// OffHours detects a successful login outside configured business
// hours on a weekday. Weekend logins never alert under this rule.
// Grounded on
// original_source/api/app/detection/rules.py's BusinessHoursDetectionRule.
type OffHours struct{}

func (OffHours) Name() string             { return "login_outside_business_hours" }
func (OffHours) Severity() models.Severity { return models.SeverityMedium }

func (OffHours) Evaluate(ctx context.Context, e models.Event, events store.EventStore, alerts store.AlertStore, cfg Settings) (*models.AlertSpec, error) {
	if e.Status != string(models.StatusSuccess) || e.EventType != string(models.EventTypeLogin) {
		return nil, nil
	}

	switch e.Timestamp.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return nil, nil
	}

	if timeutil.IsBusinessHours(e.Timestamp, cfg.BusinessHoursStart, cfg.BusinessHoursEnd) {
		return nil, nil
	}

	windowStart := e.Timestamp.Add(-time.Hour)
	existing, err := alerts.FindUnresolvedSince(ctx, models.AlertFilter{
		RuleName:       "login_outside_business_hours",
		Username:       e.Username,
		SourceIP:       e.SourceIP,
		TriggeredAfter: windowStart,
	})
	if err != nil {
		return nil, fmt.Errorf("login_outside_business_hours: dedup query: %w", err)
	}
	if len(existing) > 0 {
		return nil, nil
	}

	hour := e.Timestamp.UTC()
	return &models.AlertSpec{
		RuleName: "login_outside_business_hours",
		Severity: models.SeverityMedium,
		Description: fmt.Sprintf(
			"Login outside business hours detected for user %s from %s at %s (Business hours: %d:00 - %d:00).",
			e.Username, e.SourceIP, hour.Format("15:04"), cfg.BusinessHoursStart, cfg.BusinessHoursEnd,
		),
		Context: map[string]any{
			"username":       e.Username,
			"source_ip":      e.SourceIP,
			"login_time":     e.Timestamp.Format(time.RFC3339),
			"business_hours": fmt.Sprintf("%d:00 - %d:00", cfg.BusinessHoursStart, cfg.BusinessHoursEnd),
			"day_of_week":    hour.Weekday().String(),
		},
	}, nil
}
