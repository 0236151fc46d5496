package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/arjunmehta/sentinelwatch/pkg/geoloc"
	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

const (
	impossibleTravelLookback    = time.Hour
	impossibleTravelMinDistance = 1000.0 // km
	impossibleTravelMaxSpeed    = 800.0  // km/h, commercial aircraft cruise speed
)

// ImpossibleTravel detects a successful login whose location is
// farther from the user's last successful login than could plausibly
// be traveled in the elapsed time. Grounded on
// original_source/api/app/detection/rules.py's
// ImpossibleTravelDetectionRule, and in spirit on the teacher
// library's VelocityRule (haversine distance / elapsed hours vs. a
// max speed).
type ImpossibleTravel struct{}

func (ImpossibleTravel) Name() string             { return "impossible_travel" }
func (ImpossibleTravel) Severity() models.Severity { return models.SeverityCritical }

func (ImpossibleTravel) Evaluate(ctx context.Context, e models.Event, events store.EventStore, alerts store.AlertStore, cfg Settings) (*models.AlertSpec, error) {
	if e.Status != string(models.StatusSuccess) || e.EventType != string(models.EventTypeLogin) {
		return nil, nil
	}
	if e.Username == "" || e.SourceIP == "" {
		return nil, nil
	}
	if !e.HasLocation {
		return nil, nil
	}

	windowStart := e.Timestamp.Add(-impossibleTravelLookback)

	previous, found, err := events.MostRecentEvent(ctx, models.EventFilter{
		Username:  e.Username,
		Status:    string(models.StatusSuccess),
		EventType: string(models.EventTypeLogin),
		From:      windowStart,
		To:        e.Timestamp.Add(-time.Nanosecond),
	})
	if err != nil {
		return nil, fmt.Errorf("impossible_travel: previous login query: %w", err)
	}
	if !found || previous.SourceIP == e.SourceIP || !previous.HasLocation {
		return nil, nil
	}

	distance := geoloc.Haversine(previous.Latitude, previous.Longitude, e.Latitude, e.Longitude)
	hoursDiff := e.Timestamp.Sub(previous.Timestamp).Hours()
	minRequiredHours := distance / impossibleTravelMaxSpeed

	if distance < impossibleTravelMinDistance || hoursDiff >= minRequiredHours {
		return nil, nil
	}

	existing, err := alerts.FindUnresolvedSince(ctx, models.AlertFilter{
		RuleName:       "impossible_travel",
		Username:       e.Username,
		TriggeredAfter: windowStart,
	})
	if err != nil {
		return nil, fmt.Errorf("impossible_travel: dedup query: %w", err)
	}
	if len(existing) > 0 {
		return nil, nil
	}

	return &models.AlertSpec{
		RuleName: "impossible_travel",
		Severity: models.SeverityCritical,
		Description: fmt.Sprintf(
			"Impossible travel detected for user %s. Login from %s (%s) to %s (%s) covering %.0f km in %.2f hours.",
			e.Username, previous.SourceIP, previous.CountryCode, e.SourceIP, e.CountryCode, distance, hoursDiff,
		),
		Context: map[string]any{
			"username":           e.Username,
			"previous_ip":        previous.SourceIP,
			"previous_location":  fmt.Sprintf("%s (%v, %v)", previous.CountryCode, previous.Latitude, previous.Longitude),
			"current_ip":         e.SourceIP,
			"current_location":   fmt.Sprintf("%s (%v, %v)", e.CountryCode, e.Latitude, e.Longitude),
			"distance_km":        round2(distance),
			"time_hours":         round2(hoursDiff),
			"previous_timestamp": previous.Timestamp.Format(time.RFC3339),
		},
	}, nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
