// Package alerts manages the lifecycle of alerts produced by the
// detection engine: creation, acknowledgement, resolution, notes, and
// severity statistics. Grounded on
// original_source/api/app/alerting/alert_manager.py.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
	"github.com/arjunmehta/sentinelwatch/pkg/timeutil"
)

// Manager creates and mutates alerts against a backing AlertStore.
type Manager struct {
	alerts store.AlertStore
}

// New returns a Manager backed by the given AlertStore.
func New(alertStore store.AlertStore) *Manager {
	return &Manager{alerts: alertStore}
}

// Create persists a new alert from an AlertSpec produced by a
// detection rule, optionally tying it to the log entry that triggered
// it. When event is non-nil, source_ip, username and log_entry_id are
// always taken from it; an AlertSpec carries no values of its own for
// them.
func (m *Manager) Create(ctx context.Context, spec models.AlertSpec, event *models.Event) (models.Alert, error) {
	var contextJSON string
	if len(spec.Context) > 0 {
		raw, err := json.Marshal(spec.Context)
		if err != nil {
			return models.Alert{}, fmt.Errorf("alerts: marshal context: %w", err)
		}
		contextJSON = string(raw)
	}

	alert := models.Alert{
		AlertID:     timeutil.GenerateAlertID(),
		RuleName:    spec.RuleName,
		Severity:    string(spec.Severity),
		Description: spec.Description,
		Context:     contextJSON,
		TriggeredAt: time.Now().UTC(),
	}

	if event != nil {
		alert.SourceIP = event.SourceIP
		alert.Username = event.Username
		id := event.ID
		alert.LogEntryID = &id
	}

	return m.alerts.AppendAlert(ctx, alert)
}

// List returns alerts matching filter, most recent first.
func (m *Manager) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	return m.alerts.FindAlerts(ctx, filter)
}

// Get returns a single alert by its public alert ID.
func (m *Manager) Get(ctx context.Context, alertID string) (models.Alert, error) {
	return m.alerts.GetAlertByAlertID(ctx, alertID)
}

// Acknowledge marks an alert acknowledged by analyst. It is idempotent:
// acknowledging an already-acknowledged alert leaves its original
// acknowledged_by/acknowledged_at untouched.
func (m *Manager) Acknowledge(ctx context.Context, alertID string, analyst string) (models.Alert, error) {
	alert, err := m.alerts.GetAlertByAlertID(ctx, alertID)
	if err != nil {
		return models.Alert{}, err
	}

	if alert.Acknowledged {
		return alert, nil
	}

	if analyst == "" {
		analyst = "System"
	}
	now := time.Now().UTC()
	alert.Acknowledged = true
	alert.AcknowledgedBy = analyst
	alert.AcknowledgedAt = &now

	if err := m.alerts.UpdateAlert(ctx, alert); err != nil {
		return models.Alert{}, err
	}
	return alert, nil
}

// Resolve marks an alert resolved by analyst, acknowledging it first
// if it wasn't already. It is idempotent: resolving an already-resolved
// alert leaves its original resolved_by/resolved_at untouched.
func (m *Manager) Resolve(ctx context.Context, alertID string, analyst string) (models.Alert, error) {
	alert, err := m.alerts.GetAlertByAlertID(ctx, alertID)
	if err != nil {
		return models.Alert{}, err
	}

	if alert.Resolved {
		return alert, nil
	}

	if analyst == "" {
		analyst = "System"
	}
	now := time.Now().UTC()

	if !alert.Acknowledged {
		alert.Acknowledged = true
		alert.AcknowledgedBy = analyst
		alert.AcknowledgedAt = &now
	}

	alert.Resolved = true
	alert.ResolvedBy = analyst
	alert.ResolvedAt = &now

	if err := m.alerts.UpdateAlert(ctx, alert); err != nil {
		return models.Alert{}, err
	}
	return alert, nil
}

// SetNotes overwrites the free-text analyst notes on an alert.
func (m *Manager) SetNotes(ctx context.Context, alertID string, notes string) (models.Alert, error) {
	alert, err := m.alerts.GetAlertByAlertID(ctx, alertID)
	if err != nil {
		return models.Alert{}, err
	}

	alert.Notes = notes
	if err := m.alerts.UpdateAlert(ctx, alert); err != nil {
		return models.Alert{}, err
	}
	return alert, nil
}

// Statistics returns the count of unresolved alerts per severity, plus
// a "total" key summing all of them.
func (m *Manager) Statistics(ctx context.Context) (map[string]int, error) {
	counts, err := m.alerts.CountUnresolvedBySeverity(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{
		string(models.SeverityCritical): 0,
		string(models.SeverityHigh):     0,
		string(models.SeverityMedium):   0,
		string(models.SeverityLow):      0,
		"total":                         0,
	}
	for severity, count := range counts {
		if severity == "total" {
			continue
		}
		if _, known := stats[severity]; !known {
			continue
		}
		stats[severity] = count
		stats["total"] += count
	}
	return stats, nil
}
