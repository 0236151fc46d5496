// Package store defines the persistence boundary for events and
// alerts. Implementations range from an in-memory map (pkg/store/memstore,
// for tests and small deployments) to a Postgres-backed store
// (pkg/store/sqlstore). The detection engine and alert manager only
// ever see these interfaces.
package store

import (
	"context"
	"errors"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
)

// ErrNotFound is returned by Get-style lookups that miss.
var ErrNotFound = errors.New("store: not found")

// EventStore appends normalized events and answers the windowed
// queries the detection rules need.
type EventStore interface {
	// AppendEvent inserts e and returns it with its assigned ID. The
	// insert must be visible to subsequent calls within the same
	// batch/transaction (spec requirement: the triggering event
	// itself counts toward its own brute-force window).
	AppendEvent(ctx context.Context, e models.Event) (models.Event, error)

	// CountEvents returns the number of events matching filter.
	CountEvents(ctx context.Context, filter models.EventFilter) (int, error)

	// FindEvents returns events matching filter, ordered by timestamp
	// descending, most recent first.
	FindEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error)

	// MostRecentEvent returns the single most recent event matching
	// filter, or ok=false if none match.
	MostRecentEvent(ctx context.Context, filter models.EventFilter) (models.Event, bool, error)

	// GetEvent looks up a single event by ID. Returns ErrNotFound if
	// it does not exist.
	GetEvent(ctx context.Context, id int64) (models.Event, error)

	// TotalEventCount returns the total number of stored events,
	// used by the dashboard stats endpoint.
	TotalEventCount(ctx context.Context) (int, error)
}

// AlertStore appends alerts, supports the dedup/correlation queries
// the rules need, and mutates lifecycle fields.
type AlertStore interface {
	// AppendAlert inserts a and returns it with its assigned ID.
	AppendAlert(ctx context.Context, a models.Alert) (models.Alert, error)

	// FindUnresolvedSince returns unresolved alerts matching filter
	// whose TriggeredAt is at or after filter.TriggeredAfter. Used by
	// every rule's dedup check.
	FindUnresolvedSince(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error)

	// FindAlerts returns alerts matching filter, ordered by
	// TriggeredAt descending.
	FindAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error)

	// GetAlertByAlertID looks up a single alert by its external
	// opaque ID. Returns ErrNotFound if it does not exist.
	GetAlertByAlertID(ctx context.Context, alertID string) (models.Alert, error)

	// UpdateAlert persists the full current state of a (acknowledge/
	// resolve/notes transitions go through here).
	UpdateAlert(ctx context.Context, a models.Alert) error

	// CountUnresolvedBySeverity returns a map of severity to the
	// number of unresolved alerts with that severity, plus a "total"
	// key holding their sum.
	CountUnresolvedBySeverity(ctx context.Context) (map[string]int, error)
}
