// Package sqlstore implements store.EventStore and store.AlertStore
// against Postgres using sqlx over the pgx stdlib driver. It is
// deliberately thin: SQL dialect and connection-pool tuning are out
// of this project's core scope (spec §1), so this package exists only
// to give the store interfaces a real backing, not to own schema
// migrations or query optimization.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

// Schema is the DDL for the two tables this package reads and writes.
// It's exposed so a CLI migration step or a test harness can apply it
// directly; sqlstore itself never runs DDL.
const Schema = `
CREATE TABLE IF NOT EXISTS log_entries (
	id SERIAL PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL,
	source_ip TEXT NOT NULL DEFAULT '',
	username TEXT NOT NULL DEFAULT '',
	event_type TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	raw_log TEXT NOT NULL DEFAULT '',
	source_file TEXT NOT NULL DEFAULT '',
	has_location BOOLEAN NOT NULL DEFAULT FALSE,
	country_code TEXT NOT NULL DEFAULT '',
	latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS alerts (
	id SERIAL PRIMARY KEY,
	alert_id TEXT NOT NULL UNIQUE,
	rule_name TEXT NOT NULL,
	severity TEXT NOT NULL,
	description TEXT NOT NULL,
	context TEXT,
	source_ip TEXT NOT NULL DEFAULT '',
	username TEXT NOT NULL DEFAULT '',
	log_entry_id INTEGER REFERENCES log_entries(id),
	triggered_at TIMESTAMPTZ NOT NULL,
	acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
	acknowledged_by TEXT,
	acknowledged_at TIMESTAMPTZ,
	resolved BOOLEAN NOT NULL DEFAULT FALSE,
	resolved_by TEXT,
	resolved_at TIMESTAMPTZ,
	notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_log_entries_correlation ON log_entries (source_ip, username, event_type, status, timestamp);
CREATE INDEX IF NOT EXISTS idx_alerts_dedup ON alerts (rule_name, source_ip, username, triggered_at) WHERE NOT resolved;
`

// Store is a Postgres-backed store.EventStore + store.AlertStore.
type Store struct {
	db *sqlx.DB
}

// Open connects to databaseURL via the pgx stdlib driver and wraps
// the handle in sqlx.
func Open(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AppendEvent(ctx context.Context, e models.Event) (models.Event, error) {
	const q = `
		INSERT INTO log_entries
			(timestamp, source_ip, username, event_type, status, raw_log, source_file, has_location, country_code, latitude, longitude)
		VALUES (:timestamp, :source_ip, :username, :event_type, :status, :raw_log, :source_file, :has_location, :country_code, :latitude, :longitude)
		RETURNING id`

	rows, err := s.db.NamedQueryContext(ctx, q, e)
	if err != nil {
		return models.Event{}, fmt.Errorf("sqlstore: append event: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&e.ID); err != nil {
			return models.Event{}, fmt.Errorf("sqlstore: append event scan: %w", err)
		}
	}
	return e, nil
}

func (s *Store) CountEvents(ctx context.Context, filter models.EventFilter) (int, error) {
	query, args := buildEventQuery("SELECT COUNT(*) FROM log_entries", filter, false)
	var count int
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("sqlstore: count events: %w", err)
	}
	return count, nil
}

func (s *Store) FindEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	query, args := buildEventQuery("SELECT * FROM log_entries", filter, true)
	var events []models.Event
	if err := s.db.SelectContext(ctx, &events, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: find events: %w", err)
	}
	return events, nil
}

func (s *Store) MostRecentEvent(ctx context.Context, filter models.EventFilter) (models.Event, bool, error) {
	narrowed := filter
	narrowed.Limit = 1
	events, err := s.FindEvents(ctx, narrowed)
	if err != nil {
		return models.Event{}, false, err
	}
	if len(events) == 0 {
		return models.Event{}, false, nil
	}
	return events[0], true, nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	var e models.Event
	err := s.db.GetContext(ctx, &e, s.db.Rebind("SELECT * FROM log_entries WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, store.ErrNotFound
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("sqlstore: get event: %w", err)
	}
	return e, nil
}

func (s *Store) TotalEventCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM log_entries"); err != nil {
		return 0, fmt.Errorf("sqlstore: total event count: %w", err)
	}
	return count, nil
}

func buildEventQuery(base string, f models.EventFilter, ordered bool) (string, []any) {
	query := base + " WHERE 1=1"
	var args []any

	if f.SourceIP != "" {
		query += " AND source_ip = ?"
		args = append(args, f.SourceIP)
	}
	if f.Username != "" {
		query += " AND username = ?"
		args = append(args, f.Username)
	}
	if f.EventType != "" {
		query += " AND event_type = ?"
		args = append(args, f.EventType)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, f.To)
	}

	if ordered {
		query += " ORDER BY timestamp DESC"
		if f.Limit > 0 {
			query += " LIMIT ?"
			args = append(args, f.Limit)
		}
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	return query, args
}

func (s *Store) AppendAlert(ctx context.Context, a models.Alert) (models.Alert, error) {
	const q = `
		INSERT INTO alerts
			(alert_id, rule_name, severity, description, context, source_ip, username, log_entry_id,
			 triggered_at, acknowledged, acknowledged_by, acknowledged_at, resolved, resolved_by, resolved_at, notes)
		VALUES (:alert_id, :rule_name, :severity, :description, :context, :source_ip, :username, :log_entry_id,
			 :triggered_at, :acknowledged, :acknowledged_by, :acknowledged_at, :resolved, :resolved_by, :resolved_at, :notes)
		RETURNING id`

	rows, err := s.db.NamedQueryContext(ctx, q, a)
	if err != nil {
		return models.Alert{}, fmt.Errorf("sqlstore: append alert: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&a.ID); err != nil {
			return models.Alert{}, fmt.Errorf("sqlstore: append alert scan: %w", err)
		}
	}
	return a, nil
}

func (s *Store) FindUnresolvedSince(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	query := "SELECT * FROM alerts WHERE NOT resolved"
	var args []any

	if filter.RuleName != "" {
		query += " AND rule_name = ?"
		args = append(args, filter.RuleName)
	}
	if filter.SourceIP != "" {
		query += " AND source_ip = ?"
		args = append(args, filter.SourceIP)
	}
	if filter.Username != "" {
		query += " AND username = ?"
		args = append(args, filter.Username)
	}
	if !filter.TriggeredAfter.IsZero() {
		query += " AND triggered_at >= ?"
		args = append(args, filter.TriggeredAfter)
	}

	var alerts []models.Alert
	if err := s.db.SelectContext(ctx, &alerts, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: find unresolved: %w", err)
	}
	return alerts, nil
}

func (s *Store) FindAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	query := "SELECT * FROM alerts WHERE 1=1"
	var args []any

	if filter.RuleName != "" {
		query += " AND rule_name = ?"
		args = append(args, filter.RuleName)
	}
	if filter.SourceIP != "" {
		query += " AND source_ip = ?"
		args = append(args, filter.SourceIP)
	}
	if filter.Username != "" {
		query += " AND username = ?"
		args = append(args, filter.Username)
	}
	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, filter.Severity)
	}
	if filter.Resolved != nil {
		query += " AND resolved = ?"
		args = append(args, *filter.Resolved)
	}

	query += " ORDER BY triggered_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	var alerts []models.Alert
	if err := s.db.SelectContext(ctx, &alerts, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlstore: find alerts: %w", err)
	}
	return alerts, nil
}

func (s *Store) GetAlertByAlertID(ctx context.Context, alertID string) (models.Alert, error) {
	var a models.Alert
	err := s.db.GetContext(ctx, &a, s.db.Rebind("SELECT * FROM alerts WHERE alert_id = ?"), alertID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Alert{}, store.ErrNotFound
	}
	if err != nil {
		return models.Alert{}, fmt.Errorf("sqlstore: get alert: %w", err)
	}
	return a, nil
}

func (s *Store) UpdateAlert(ctx context.Context, a models.Alert) error {
	const q = `
		UPDATE alerts SET
			acknowledged = :acknowledged,
			acknowledged_by = :acknowledged_by,
			acknowledged_at = :acknowledged_at,
			resolved = :resolved,
			resolved_by = :resolved_by,
			resolved_at = :resolved_at,
			notes = :notes
		WHERE alert_id = :alert_id`

	result, err := s.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return fmt.Errorf("sqlstore: update alert: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: update alert rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountUnresolvedBySeverity(ctx context.Context) (map[string]int, error) {
	type row struct {
		Severity string `db:"severity"`
		Count    int    `db:"count"`
	}
	var rows []row
	const q = `SELECT severity, COUNT(*) AS count FROM alerts WHERE NOT resolved GROUP BY severity`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("sqlstore: count unresolved by severity: %w", err)
	}

	counts := map[string]int{
		string(models.SeverityCritical): 0,
		string(models.SeverityHigh):     0,
		string(models.SeverityMedium):   0,
		string(models.SeverityLow):      0,
	}
	total := 0
	for _, r := range rows {
		if _, known := counts[r.Severity]; known {
			counts[r.Severity] = r.Count
			total += r.Count
		}
	}
	counts["total"] = total
	return counts, nil
}

var _ store.EventStore = (*Store)(nil)
var _ store.AlertStore = (*Store)(nil)
