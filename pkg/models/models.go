// Package models defines the canonical data shapes that flow through
// the SentinelWatch analysis pipeline: normalized events and the
// alerts the detection engine raises against them.
package models

import "time"

// Severity is a closed enumeration of alert severities. It is kept as
// a string under the hood so it round-trips through JSON and SQL
// unchanged, per the "string-typed enumeration" design note.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Status is the closed set of login/access outcomes a parsed Event
// can carry.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusDenied   Status = "denied"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusUnknown  Status = "unknown"
)

// EventType is the closed set of event categories the parser and
// rules reason about. Unrecognized values pass through as-is, so this
// type is not exhaustive by construction.
type EventType string

const (
	EventTypeLogin               EventType = "login"
	EventTypePrivilegeEscalation EventType = "privilege_escalation"
	EventTypeAdminAccess         EventType = "admin_access"
	EventTypeSudo                EventType = "sudo"
	EventTypeSu                  EventType = "su"
	EventTypeAuthentication      EventType = "authentication"
	EventTypeUnknown             EventType = "unknown"
)

// Event is a normalized record of one observed authentication or
// access action. Its identity (ID) is assigned by the event store on
// insert; everything else is set once by the ingestion orchestrator
// and never mutated afterward.
type Event struct {
	ID         int64     `json:"id" db:"id"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	SourceIP   string    `json:"source_ip" db:"source_ip"`
	Username   string    `json:"username" db:"username"`
	EventType  string    `json:"event_type" db:"event_type"`
	Status     string    `json:"status" db:"status"`
	RawLog     string    `json:"raw_log" db:"raw_log"`
	SourceFile string    `json:"source_file,omitempty" db:"source_file"`

	// Geolocation fields are present together or not at all (spec
	// invariant); HasLocation is the discriminator since float64
	// zero values are legitimate coordinates (e.g. the Gulf of
	// Guinea) and can't serve as an "absent" sentinel.
	HasLocation bool    `json:"-" db:"has_location"`
	CountryCode string  `json:"country_code,omitempty" db:"country_code"`
	Latitude    float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude   float64 `json:"longitude,omitempty" db:"longitude"`
}

// Alert is a persisted detection outcome with lifecycle state.
type Alert struct {
	ID          int64  `json:"id" db:"id"`
	AlertID     string `json:"alert_id" db:"alert_id"`
	RuleName    string `json:"rule_name" db:"rule_name"`
	Severity    string `json:"severity" db:"severity"`
	Description string `json:"description" db:"description"`

	// Context is stored as an opaque JSON-encoded string (spec design
	// note: "keep as opaque serialised payload for schema stability").
	Context string `json:"context,omitempty" db:"context"`

	SourceIP   string `json:"source_ip,omitempty" db:"source_ip"`
	Username   string `json:"username,omitempty" db:"username"`
	LogEntryID *int64 `json:"log_entry_id,omitempty" db:"log_entry_id"`

	TriggeredAt time.Time `json:"triggered_at" db:"triggered_at"`

	Acknowledged   bool       `json:"acknowledged" db:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`

	Resolved   bool       `json:"resolved" db:"resolved"`
	ResolvedBy string     `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`

	Notes string `json:"notes,omitempty" db:"notes"`
}

// AlertSpec is what a detection rule hands back to the engine: enough
// to mint an Alert, but not yet persisted and without an identity.
type AlertSpec struct {
	RuleName    string
	Severity    Severity
	Description string
	Context     map[string]any
}

// EventFilter narrows a windowed query over the event store.
type EventFilter struct {
	SourceIP  string
	Username  string
	EventType string
	Status    string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// AlertFilter narrows a query over the alert store.
type AlertFilter struct {
	RuleName       string
	SourceIP       string
	Username       string
	Severity       string
	Resolved       *bool
	TriggeredAfter time.Time
	Limit          int
	Offset         int
}
