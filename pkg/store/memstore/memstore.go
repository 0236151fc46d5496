// Package memstore is a thread-safe in-memory implementation of
// store.EventStore and store.AlertStore, adapted from the teacher
// library's mutex-guarded MemoryStore. It backs tests, the CLI demo,
// and any deployment that hasn't configured DATABASE_URL.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

// Store holds events and alerts in memory behind a single RWMutex.
// Records are copied on read and write so callers can't mutate shared
// state through a returned pointer.
type Store struct {
	mu        sync.RWMutex
	events    []models.Event
	alerts    []models.Alert
	nextEvent int64
	nextAlert int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{nextEvent: 1, nextAlert: 1}
}

func (s *Store) AppendEvent(_ context.Context, e models.Event) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextEvent
	s.nextEvent++
	s.events = append(s.events, e)
	return e, nil
}

func (s *Store) CountEvents(ctx context.Context, filter models.EventFilter) (int, error) {
	unpaged := filter
	unpaged.Limit = 0
	unpaged.Offset = 0
	events, err := s.FindEvents(ctx, unpaged)
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

func (s *Store) FindEvents(_ context.Context, filter models.EventFilter) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Event
	for _, e := range s.events {
		if !eventMatches(e, filter) {
			continue
		}
		matched = append(matched, e)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if filter.Offset > 0 && filter.Offset < len(matched) {
		matched = matched[filter.Offset:]
	} else if filter.Offset >= len(matched) {
		matched = nil
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, nil
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

func (s *Store) GetEvent(_ context.Context, id int64) (models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Event{}, store.ErrNotFound
}

func (s *Store) TotalEventCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}

func eventMatches(e models.Event, f models.EventFilter) bool {
	if f.SourceIP != "" && e.SourceIP != f.SourceIP {
		return false
	}
	if f.Username != "" && e.Username != f.Username {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

func (s *Store) AppendAlert(_ context.Context, a models.Alert) (models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextAlert
	s.nextAlert++
	s.alerts = append(s.alerts, a)
	return a, nil
}

func (s *Store) FindUnresolvedSince(_ context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Alert
	for _, a := range s.alerts {
		if a.Resolved {
			continue
		}
		if !alertMatches(a, filter) {
			continue
		}
		if !filter.TriggeredAfter.IsZero() && a.TriggeredAt.Before(filter.TriggeredAfter) {
			continue
		}
		matched = append(matched, a)
	}
	return matched, nil
}

func (s *Store) FindAlerts(_ context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Alert
	for _, a := range s.alerts {
		if filter.Resolved != nil && a.Resolved != *filter.Resolved {
			continue
		}
		if !alertMatches(a, filter) {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].TriggeredAt.After(matched[j].TriggeredAt)
	})

	if filter.Offset > 0 && filter.Offset < len(matched) {
		matched = matched[filter.Offset:]
	} else if filter.Offset >= len(matched) {
		matched = nil
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

func alertMatches(a models.Alert, f models.AlertFilter) bool {
	if f.RuleName != "" && a.RuleName != f.RuleName {
		return false
	}
	if f.SourceIP != "" && a.SourceIP != f.SourceIP {
		return false
	}
	if f.Username != "" && a.Username != f.Username {
		return false
	}
	if f.Severity != "" && !strings.EqualFold(a.Severity, f.Severity) {
		return false
	}
	return true
}

func (s *Store) GetAlertByAlertID(_ context.Context, alertID string) (models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.alerts {
		if a.AlertID == alertID {
			return a, nil
		}
	}
	return models.Alert{}, store.ErrNotFound
}

func (s *Store) UpdateAlert(_ context.Context, a models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].AlertID == a.AlertID {
			s.alerts[i] = a
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) CountUnresolvedBySeverity(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{
		string(models.SeverityCritical): 0,
		string(models.SeverityHigh):     0,
		string(models.SeverityMedium):   0,
		string(models.SeverityLow):      0,
	}
	total := 0
	for _, a := range s.alerts {
		if a.Resolved {
			continue
		}
		if _, known := counts[a.Severity]; known {
			counts[a.Severity]++
			total++
		}
	}
	counts["total"] = total
	return counts, nil
}

var _ store.EventStore = (*Store)(nil)
var _ store.AlertStore = (*Store)(nil)
