// Package timeutil implements the timestamp parsing, alert ID
// generation, and business-hours calculation shared across the
// SentinelWatch analysis pipeline.
package timeutil

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// explicitLayouts are tried, in order, after ISO-8601 and Unix epoch
// both fail. The order matches the original SentinelWatch parser
// exactly so that ambiguous strings resolve the same way.
var explicitLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/Jan/2006:15:04:05",
	"Jan 2 15:04:05",
	"2006-01-02 15:04:05.000000",
}

// ParseTimestamp attempts to interpret s as a wall-clock instant in
// UTC. It tries, in order: ISO-8601 (with a trailing "Z" normalized to
// "+00:00"), a Unix epoch (integer or float seconds), then the
// explicit layouts above. The "Jan 2 15:04:05" layout carries no year,
// so the current year is substituted. It reports ok=false if every
// attempt fails; callers should fall back to ingest wall-clock time.
func ParseTimestamp(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	normalized := strings.Replace(s, "Z", "+00:00", 1)
	if parsed, err := time.Parse(time.RFC3339Nano, normalized); err == nil {
		return parsed.UTC(), true
	}
	if parsed, err := time.Parse("2006-01-02T15:04:05-07:00", normalized); err == nil {
		return parsed.UTC(), true
	}

	if seconds, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int64(seconds)
		frac := seconds - float64(whole)
		return time.Unix(whole, int64(frac*1e9)).UTC(), true
	}

	for _, layout := range explicitLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		if layout == "Jan 2 15:04:05" {
			now := currentYear()
			parsed = time.Date(now, parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), parsed.Second(), 0, time.UTC)
		}
		return parsed, true
	}

	return time.Time{}, false
}

// currentYear is split out so tests covering the no-year layout can
// still assert against time.Now() without depending on wall-clock time
// at parse-call sites throughout the package.
func currentYear() int {
	return time.Now().UTC().Year()
}

// GenerateAlertID returns a fresh alert identifier in canonical
// 8-4-4-4-12 hex UUID form.
func GenerateAlertID() string {
	return uuid.NewString()
}

// IsBusinessHours reports whether t, interpreted in UTC, falls on a
// weekday within [startHour, endHour). Weekends are always false
// regardless of hour.
func IsBusinessHours(t time.Time, startHour, endHour int) bool {
	u := t.UTC()
	switch u.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := u.Hour()
	return hour >= startHour && hour < endHour
}
