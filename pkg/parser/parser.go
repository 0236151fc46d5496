// Package parser turns heterogeneous authentication and access log
// lines into canonical models.Event records. It tries a prioritized
// table of regular expressions, first match wins, and falls back to a
// bare IPv4 extraction before giving up on a line entirely.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/arjunmehta/sentinelwatch/pkg/geoloc"
	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/timeutil"
)

// template is one entry in the ordered pattern table: a name plus a
// compiled regexp whose named captures become the field map the parser
// normalizes uniformly.
type template struct {
	name    string
	pattern *regexp.Regexp
}

// patterns is evaluated top-to-bottom; the first regexp that matches
// a line wins. Order and exact patterns mirror the original
// SentinelWatch parser so the same corpus of log lines classifies the
// same way.
var patterns = []template{
	{
		name:    "apache_access",
		pattern: regexp.MustCompile(`(?P<ip>\S+) .*?\[(?P<timestamp>.*?)\].*?"\w+ (?P<path>\S+)`),
	},
	{
		name:    "ssh_auth",
		pattern: regexp.MustCompile(`(?P<timestamp>\w+ \d+ \d+:\d+:\d+) .*? (?P<event>Accepted|Failed) .*? (?P<source_ip>\d+\.\d+\.\d+\.\d+) .*? user (?P<username>\S+)`),
	},
	{
		name:    "auth_log",
		pattern: regexp.MustCompile(`(?i)(?P<timestamp>[\d\-:T.]+).*?(?P<source_ip>\d+\.\d+\.\d+\.\d+).*?user[:\s]+(?P<username>\S+).*?(?P<status>success|failed|denied|accepted|rejected)`),
	},
	{
		name:    "windows_event",
		pattern: regexp.MustCompile(`(?i)(?P<timestamp>[\d\-:T.]+).*?Source IP[:\s]+(?P<source_ip>\d+\.\d+\.\d+\.\d+).*?User[:\s]+(?P<username>\S+).*?Status[:\s]+(?P<status>\w+)`),
	},
	{
		name:    "json_log",
		pattern: regexp.MustCompile(`(?is)\{.*?"timestamp"[:\s]+"(?P<timestamp>[^"]+)".*?"ip"[:\s]+"(?P<source_ip>[^"]+)".*?"user"[:\s]+"(?P<username>[^"]+)".*?"status"[:\s]+"(?P<status>[^"]+)".*?\}`),
	},
	{
		name:    "simple_log",
		pattern: regexp.MustCompile(`(?P<timestamp>[\d\-:T.]+)\s+(?P<source_ip>\d+\.\d+\.\d+\.\d+)\s+(?P<username>\S+)\s+(?P<event_type>\w+)\s+(?P<status>\w+)`),
	},
}

var ipLiteral = regexp.MustCompile(`\b(\d+\.\d+\.\d+\.\d+)\b`)

// Parser turns raw log lines into normalized events, enriching each
// with geolocation for its source IP.
type Parser struct {
	resolver *geoloc.Resolver
}

// New creates a Parser that enriches parsed events via resolver.
// resolver may be nil, in which case events carry no geolocation.
func New(resolver *geoloc.Resolver) *Parser {
	return &Parser{resolver: resolver}
}

// ParseLine parses a single raw log line into a normalized Event. It
// returns ok=false if the line is blank or matches no pattern and
// carries no recognizable IPv4 literal either — callers should drop
// the line and continue rather than abort the batch.
func (p *Parser) ParseLine(line string, sourceFile string) (models.Event, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return models.Event{}, false
	}

	fields, matched := extractFields(trimmed)
	if !matched {
		return models.Event{}, false
	}

	ts, ok := fields["timestamp"]
	var timestamp time.Time
	if ok {
		if parsed, parsedOK := timeutil.ParseTimestamp(ts); parsedOK {
			timestamp = parsed
		}
	}
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	sourceIP := firstNonEmpty(fields["source_ip"], fields["ip"])
	username := fields["username"]
	eventType := firstNonEmpty(fields["event_type"], fields["event"], "authentication")
	status := firstNonEmpty(fields["status"], "unknown")

	event := models.Event{
		Timestamp:  timestamp,
		SourceIP:   sourceIP,
		Username:   username,
		EventType:  strings.ToLower(eventType),
		Status:     strings.ToLower(status),
		RawLog:     trimmed,
		SourceFile: sourceFile,
	}

	if event.SourceIP != "" && p.resolver != nil {
		if loc, found := p.resolver.GetLocation(event.SourceIP); found {
			event.HasLocation = true
			event.CountryCode = loc.CountryCode
			event.Latitude = loc.Latitude
			event.Longitude = loc.Longitude
		}
	}

	return event, true
}

// extractFields runs the pattern table against line and normalizes
// the ssh_auth "Accepted"/"Failed" literal into event_type/status, as
// the original parser does.
func extractFields(line string) (map[string]string, bool) {
	for _, tpl := range patterns {
		match := tpl.pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		fields := namedGroups(tpl.pattern, match)

		if event, hasEvent := fields["event"]; hasEvent {
			if _, hasEventType := fields["event_type"]; !hasEventType {
				switch strings.ToLower(event) {
				case "accepted", "success":
					fields["status"] = "success"
					fields["event_type"] = "login"
				case "failed", "denied", "rejected":
					fields["status"] = "failed"
					fields["event_type"] = "login"
				default:
					fields["event_type"] = strings.ToLower(event)
				}
			}
		}

		return fields, true
	}

	if ip := ipLiteral.FindString(line); ip != "" {
		return map[string]string{
			"source_ip":  ip,
			"username":   "",
			"event_type": "unknown",
			"status":     "unknown",
		}, true
	}

	return nil, false
}

func namedGroups(pattern *regexp.Regexp, match []string) map[string]string {
	fields := make(map[string]string, len(match))
	for i, name := range pattern.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		fields[name] = match[i]
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
