package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunmehta/sentinelwatch/pkg/engine"
	"github.com/arjunmehta/sentinelwatch/pkg/geoloc"
	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/parser"
	"github.com/arjunmehta/sentinelwatch/pkg/rules"
	"github.com/arjunmehta/sentinelwatch/pkg/store/memstore"
)

func newTestOrchestrator() (*Orchestrator, *memstore.Store) {
	mem := memstore.New()
	p := parser.New(nil)
	settings := rules.Settings{
		BusinessHoursStart:      8,
		BusinessHoursEnd:        18,
		BruteForceThreshold:     5,
		BruteForceWindowMinutes: 10,
		Blacklist:               map[string]bool{"10.0.0.100": true},
	}
	en := engine.New(rules.Default(), settings)
	resolver := geoloc.NewResolver("", false)
	return New(p, resolver, mem, mem, en), mem
}

func TestOrchestrator_IngestLines_SkipsBlankAndUnparseableLines(t *testing.T) {
	o, _ := newTestOrchestrator()

	lines := []string{
		"",
		"   ",
		"2024-05-01T10:00:00 203.0.113.7 alice login success",
		"this line has no structure or ip address",
	}
	result, err := o.IngestLines(context.Background(), lines, "test.log")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, "test.log", result.SourceFile)
}

func TestOrchestrator_IngestFile_TagsSourceFileBaseName(t *testing.T) {
	o, _ := newTestOrchestrator()

	r := strings.NewReader("2024-05-01T10:00:00 203.0.113.7 alice login success\n")
	result, err := o.IngestFile(context.Background(), r, "/var/log/auth/access.log")
	require.NoError(t, err)
	assert.Equal(t, "access.log", result.SourceFile)
	assert.Equal(t, 1, result.Ingested)
}

func TestOrchestrator_BruteForce_EndToEndOverFiveFailures(t *testing.T) {
	o, mem := newTestOrchestrator()
	ctx := context.Background()

	lines := []string{
		"2024-05-01T10:00:00 203.0.113.7 usera login failed",
		"2024-05-01T10:01:00 203.0.113.7 userb login failed",
		"2024-05-01T10:02:00 203.0.113.7 userc login failed",
		"2024-05-01T10:03:00 203.0.113.7 userd login failed",
		"2024-05-01T10:04:00 203.0.113.7 usere login failed",
	}

	result, err := o.IngestLines(ctx, lines, "auth.log")
	require.NoError(t, err)
	assert.Equal(t, 5, result.Ingested)
	assert.Equal(t, 1, result.AlertsGenerated, "only the fifth failure should raise brute_force_login")

	stored, err := mem.FindAlerts(ctx, models.AlertFilter{RuleName: "brute_force_login"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "203.0.113.7", stored[0].SourceIP)
}

func TestOrchestrator_BlacklistedIP_DedupsWithinWindow(t *testing.T) {
	o, mem := newTestOrchestrator()
	ctx := context.Background()

	first, err := o.IngestLines(ctx, []string{"2024-05-01T09:00:00 10.0.0.100 mallory login success"}, "auth.log")
	require.NoError(t, err)
	// "success" in the raw line contains the "su" escalation keyword, so
	// privilege_escalation fires alongside blacklisted_ip.
	assert.Equal(t, 2, first.AlertsGenerated)

	second, err := o.IngestLines(ctx, []string{"2024-05-01T09:05:00 10.0.0.100 mallory login success"}, "auth.log")
	require.NoError(t, err)
	assert.Equal(t, 0, second.AlertsGenerated, "a second hit inside the dedup window must not re-alert")

	stored, err := mem.FindAlerts(ctx, models.AlertFilter{RuleName: "blacklisted_ip"})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestOrchestrator_IngestEvent_StoresAndDetects(t *testing.T) {
	o, mem := newTestOrchestrator()
	ctx := context.Background()

	result, err := o.IngestEvent(ctx, models.Event{
		SourceIP:  "10.0.0.100",
		Username:  "mallory",
		EventType: string(models.EventTypeAuthentication),
		Status:    string(models.StatusSuccess),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, 1, result.AlertsGenerated)

	count, err := mem.TotalEventCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOrchestrator_IngestEvent_SetsLogEntryID(t *testing.T) {
	o, _ := newTestOrchestrator()

	result, err := o.IngestEvent(context.Background(), models.Event{
		SourceIP:  "203.0.113.9",
		EventType: string(models.EventTypeAuthentication),
		Status:    string(models.StatusSuccess),
	})
	require.NoError(t, err)
	assert.NotZero(t, result.LogEntryID)
}

func TestOrchestrator_IngestEvent_GeolocatesWhenUnresolved(t *testing.T) {
	mem := memstore.New()
	p := parser.New(nil)
	en := engine.New(rules.Default(), rules.Settings{Blacklist: map[string]bool{}})
	resolver := geoloc.NewResolver("", false)
	o := New(p, resolver, mem, mem, en)

	// With the HTTP fallback disabled and no MaxMind database, the
	// resolver can never resolve a public IP, but IngestEvent must
	// still consult it rather than skip geolocation entirely.
	_, err := o.IngestEvent(context.Background(), models.Event{
		SourceIP:  "203.0.113.9",
		EventType: string(models.EventTypeAuthentication),
		Status:    string(models.StatusSuccess),
	})
	require.NoError(t, err)

	events, err := mem.FindEvents(context.Background(), models.EventFilter{SourceIP: "203.0.113.9"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].HasLocation, "fallback is disabled so resolution must fail, not panic")
}

func TestOrchestrator_IngestEvent_PreservesAlreadyResolvedLocation(t *testing.T) {
	o, mem := newTestOrchestrator()
	ctx := context.Background()

	_, err := o.IngestEvent(ctx, models.Event{
		SourceIP:    "203.0.113.9",
		EventType:   string(models.EventTypeAuthentication),
		Status:      string(models.StatusSuccess),
		HasLocation: true,
		CountryCode: "FR",
		Latitude:    48.85,
		Longitude:   2.35,
	})
	require.NoError(t, err)

	events, err := mem.FindEvents(ctx, models.EventFilter{SourceIP: "203.0.113.9"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "FR", events[0].CountryCode)
}

func TestOrchestrator_IngestEvent_NilResolver_NoPanic(t *testing.T) {
	mem := memstore.New()
	p := parser.New(nil)
	en := engine.New(rules.Default(), rules.Settings{Blacklist: map[string]bool{}})
	o := New(p, nil, mem, mem, en)

	assert.NotPanics(t, func() {
		_, err := o.IngestEvent(context.Background(), models.Event{
			SourceIP:  "203.0.113.9",
			EventType: string(models.EventTypeAuthentication),
			Status:    string(models.StatusSuccess),
		})
		assert.NoError(t, err)
	})
}
