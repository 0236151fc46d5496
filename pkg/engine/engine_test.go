package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/rules"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
	"github.com/arjunmehta/sentinelwatch/pkg/store/memstore"
)

// recordingRule is a test double satisfying rules.Rule. It records that
// it ran (and, when order is set, the order it ran in), and can be told
// to fire, fail, or panic.
type recordingRule struct {
	name   string
	ran    map[string]bool
	order  *[]string
	fires  bool
	err    error
	panics bool
}

func (r recordingRule) Name() string              { return r.name }
func (r recordingRule) Severity() models.Severity { return models.SeverityLow }

func (r recordingRule) Evaluate(ctx context.Context, event models.Event, events store.EventStore, alerts store.AlertStore, cfg rules.Settings) (*models.AlertSpec, error) {
	if r.ran != nil {
		r.ran[r.name] = true
	}
	if r.order != nil {
		*r.order = append(*r.order, r.name)
	}
	if r.panics {
		panic("simulated rule panic")
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.fires {
		return &models.AlertSpec{RuleName: r.name, Severity: models.SeverityLow}, nil
	}
	return nil, nil
}

func TestEngine_SkipsFailingRuleButRunsOthers(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	ran := map[string]bool{}
	failing := recordingRule{name: "failing", ran: ran, err: errors.New("boom")}
	succeeding := recordingRule{name: "succeeding", ran: ran, fires: true}

	en := New([]rules.Rule{failing, succeeding}, rules.Settings{})
	specs := en.Detect(ctx, models.Event{}, mem, mem)

	assert.True(t, ran["failing"])
	assert.True(t, ran["succeeding"])
	require.Len(t, specs, 1)
	assert.Equal(t, "succeeding", specs[0].RuleName)
}

func TestEngine_RecoversFromPanickingRule(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	ran := map[string]bool{}
	panicking := recordingRule{name: "panicking", ran: ran, panics: true}
	succeeding := recordingRule{name: "succeeding", ran: ran, fires: true}

	en := New([]rules.Rule{panicking, succeeding}, rules.Settings{})

	var specs []models.AlertSpec
	assert.NotPanics(t, func() {
		specs = en.Detect(ctx, models.Event{}, mem, mem)
	})

	assert.True(t, ran["panicking"])
	assert.True(t, ran["succeeding"])
	require.Len(t, specs, 1)
	assert.Equal(t, "succeeding", specs[0].RuleName)
}

func TestEngine_RunsRulesInGivenOrder(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	var order []string
	en := New([]rules.Rule{
		recordingRule{name: "first", order: &order},
		recordingRule{name: "second", order: &order},
		recordingRule{name: "third", order: &order},
	}, rules.Settings{})

	en.Detect(ctx, models.Event{}, mem, mem)

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestEngine_NoRulesFire_ReturnsEmptySlice(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	en := New([]rules.Rule{recordingRule{name: "quiet"}}, rules.Settings{})
	specs := en.Detect(ctx, models.Event{}, mem, mem)

	assert.Empty(t, specs)
}

func TestEngine_DefaultRuleSet_RunsWithoutError(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	en := New(rules.Default(), rules.Settings{
		BusinessHoursStart:      8,
		BusinessHoursEnd:        18,
		BruteForceThreshold:     5,
		BruteForceWindowMinutes: 10,
		Blacklist:               map[string]bool{},
	})

	assert.NotPanics(t, func() {
		en.Detect(ctx, models.Event{SourceIP: "198.51.100.1", EventType: "login", Status: "success"}, mem, mem)
	})
}
