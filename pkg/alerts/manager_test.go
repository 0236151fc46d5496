package alerts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store/memstore"
)

func TestManager_CreateStoresContextAsJSON(t *testing.T) {
	mem := memstore.New()
	mgr := New(mem)
	ctx := context.Background()

	alert, err := mgr.Create(ctx, models.AlertSpec{
		RuleName:    "brute_force_login",
		Severity:    models.SeverityHigh,
		Description: "test",
		Context:     map[string]any{"source_ip": "203.0.113.7"},
	}, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, alert.AlertID)
	assert.JSONEq(t, `{"source_ip":"203.0.113.7"}`, alert.Context)
}

func TestManager_Lifecycle_AcknowledgeThenResolve(t *testing.T) {
	mem := memstore.New()
	mgr := New(mem)
	ctx := context.Background()

	created, err := mgr.Create(ctx, models.AlertSpec{
		RuleName: "impossible_travel",
		Severity: models.SeverityCritical,
	}, nil)
	require.NoError(t, err)

	_, err = mgr.Acknowledge(ctx, created.AlertID, "carol")
	require.NoError(t, err)

	final, err := mgr.Resolve(ctx, created.AlertID, "carol")
	require.NoError(t, err)

	assert.True(t, final.Acknowledged)
	assert.Equal(t, "carol", final.AcknowledgedBy)
	assert.True(t, final.Resolved)
	assert.Equal(t, "carol", final.ResolvedBy)
	require.NotNil(t, final.AcknowledgedAt)
	require.NotNil(t, final.ResolvedAt)
	assert.False(t, final.ResolvedAt.Before(*final.AcknowledgedAt))
}

func TestManager_Acknowledge_IsIdempotent(t *testing.T) {
	mem := memstore.New()
	mgr := New(mem)
	ctx := context.Background()

	created, err := mgr.Create(ctx, models.AlertSpec{RuleName: "off_hours"}, nil)
	require.NoError(t, err)

	first, err := mgr.Acknowledge(ctx, created.AlertID, "carol")
	require.NoError(t, err)

	second, err := mgr.Acknowledge(ctx, created.AlertID, "dave")
	require.NoError(t, err)

	assert.Equal(t, first.AcknowledgedBy, second.AcknowledgedBy)
	assert.Equal(t, first.AcknowledgedAt, second.AcknowledgedAt)
}

func TestManager_Resolve_ImpliesAcknowledged(t *testing.T) {
	mem := memstore.New()
	mgr := New(mem)
	ctx := context.Background()

	created, err := mgr.Create(ctx, models.AlertSpec{RuleName: "blacklisted_ip"}, nil)
	require.NoError(t, err)

	resolved, err := mgr.Resolve(ctx, created.AlertID, "carol")
	require.NoError(t, err)

	assert.True(t, resolved.Acknowledged)
	assert.True(t, resolved.Resolved)
}

func TestManager_Statistics_CountsUnresolvedBySeverity(t *testing.T) {
	mem := memstore.New()
	mgr := New(mem)
	ctx := context.Background()

	_, err := mgr.Create(ctx, models.AlertSpec{RuleName: "r1", Severity: models.SeverityHigh}, nil)
	require.NoError(t, err)
	_, err = mgr.Create(ctx, models.AlertSpec{RuleName: "r2", Severity: models.SeverityCritical}, nil)
	require.NoError(t, err)
	resolved, err := mgr.Create(ctx, models.AlertSpec{RuleName: "r3", Severity: models.SeverityCritical}, nil)
	require.NoError(t, err)
	_, err = mgr.Resolve(ctx, resolved.AlertID, "carol")
	require.NoError(t, err)

	stats, err := mgr.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[string(models.SeverityHigh)])
	assert.Equal(t, 1, stats[string(models.SeverityCritical)])
	assert.Equal(t, 2, stats["total"])
}

func TestManager_SetNotes(t *testing.T) {
	mem := memstore.New()
	mgr := New(mem)
	ctx := context.Background()

	created, err := mgr.Create(ctx, models.AlertSpec{RuleName: "r1"}, nil)
	require.NoError(t, err)

	updated, err := mgr.SetNotes(ctx, created.AlertID, "false positive, confirmed with user")
	require.NoError(t, err)
	assert.Equal(t, "false positive, confirmed with user", updated.Notes)
}
