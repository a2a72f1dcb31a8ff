package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuralnet/internal/model"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	_, ok, err := store.GetNetwork(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	snapshot := fixtureNetwork(t)
	require.NoError(t, store.SaveNetwork(ctx, snapshot))
	loaded, ok, err := store.GetNetwork(ctx, snapshot.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snapshot, loaded)

	snapshot.Connections[0].Weight = 0.75
	require.NoError(t, store.SaveNetwork(ctx, snapshot))
	loaded, _, err = store.GetNetwork(ctx, snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.75, loaded.Connections[0].Weight)

	history := []float64{0.3, 0.2, 0.1}
	require.NoError(t, store.SaveTrainingHistory(ctx, "run-1", history))
	gotHistory, ok, err := store.GetTrainingHistory(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, history, gotHistory)
	_, ok, err = store.GetTrainingHistory(ctx, "run-2")
	require.NoError(t, err)
	assert.False(t, ok)

	runs := []model.RunRecord{
		{VersionedRecord: model.CurrentVersion(), ID: "run-b", NetworkID: snapshot.ID, Dataset: "xor", CreatedAtUTC: "2026-01-02T00:00:00Z", Iterations: 10},
		{VersionedRecord: model.CurrentVersion(), ID: "run-a", NetworkID: snapshot.ID, Dataset: "and", CreatedAtUTC: "2026-01-01T00:00:00Z", Iterations: 20, Converged: true},
		{VersionedRecord: model.CurrentVersion(), ID: "run-c", NetworkID: snapshot.ID, Dataset: "or", CreatedAtUTC: "2026-01-02T00:00:00Z", Iterations: 30},
	}
	for _, run := range runs {
		require.NoError(t, store.SaveRun(ctx, run))
	}
	run, ok, err := store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, runs[1], run)

	listed, err := store.ListRuns(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(listed))
	for _, r := range listed {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"run-a", "run-b", "run-c"}, ids)
}
