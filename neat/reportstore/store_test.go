package reportstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolvekit/neat-core/neat"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(gen int, best float64) neat.ReportRecord {
	return neat.ReportRecord{
		Population:  "pop-test",
		Generation:  gen,
		Members:     10,
		BestFitness: best,
		BestMember:  "member-test",
	}
}

// TestSaveAndLoadReports verifies records round-trip in generation order.
func TestSaveAndLoadReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, "run-a", record(2, -4.0)))
	require.NoError(t, s.SaveReport(ctx, "run-a", record(1, -9.0)))
	require.NoError(t, s.SaveReport(ctx, "run-b", record(1, -1.0)))

	reports, err := s.Reports(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 1, reports[0].Generation)
	assert.Equal(t, 2, reports[1].Generation)
	assert.Equal(t, -9.0, reports[0].BestFitness)
	assert.Equal(t, "member-test", reports[0].BestMember)
}

// TestSaveReportUpsert verifies a re-save of the same generation replaces
// the earlier record.
func TestSaveReportUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, "run-a", record(1, -9.0)))
	require.NoError(t, s.SaveReport(ctx, "run-a", record(1, -3.0)))

	reports, err := s.Reports(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, -3.0, reports[0].BestFitness)
}

// TestBestFitness verifies the maximum is reported, with ok false for an
// unknown run.
func TestBestFitness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, "run-a", record(1, -9.0)))
	require.NoError(t, s.SaveReport(ctx, "run-a", record(2, -4.0)))

	best, ok, err := s.BestFitness(ctx, "run-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, -4.0, best)

	_, ok, err = s.BestFitness(ctx, "run-absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestHookAdapter verifies the report-hook adapter persists incoming
// records and rejects malformed invocations.
func TestHookAdapter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	hook := s.Hook(ctx, "run-a")

	_, err := hook(record(1, -9.0))
	require.NoError(t, err)

	reports, err := s.Reports(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, reports, 1)

	_, err = hook("not a record")
	assert.Error(t, err)
	_, err = hook(record(2, -4.0), "extra")
	assert.Error(t, err)
}

// TestUninitializedStore verifies operations fail cleanly before Init.
func TestUninitializedStore(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "reports.db"))
	_, err := s.Reports(context.Background(), "run-a")
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}

// TestInitIdempotent verifies a second Init keeps the open handle.
func TestInitIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.SaveReport(context.Background(), "run-a", record(1, 0)))
}
