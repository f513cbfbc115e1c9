package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first, err := s.Record(ctx, Record{
		Procedure:   "ols",
		Dataset:     "/data/sales.csv",
		Fingerprint: 0xfedcba9876543210,
		Features:    []string{"price", "ads"},
		Target:      "sales",
		Params:      `{"Window":5}`,
		Duration:    1500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Len(t, first.ID, 36)
	assert.Equal(t, StatusOK, first.Status)

	_, err = s.Record(ctx, Record{Procedure: "kmeans", Status: StatusError, Error: "too many clusters"})
	require.NoError(t, err)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "kmeans", all[0].Procedure, "newest first")
	assert.Equal(t, StatusError, all[0].Status)
	assert.Equal(t, "too many clusters", all[0].Error)
	assert.Empty(t, all[0].Features)

	got := all[1]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, uint64(0xfedcba9876543210), got.Fingerprint)
	assert.Equal(t, []string{"price", "ads"}, got.Features)
	assert.Equal(t, "sales", got.Target)
	assert.Equal(t, `{"Window":5}`, got.Params)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	one, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "h.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(ctx, Record{Procedure: "rlm"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	all, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "rlm", all[0].Procedure)
}

func TestStore_InMemoryAndValidation(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Record(context.Background(), Record{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Record(ctx, Record{Procedure: "ols"})
	assert.Error(t, err)
}
