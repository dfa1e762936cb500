package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) Store {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return NewStore(database)
}

func TestRecordAndRecent(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	first := Run{
		Id:         uuid.NewString(),
		StartedAt:  time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 9, 1, 6, 0, 12, 0, time.UTC),
		Status:     StatusOk,
		OutputPath: "data/shows.json",
		Shows: []Show{
			{Slug: "der-komet", Tier: "live", Events: 4, Fetched: 3},
			{Slug: "la-traviata", Tier: "fallback", Events: 10, Fetched: 0, Error: "unreachable"},
		},
	}
	second := Run{
		Id:         uuid.NewString(),
		StartedAt:  time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 9, 1, 12, 0, 3, 0, time.UTC),
		Status:     StatusReduced,
		OutputPath: "data/shows.json",
		Error:      "disk full",
		Shows:      []Show{},
	}
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	runs, err := store.Recent(ctx, 10, time.UTC)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff([]Run{second, first}, runs))

	runs, err = store.Recent(ctx, 1, time.UTC)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, second.Id, runs[0].Id)
}

func TestRecordDuplicateRollsBack(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	run := Run{
		Id:        uuid.NewString(),
		StartedAt: time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC),
		Status:    StatusOk,
		Shows: []Show{
			{Slug: "der-komet", Tier: "live"},
			{Slug: "der-komet", Tier: "live"},
		},
	}
	require.Error(t, store.Record(ctx, run))

	runs, err := store.Recent(ctx, 10, time.UTC)
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestPrune(t *testing.T) {
	store := setup(t)
	ctx := context.Background()

	for day := 1; day <= 3; day++ {
		require.NoError(t, store.Record(ctx, Run{
			Id:        uuid.NewString(),
			StartedAt: time.Date(2025, 9, day, 6, 0, 0, 0, time.UTC),
			Status:    StatusOk,
			Shows:     []Show{{Slug: "der-komet", Tier: "live", Events: 1}},
		}))
	}
	require.NoError(t, store.Prune(ctx, time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)))

	runs, err := store.Recent(ctx, 10, time.UTC)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, run := range runs {
		require.Len(t, run.Shows, 1)
	}
}

func TestIsRemote(t *testing.T) {
	require.True(t, isRemote("libsql://stagedates-ops.turso.io?authToken=secret"))
	require.True(t, isRemote("https://stagedates-ops.turso.io"))
	require.False(t, isRemote("data/history.db"))
	require.False(t, isRemote(":memory:"))
}
