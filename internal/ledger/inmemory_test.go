package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_EmptyLedgerSentinels(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	last, err := l.LastBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, last)

	next, err := l.NextBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	count, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	ran, err := l.Ran(ctx)
	require.NoError(t, err)
	assert.Len(t, ran, 0)
}

func Test_NextBatchObservesInsertsBetweenCalls(t *testing.T) {
	l := NewInMemoryLedger()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		next, err := l.NextBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, next)

		require.NoError(t, l.Insert(ctx, "2020_01_01_000000_create_users_table", next))
	}

	last, err := l.LastBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, last)
}

func Test_FindAndDelete(t *testing.T) {
	l := NewInMemoryLedger(
		Entry{Migration: "2020_01_01_000000_create_users_table", Batch: 1},
		Entry{Migration: "2020_01_02_000000_create_posts_table", Batch: 2},
	)
	ctx := context.Background()

	found, err := l.Find(ctx, "2020_01_01_000000_create_users_table")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].Batch)

	missing, err := l.Find(ctx, "2020_01_03_000000_create_tags_table")
	require.NoError(t, err)
	assert.Len(t, missing, 0)

	require.NoError(t, l.Delete(ctx, "2020_01_01_000000_create_users_table"))

	found, err = l.Find(ctx, "2020_01_01_000000_create_users_table")
	require.NoError(t, err)
	assert.Len(t, found, 0)

	count, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func Test_RanIsOrderedByBatchThenIdentifier(t *testing.T) {
	l := NewInMemoryLedger(
		Entry{Migration: "2020_01_03_000000_create_tags_table", Batch: 2},
		Entry{Migration: "2020_01_02_000000_create_posts_table", Batch: 1},
		Entry{Migration: "2020_01_01_000000_create_users_table", Batch: 1},
	)

	ran, err := l.Ran(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"2020_01_01_000000_create_users_table",
		"2020_01_02_000000_create_posts_table",
		"2020_01_03_000000_create_tags_table",
	}, ran)
}

func Test_DropTableClearsEverything(t *testing.T) {
	l := NewInMemoryLedger(Entry{Migration: "2020_01_01_000000_create_users_table", Batch: 1})
	ctx := context.Background()

	require.NoError(t, l.DropTable(ctx))

	count, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
