package sticker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertAssignsSequentialIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		id, err := store.Insert(ctx, 100, "name", "ref")
		require.NoError(t, err)
		require.EqualValues(t, i, id)
	}

	// Deletes for an unrelated owner must not disturb the sequence.
	_, err := store.Insert(ctx, 200, "other", "ref")
	require.NoError(t, err)
	found, err := store.Delete(ctx, 200, 1)
	require.NoError(t, err)
	require.True(t, found)

	id, err := store.Insert(ctx, 100, "name", "ref")
	require.NoError(t, err)
	require.EqualValues(t, 6, id)
}

func TestInsertListRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, 7, "cat", "file-abc")
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	rows, err := store.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, Sticker{OwnerID: 7, LocalID: 1, Name: "cat", Ref: "file-abc"}, rows[0])
}

func TestDeletedIDsAreNotReused(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, 1, "s", "r")
		require.NoError(t, err)
	}
	found, err := store.Delete(ctx, 1, 3)
	require.NoError(t, err)
	require.True(t, found)

	id, err := store.Insert(ctx, 1, "s", "r")
	require.NoError(t, err)
	require.EqualValues(t, 4, id, "deleted ids must not be reused")
}

func TestDeleteMissingRowReportsNotFound(t *testing.T) {
	store := NewMemoryStore()
	found, err := store.Delete(context.Background(), 1, 42)
	require.NoError(t, err)
	require.False(t, found)
}

func TestListOrderSurvivesGaps(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	names := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, n := range names {
		_, err := store.Insert(ctx, 9, n, "r")
		require.NoError(t, err)
	}
	// Leave local ids [3,5,7].
	for _, id := range []int64{1, 2, 4, 6} {
		found, err := store.Delete(ctx, 9, id)
		require.NoError(t, err)
		require.True(t, found)
	}

	rows, err := store.List(ctx, 9)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.EqualValues(t, 3, rows[0].LocalID)
	require.EqualValues(t, 5, rows[1].LocalID)
	require.EqualValues(t, 7, rows[2].LocalID)
}

func TestSearchThreshold(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, 5, "my cat sticker", "ref-cat")
	require.NoError(t, err)
	_, err = store.Insert(ctx, 5, "dog", "ref-dog")
	require.NoError(t, err)

	matches, err := store.Search(ctx, 5, "cat")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "my cat sticker", matches[0].Name)
	require.Greater(t, matches[0].Score, SearchThreshold)
}

func TestSearchIsScopedToOwner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, 1, "cat", "r1")
	require.NoError(t, err)
	_, err = store.Insert(ctx, 2, "cat", "r2")
	require.NoError(t, err)

	matches, err := store.Search(ctx, 1, "cat")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "r1", matches[0].Ref)
}

func TestSearchOrdersByScoreDescending(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, 3, "sleepy cot gif pack", "r1") // one edit away
	require.NoError(t, err)
	_, err = store.Insert(ctx, 3, "sleepy cat gif pack", "r2") // exact window
	require.NoError(t, err)

	matches, err := store.Search(ctx, 3, "sleepy cat gif")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "r2", matches[0].Ref)
	require.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestSearchEmptyResult(t *testing.T) {
	store := NewMemoryStore()
	matches, err := store.Search(context.Background(), 8, "anything")
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestStorageErrorChains(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("handling event: %w", &StorageError{Op: "insert", Err: cause})

	require.True(t, IsStorageError(err))
	require.ErrorIs(t, err, cause)
	require.False(t, IsStorageError(cause))
}
