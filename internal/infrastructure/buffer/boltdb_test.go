package buffer

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, opts Options) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "buffer.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_EnqueueBatchRemove(t *testing.T) {
	store := openStore(t, Options{})

	older := Item{EditorID: 1, Entity: EntityEditorProfile, Operation: OperationUpdate, Data: json.RawMessage(`{}`), Timestamp: time.Now().Add(-time.Minute)}
	newer := Item{EditorID: 2, Entity: EntityEditorProfile, Operation: OperationUpdate, Data: json.RawMessage(`{}`)}
	require.NoError(t, store.Enqueue(newer))
	require.NoError(t, store.Enqueue(older))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].EditorID, "same priority drains oldest first")
	assert.Equal(t, defaultPriority, items[0].Priority)
	assert.NotEmpty(t, items[0].ID)

	require.NoError(t, store.Remove(items[0]))
	size, err = store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestStore_PriorityOrdering(t *testing.T) {
	store := openStore(t, Options{})
	require.NoError(t, store.Enqueue(Item{EditorID: 1, Priority: 4}))
	require.NoError(t, store.Enqueue(Item{EditorID: 2, Priority: 1}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].EditorID)
}

func TestStore_RemoveByIDWithoutKey(t *testing.T) {
	store := openStore(t, Options{})
	require.NoError(t, store.Enqueue(Item{ID: "fixed", EditorID: 1}))

	require.NoError(t, store.Remove(Item{ID: "fixed"}))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestStore_Requeue(t *testing.T) {
	store := openStore(t, Options{})
	require.NoError(t, store.Enqueue(Item{ID: "a", EditorID: 1}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	item := items[0]
	require.NoError(t, store.Remove(item))
	item.Retries++
	require.NoError(t, store.Requeue(item))

	items, err = store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Retries)
}

func TestStore_MaxSize(t *testing.T) {
	store := openStore(t, Options{MaxSize: 1})
	require.NoError(t, store.Enqueue(Item{EditorID: 1}))
	assert.ErrorIs(t, store.Enqueue(Item{EditorID: 2}), ErrFull)
}

func TestStore_Cleanup(t *testing.T) {
	store := openStore(t, Options{})
	require.NoError(t, store.Enqueue(Item{EditorID: 1, Timestamp: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{EditorID: 2}))

	removed, err := store.Cleanup(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].EditorID)
}

func TestStore_NilSafe(t *testing.T) {
	var store *Store
	_, err := store.Size()
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}
