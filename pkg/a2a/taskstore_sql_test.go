package a2a

import (
	"context"
	"database/sql"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLStore(t *testing.T) *SQLTaskStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLTaskStore(db, "sqlite")
	require.NoError(t, err)
	return store
}

func TestSQLTaskStoreRejectsUnsupportedDialect(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLTaskStore(db, "mysql")
	assert.Error(t, err)
}

func TestSQLTaskStoreSaveAndGetRoundTrips(t *testing.T) {
	store := openTestSQLStore(t)
	ctx := context.Background()

	task := New("ctx-1")
	task.AppendHistory(a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: "hello"}))
	task.ToA2A().Metadata["source"] = "test"

	require.NoError(t, store.Save(ctx, task.ToA2A()))

	got, err := store.Get(ctx, task.ID())
	require.NoError(t, err)
	assert.Equal(t, task.ID(), got.ID)
	assert.Equal(t, "ctx-1", got.ContextID)
	assert.Equal(t, a2a.TaskStateSubmitted, got.Status.State)
	require.Len(t, got.History, 1)
	assert.Equal(t, "test", got.Metadata["source"])
}

func TestSQLTaskStoreGetMissingReturnsErrTaskNotFound(t *testing.T) {
	store := openTestSQLStore(t)
	_, err := store.Get(context.Background(), a2a.TaskID("nope"))
	assert.ErrorIs(t, err, a2a.ErrTaskNotFound)
}

func TestSQLTaskStoreSaveUpserts(t *testing.T) {
	store := openTestSQLStore(t)
	ctx := context.Background()

	task := New("ctx-1")
	require.NoError(t, store.Save(ctx, task.ToA2A()))

	task.SetStatus(a2a.TaskStateCompleted, nil)
	require.NoError(t, store.Save(ctx, task.ToA2A()))

	got, err := store.Get(ctx, task.ID())
	require.NoError(t, err)
	assert.Equal(t, a2a.TaskStateCompleted, got.Status.State)
}
