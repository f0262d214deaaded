package eventstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendAndGetByBuildID(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, "b1", "TestEvent", []byte(`{"test":"data"}`), map[string]string{"key": "value"}))
	require.NoError(t, store.Append(ctx, "b2", "TestEvent", nil, nil))

	events, err := store.GetByBuildID(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "TestEvent", events[0].Type())
	require.JSONEq(t, `{"test":"data"}`, string(events[0].Payload()))
	require.Equal(t, "value", events[0].Metadata()["key"])

	events, err = store.GetByBuildID(ctx, "b2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "{}", string(events[0].Payload()))
}

func TestSQLiteStore_GetRange(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i := range 3 {
		store.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		require.NoError(t, store.Append(ctx, "b", "Tick", nil, nil))
	}

	events, err := store.GetRange(ctx, base.Add(30*time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, events[0].Timestamp().Equal(base.Add(time.Hour)))
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), "b", "X", nil, nil))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	events, err := reopened.GetByBuildID(t.Context(), "b")
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestHistory_SummarizesRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	appendAt := func(at time.Time, e *BaseEvent) {
		t.Helper()
		store.now = func() time.Time { return at }
		require.NoError(t, store.AppendEvent(ctx, e))
	}

	started, err := NewGenerateStarted("old", "cli", "/b")
	require.NoError(t, err)
	appendAt(base, started)
	completed, err := NewGenerateCompleted("old", "abcd1234", 4, 1500*time.Millisecond)
	require.NoError(t, err)
	appendAt(base.Add(time.Second), completed)
	started, err = NewGenerateStarted("new", "watch", "/b")
	require.NoError(t, err)
	appendAt(base.Add(time.Minute), started)
	failed, err := NewGenerateFailed("new", "snapshot", errors.New("disk full"), time.Second)
	require.NoError(t, err)
	appendAt(base.Add(time.Minute+time.Second), failed)

	history, err := History(ctx, store, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	require.Equal(t, "new", history[0].BuildID)
	require.Equal(t, StatusFailed, history[0].Status)
	require.Equal(t, "snapshot", history[0].ErrorStage)
	require.Equal(t, "disk full", history[0].Error)
	require.Equal(t, "watch", history[0].Trigger)

	require.Equal(t, StatusCompleted, history[1].Status)
	require.Equal(t, "abcd1234", history[1].Fingerprint)
	require.Equal(t, 4, history[1].Entries)
	require.Equal(t, 1500*time.Millisecond, history[1].Duration)

	limited, err := History(ctx, store, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}
