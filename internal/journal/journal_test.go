package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyzhao/duck-game/internal/engine"
	"github.com/wesleyzhao/duck-game/internal/world"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func testEntry(id string, at time.Time, input string) engine.Entry {
	ent := world.Entity{ID: "e-1", Seq: 1, Kind: "duck", Name: "Waddles"}
	return engine.Entry{
		ID:        id,
		Timestamp: at,
		UserInput: input,
		Result: &engine.Result{
			Success: true,
			Message: "Done!",
			Changes: []engine.Change{{
				Kind:        "create",
				Description: `created duck "Waddles"`,
				Forward:     engine.Mutation{Op: engine.OpPutEntity, Entity: &ent},
				Reverse:     engine.Mutation{Op: engine.OpRemoveEntity, EntityID: "e-1"},
			}},
		},
	}
}

func TestOpen_CreatesSchema(t *testing.T) {
	j := openTestJournal(t)
	n, err := j.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOpen_ExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, testEntry("a", time.Now(), "x = 1")))
	require.NoError(t, j.Close())

	// Reopening must see the same data and tolerate the schema re-apply.
	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAppend_RoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	at := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	require.NoError(t, j.Append(ctx, testEntry("a", at, `game.create("duck", "Waddles")`)))

	entries, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, at, got.Timestamp)
	assert.Equal(t, `game.create("duck", "Waddles")`, got.UserInput)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Success)
	assert.Equal(t, "Done!", got.Result.Message)

	// The tagged commands survive the JSON round trip intact.
	require.Len(t, got.Result.Changes, 1)
	c := got.Result.Changes[0]
	assert.Equal(t, engine.OpPutEntity, c.Forward.Op)
	require.NotNil(t, c.Forward.Entity)
	assert.Equal(t, "Waddles", c.Forward.Entity.Name)
	assert.Equal(t, "e-1", c.Reverse.EntityID)
}

func TestAppend_IdempotentOnID(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	entry := testEntry("a", time.Now(), "x = 1")
	require.NoError(t, j.Append(ctx, entry))
	require.NoError(t, j.Append(ctx, entry))

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAppend_NilResult(t *testing.T) {
	j := openTestJournal(t)
	err := j.Append(context.Background(), engine.Entry{ID: "a"})
	require.Error(t, err)
}

func TestList_OrderAndLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	require.NoError(t, j.Append(ctx, testEntry("b", base.Add(time.Second), "second")))
	require.NoError(t, j.Append(ctx, testEntry("a", base, "first")))
	require.NoError(t, j.Append(ctx, testEntry("c", base.Add(2*time.Second), "third")))

	entries, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].UserInput)
	assert.Equal(t, "third", entries[2].UserInput)

	limited, err := j.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
