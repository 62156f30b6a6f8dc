package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commit executes a script and commits its result, failing the test if the
// script did not succeed.
func commit(t *testing.T, e *Engine, src string) *Result {
	t.Helper()
	res := e.Execute(src)
	require.True(t, res.Success, "script failed: %s", res.Error)
	e.History().AddEntry(src, res)
	return res
}

func TestHistory_EmptyStack(t *testing.T) {
	e := newTestEngine(t)
	h := e.History()

	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.False(t, h.Undo())
	assert.False(t, h.Redo())
	assert.Equal(t, -1, h.Cursor())
}

func TestHistory_UndoRedoRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	empty := e.World().Snapshot()

	commit(t, e, `game.create("duck", "Waddles")`)
	after := e.World().Snapshot()

	require.True(t, e.History().Undo())
	assert.Equal(t, empty, e.World().Snapshot())

	require.True(t, e.History().Redo())
	assert.Equal(t, after, e.World().Snapshot())
}

// Undoing three commands must unwind them newest-first; redoing must
// replay oldest-first. The full round trip restores the exact state.
func TestHistory_ThreeCreatesUndoAllRedoAll(t *testing.T) {
	e := newTestEngine(t)

	commit(t, e, `game.create("duck", "A")`)
	commit(t, e, `game.create("duck", "B")`)
	commit(t, e, `game.create("duck", "C")`)
	full := e.World().Snapshot()

	h := e.History()
	require.True(t, h.Undo())
	require.True(t, h.Undo())
	require.True(t, h.Undo())
	assert.Equal(t, 0, e.World().EntityCount())
	assert.False(t, h.CanUndo())

	require.True(t, h.Redo())
	require.True(t, h.Redo())
	require.True(t, h.Redo())
	assert.Equal(t, full, e.World().Snapshot())
	assert.False(t, h.CanRedo())

	// Listing order survived the round trip.
	ents := e.World().Entities()
	require.Len(t, ents, 3)
	assert.Equal(t, "A", ents[0].Name)
	assert.Equal(t, "C", ents[2].Name)
}

// A mixed entry (update + remove + player move) must undo as a unit.
func TestHistory_CompoundEntryUndoesAsUnit(t *testing.T) {
	e := newTestEngine(t)
	commit(t, e, `game.create("duck", "Waddles", {x: 5})`)
	mid := e.World().Snapshot()

	commit(t, e, `
let id = game.find("Waddles")
game.update(id, {x: 50})
game.movePlayer(10, 0)
game.remove(id)
`)
	require.True(t, e.History().Undo())
	assert.Equal(t, mid, e.World().Snapshot())
}

func TestHistory_CommitAfterUndoDiscardsRedo(t *testing.T) {
	e := newTestEngine(t)
	h := e.History()

	commit(t, e, `game.create("duck", "A")`)
	commit(t, e, `game.create("duck", "B")`)

	require.True(t, h.Undo()) // B gone
	assert.True(t, h.CanRedo())

	commit(t, e, `game.create("duck", "C")`)

	// The fork discarded B's redo entry for good.
	assert.False(t, h.CanRedo())
	assert.False(t, h.Redo())
	assert.Equal(t, 2, h.Len())

	names := []string{}
	for _, ent := range e.World().Entities() {
		names = append(names, ent.Name)
	}
	assert.Equal(t, []string{"A", "C"}, names)
}

func TestHistory_RedoFidelityAfterRecreate(t *testing.T) {
	e := newTestEngine(t)
	h := e.History()

	commit(t, e, `game.create("duck", "A")`)
	commit(t, e, `
let id = game.find("A")
game.update(id, {color: "red"})
`)

	// Undo both, redo both: the update's forward snapshot still targets
	// the restored entity because restoration reuses the original id.
	require.True(t, h.Undo())
	require.True(t, h.Undo())
	require.True(t, h.Redo())
	require.True(t, h.Redo())

	ent, ok := e.World().Entity("ent-1")
	require.True(t, ok)
	assert.Equal(t, "red", ent.Color)
}

func TestHistory_NoOpEntryCommits(t *testing.T) {
	e := newTestEngine(t)
	commit(t, e, `game.say("just talking")`)

	h := e.History()
	assert.Equal(t, 1, h.Len())
	assert.True(t, h.Undo()) // nothing to unwind, still steps the cursor
	assert.True(t, h.Redo())
}

func TestHistory_FailedScriptIsNotCommitted(t *testing.T) {
	e := newTestEngine(t)
	res := e.Execute(`boom()`)
	require.False(t, res.Success)

	assert.Equal(t, 0, e.History().Len())
}

func TestHistory_MaxEntriesDropsOldest(t *testing.T) {
	e := newTestEngine(t, WithMaxHistory(2))
	h := e.History()

	commit(t, e, `game.create("duck", "A")`)
	commit(t, e, `game.create("duck", "B")`)
	commit(t, e, `game.create("duck", "C")`)

	require.Equal(t, 2, h.Len())
	entries := h.Entries()
	assert.Contains(t, entries[0].UserInput, "B")
	assert.Contains(t, entries[1].UserInput, "C")

	// Undo stops at the trimmed boundary: A can no longer be undone.
	require.True(t, h.Undo())
	require.True(t, h.Undo())
	assert.False(t, h.CanUndo())
	assert.Equal(t, 1, e.World().EntityCount())
}

func TestHistory_EntriesReturnsCopy(t *testing.T) {
	e := newTestEngine(t)
	commit(t, e, `game.create("duck", "A")`)

	entries := e.History().Entries()
	entries[0].UserInput = "tampered"
	assert.NotEqual(t, "tampered", e.History().Entries()[0].UserInput)
}

func TestHistory_Clear(t *testing.T) {
	e := newTestEngine(t)
	commit(t, e, `game.create("duck", "A")`)

	h := e.History()
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, -1, h.Cursor())
	assert.False(t, h.Undo())

	// Clearing history does not touch the world.
	assert.Equal(t, 1, e.World().EntityCount())
}

func TestHistory_EntryIDsAndTimestamps(t *testing.T) {
	e := newTestEngine(t)
	commit(t, e, `game.say("hi")`)

	entries := e.History().Entries()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}
