package engine

import "time"

// DefaultMaxHistory bounds the history stack so a long session cannot
// grow it without limit. Committing past the cap drops the oldest entry.
const DefaultMaxHistory = 200

// Entry is one committed execution in the history.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserInput string    `json:"user_input"`
	Result    *Result   `json:"result"`
}

// History is the session-wide undo/redo ledger over committed Results.
//
// State is an ordered entry list plus a cursor: the index of the most
// recently committed, not-yet-undone entry, or -1 when nothing is
// committed. Committing while the cursor is behind the tail discards the
// redo tail — redo history never survives a fork.
//
// Like the Engine it belongs to, History is single-threaded.
type History struct {
	eng     *Engine
	entries []Entry
	cursor  int
	max     int
	now     func() time.Time
}

func newHistory(eng *Engine, max int) *History {
	return &History{
		eng:    eng,
		cursor: -1,
		max:    max,
		now:    time.Now,
	}
}

// AddEntry commits a result: truncates everything after the cursor,
// appends, and moves the cursor to the new last index. Always succeeds.
//
// Only successful results belong in the history; a rolled-back execution
// has nothing to undo. A successful result with zero changes (a script
// that only queried or spoke) is committed as a harmless no-op entry.
func (h *History) AddEntry(userInput string, result *Result) {
	h.entries = h.entries[:h.cursor+1]
	h.entries = append(h.entries, Entry{
		ID:        h.eng.ids.NewID(),
		Timestamp: h.now(),
		UserInput: userInput,
		Result:    result,
	})
	h.cursor = len(h.entries) - 1

	if h.max > 0 && len(h.entries) > h.max {
		drop := len(h.entries) - h.max
		h.entries = append([]Entry(nil), h.entries[drop:]...)
		h.cursor -= drop
	}

	h.eng.logger.Debug("history entry committed",
		"id", h.entries[h.cursor].ID,
		"changes", len(result.Changes),
		"depth", len(h.entries),
	)
}

// Undo reverses the entry at the cursor and steps the cursor back.
// Returns false when there is nothing to undo.
func (h *History) Undo() bool {
	if h.cursor < 0 {
		return false
	}
	entry := h.entries[h.cursor]
	rollback(h.eng.world, entry.Result.Changes, h.eng.logger)
	h.cursor--
	h.eng.logger.Debug("undid entry", "id", entry.ID)
	return true
}

// Redo re-applies the entry ahead of the cursor, replaying its Forward
// commands in original recording order. Returns false when there is
// nothing to redo.
func (h *History) Redo() bool {
	if h.cursor >= len(h.entries)-1 {
		return false
	}
	entry := h.entries[h.cursor+1]
	reapply(h.eng.world, entry.Result.Changes, h.eng.logger)
	h.cursor++
	h.eng.logger.Debug("redid entry", "id", entry.ID)
	return true
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool {
	return h.cursor >= 0
}

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Len returns the number of entries, including undone ones still ahead of
// the cursor.
func (h *History) Len() int {
	return len(h.entries)
}

// Cursor returns the current cursor index (-1 when nothing is committed).
func (h *History) Cursor() int {
	return h.cursor
}

// Entries returns a copy of the entry list, oldest first.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clear discards all entries and resets the cursor.
func (h *History) Clear() {
	h.entries = nil
	h.cursor = -1
}
