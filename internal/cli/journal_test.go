package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyzhao/duck-game/internal/engine"
	"github.com/wesleyzhao/duck-game/internal/journal"
)

func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	entry := engine.Entry{
		ID:        "entry-1",
		Timestamp: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		UserInput: `game.create("duck", "Waddles")`,
		Result:    &engine.Result{Success: true, Message: "Done!"},
	}
	require.NoError(t, j.Append(context.Background(), entry))
	return path
}

func TestJournal_List(t *testing.T) {
	path := seedJournal(t)
	out, err := runCommand(t, "", "journal", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "entry-1")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "Waddles")
}

func TestJournal_RequiresDB(t *testing.T) {
	_, err := runCommand(t, "", "journal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--db is required")
}
