package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestdataScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	sc, err := LoadScenario(filepath.Join("testdata", name+".yaml"))
	require.NoError(t, err)
	return sc
}

func TestGolden_CreateUndoRedo(t *testing.T) {
	sc := loadTestdataScenario(t, "create-undo-redo")
	result := RunWithGolden(t, sc)
	assert.True(t, result.Passed, "failures: %v", result.Failures)
}

func TestGolden_CheatGate(t *testing.T) {
	sc := loadTestdataScenario(t, "cheat-gate")
	result := RunWithGolden(t, sc)
	assert.True(t, result.Passed, "failures: %v", result.Failures)
}

func TestGolden_RollbackOnError(t *testing.T) {
	sc := loadTestdataScenario(t, "rollback-on-error")
	result := RunWithGolden(t, sc)
	assert.True(t, result.Passed, "failures: %v", result.Failures)
}
