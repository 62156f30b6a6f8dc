package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyzhao/duck-game/internal/engine"
)

func TestExec_InlineScript(t *testing.T) {
	out, err := runCommand(t, "", "exec", "-e", `game.create("duck", "Waddles")`)
	require.NoError(t, err)
	assert.Contains(t, out, "Done!")
	assert.Contains(t, out, `created duck "Waddles"`)
}

func TestExec_ScriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.duck")
	require.NoError(t, os.WriteFile(path, []byte(`game.say("from file")`), 0o644))

	out, err := runCommand(t, "", "exec", path)
	require.NoError(t, err)
	assert.Contains(t, out, "from file")
}

func TestExec_FailingScriptExitsNonzero(t *testing.T) {
	out, err := runCommand(t, "", "exec", "-e", "explode()")
	require.Error(t, err)
	assert.Contains(t, out, "error:")
}

func TestExec_JSONFormat(t *testing.T) {
	out, err := runCommand(t, "", "--format", "json", "exec", "-e", `game.create("duck", "Waddles")`)
	require.NoError(t, err)

	var res engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, "create", res.Changes[0].Kind)
}

func TestExec_NoScriptGiven(t *testing.T) {
	_, err := runCommand(t, "", "exec")
	require.Error(t, err)
}

func TestExec_BothFileAndInline(t *testing.T) {
	_, err := runCommand(t, "", "exec", "-e", "x = 1", "some-file")
	require.Error(t, err)
}

func TestExec_ConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("world:\n  sky_color: pink\n  ground_color: gray\n"), 0o644))

	out, err := runCommand(t, "", "--config", cfgPath, "exec", "-e", `game.say(game.worldInfo().skyColor)`)
	require.NoError(t, err)
	assert.Contains(t, out, "pink")
}

func TestExec_BadConfigRejected(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("engine:\n  step_limit: -1\n"), 0o644))

	_, err := runCommand(t, "", "--config", cfgPath, "exec", "-e", "x = 1")
	require.Error(t, err)
}
