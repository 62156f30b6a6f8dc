package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyzhao/duck-game/internal/world"
)

// newTestEngine creates a deterministic engine over a default world.
func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	w := world.New(
		world.Player{X: 100, Y: 300, Speed: 5},
		world.Settings{SkyColor: "skyblue", GroundColor: "green"},
	)
	base := []EngineOption{
		WithIDGenerator(NewSequenceGenerator("ent")),
		WithRandSeed(42),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(w, append(base, opts...)...)
}

func TestExecute_Success(t *testing.T) {
	e := newTestEngine(t)
	res := e.Execute(`game.create("duck", "Waddles")`)

	require.True(t, res.Success)
	assert.Equal(t, DefaultSuccessMessage, res.Message)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, "create", res.Changes[0].Kind)
	assert.Equal(t, 1, e.World().EntityCount())
}

func TestExecute_MessageIsLastSay(t *testing.T) {
	e := newTestEngine(t)
	res := e.Execute(`
game.say("first")
game.say("second")
`)
	require.True(t, res.Success)
	assert.Equal(t, "second", res.Message)
	assert.Equal(t, []string{"first", "second"}, res.Says)
}

func TestExecute_SyntaxErrorRollsNothingBack(t *testing.T) {
	e := newTestEngine(t)
	res := e.Execute(`game.create("duck"`)

	require.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Changes)
	assert.Equal(t, 0, e.World().EntityCount())
}

// A mid-script runtime error must roll back every mutation already made,
// leaving the world byte-identical to the pre-execution state.
func TestExecute_RuntimeErrorRollsBackAllChanges(t *testing.T) {
	e := newTestEngine(t)
	before := e.World().Snapshot()

	res := e.Execute(`
let id = game.create("duck", "Waddles")
game.update(id, {x: 50})
game.teleportPlayer(1, 2)
boom()
`)
	require.False(t, res.Success)
	assert.Empty(t, res.Changes)
	assert.Equal(t, before, e.World().Snapshot())
}

func TestExecute_BudgetExhaustionRollsBackAndFlagsTimeout(t *testing.T) {
	e := newTestEngine(t, WithStepLimit(500))
	before := e.World().Snapshot()

	res := e.Execute(`
game.create("duck", "Waddles")
while true { }
`)
	require.False(t, res.Success)
	assert.True(t, res.TimedOut)
	assert.Empty(t, res.Changes)
	assert.Equal(t, before, e.World().Snapshot())
}

func TestExecute_FreshAPIPerCall(t *testing.T) {
	e := newTestEngine(t)

	res1 := e.Execute(`game.say("one")`)
	res2 := e.Execute(`game.create("duck", "Waddles")`)

	// Says from the first execution must not leak into the second.
	require.True(t, res2.Success)
	assert.Equal(t, []string{"one"}, res1.Says)
	assert.Empty(t, res2.Says)
}

func TestExecute_RollbackOrderIsStrictlyReversed(t *testing.T) {
	e := newTestEngine(t)

	// The failing script first creates an entity, then updates it twice.
	// Rollback must unwind the updates before the create, or the remove
	// would hit a missing entity.
	res := e.Execute(`
let id = game.create("duck", "Waddles")
game.update(id, {x: 1})
game.update(id, {x: 2})
boom()
`)
	require.False(t, res.Success)
	assert.Equal(t, 0, e.World().EntityCount())
}

// Stale replay targets are skipped with a warning; the remaining commands
// still apply.
func TestApplyMutation_StaleTargetIsNoOp(t *testing.T) {
	e := newTestEngine(t)

	res := e.Execute(`game.create("duck", "Waddles")`)
	require.True(t, res.Success)

	// Remove the entity behind history's back, then replay the change's
	// reverse (a remove of the now-missing entity).
	e.World().RemoveEntity(res.Changes[0].Forward.Entity.ID)
	rollback(e.World(), res.Changes, e.logger)
	assert.Equal(t, 0, e.World().EntityCount())

	// Reapplying forward restores it.
	reapply(e.World(), res.Changes, e.logger)
	assert.Equal(t, 1, e.World().EntityCount())
}

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGenerator("ent")
	assert.Equal(t, "ent-1", g.NewID())
	assert.Equal(t, "ent-2", g.NewID())
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.NewID(), g.NewID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
