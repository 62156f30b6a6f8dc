package engine

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/wesleyzhao/duck-game/internal/script"
	"github.com/wesleyzhao/duck-game/internal/world"
)

// DefaultSuccessMessage is shown when a committed script never called say.
const DefaultSuccessMessage = "Done!"

// Result is the outcome of running one script.
//
// On failure Changes is always empty: the executor has already rolled the
// world back, and the caller must not attempt a second rollback. On
// success Changes holds every recorded mutation in call order; the history
// stack replays Reverse commands backwards for undo and Forward commands
// forwards for redo.
type Result struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Changes []Change `json:"changes,omitempty"`
	Says    []string `json:"says,omitempty"`
	Logs    []string `json:"logs,omitempty"`
	// TimedOut marks a failure caused by the step budget rather than a
	// script bug.
	TimedOut bool `json:"timed_out,omitempty"`
}

// Engine owns one world and executes scripts against it.
//
// Everything is single-threaded by design: Execute runs a script to
// completion synchronously, and the history stack is only touched between
// executions. The engine must not be shared across goroutines.
type Engine struct {
	world     *world.World
	history   *History
	ids       IDGenerator
	rng       *rand.Rand
	stepLimit int
	cheats    bool
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStepLimit sets the script evaluation budget per execution.
func WithStepLimit(n int) EngineOption {
	return func(e *Engine) { e.stepLimit = n }
}

// WithIDGenerator replaces the id generator (tests use SequenceGenerator).
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) { e.ids = g }
}

// WithRandSeed seeds the utility random source for deterministic tests.
func WithRandSeed(seed uint64) EngineOption {
	return func(e *Engine) { e.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithLogger replaces the engine's logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMaxHistory caps the history stack's entry count.
func WithMaxHistory(n int) EngineOption {
	return func(e *Engine) { e.history.max = n }
}

// New creates an Engine over the given world.
func New(w *world.World, opts ...EngineOption) *Engine {
	e := &Engine{
		world:     w,
		ids:       UUIDv7Generator{},
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		stepLimit: script.DefaultStepLimit,
		logger:    slog.Default(),
	}
	e.history = newHistory(e, DefaultMaxHistory)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// World returns the engine's world.
func (e *Engine) World() *world.World {
	return e.world
}

// History returns the engine's undo/redo stack.
func (e *Engine) History() *History {
	return e.history
}

// CheatsEnabled reports whether the session's privilege gate is open.
func (e *Engine) CheatsEnabled() bool {
	return e.cheats
}

// Execute runs one script against a fresh capability surface.
//
// Exactly one attempt is made; any retry policy belongs to the caller.
// On any interpreter error — syntax, runtime, or exhausted step budget —
// every mutation recorded so far is rolled back in reverse order and the
// returned Result carries zero changes. On success the Result carries the
// full change list in call order and the last say text as its message.
//
// The caller decides whether to commit the result onto the history stack;
// a successful Result is committed with History().AddEntry.
func (e *Engine) Execute(input string) *Result {
	in := script.New(script.WithStepLimit(e.stepLimit))
	script.InstallBuiltins(in)
	script.InstallInertGlobals(in)

	a := newAPI(e)
	a.install(in)

	err := in.Run(input)
	if err != nil {
		rollback(e.world, a.changes, e.logger)

		var budget *script.BudgetError
		timedOut := errors.As(err, &budget)
		if timedOut {
			e.logger.Warn("script exceeded step budget", "limit", budget.Limit)
		} else {
			e.logger.Info("script failed", "error", err)
		}
		return &Result{
			Success:  false,
			Error:    err.Error(),
			TimedOut: timedOut,
			Says:     a.says,
			Logs:     a.logs,
		}
	}

	message := DefaultSuccessMessage
	if len(a.says) > 0 {
		message = a.says[len(a.says)-1]
	}
	e.logger.Debug("script committed", "changes", len(a.changes))
	return &Result{
		Success: true,
		Message: message,
		Changes: a.changes,
		Says:    a.says,
		Logs:    a.logs,
	}
}

// rollback applies every change's Reverse in strict reverse order of
// recording. A stale target is logged and skipped; rollback of the
// remaining changes continues.
func rollback(w *world.World, changes []Change, logger *slog.Logger) {
	for i := len(changes) - 1; i >= 0; i-- {
		applyMutation(w, changes[i].Reverse, changes[i].Description, logger)
	}
}

// reapply applies every change's Forward in original recording order.
func reapply(w *world.World, changes []Change, logger *slog.Logger) {
	for i := range changes {
		applyMutation(w, changes[i].Forward, changes[i].Description, logger)
	}
}

// applyMutation runs one command, absorbing stale-target failures.
//
// Policy: a Reverse/Forward command whose entity was deleted by some path
// other than history replay is a logged no-op, never a hard error — undo
// and redo must stay usable even when a later script removed an entity an
// earlier entry refers to.
func applyMutation(w *world.World, m Mutation, description string, logger *slog.Logger) {
	if err := m.Apply(w); err != nil {
		if errors.Is(err, ErrStaleTarget) {
			logger.Warn("skipping stale mutation during replay",
				"op", string(m.Op),
				"description", description,
			)
			return
		}
		// Malformed commands cannot occur through the capability surface;
		// surface loudly if one ever does.
		logger.Error("mutation replay failed",
			"op", string(m.Op),
			"description", description,
			"error", err,
		)
	}
}
