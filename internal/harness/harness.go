package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/wesleyzhao/duck-game/internal/config"
	"github.com/wesleyzhao/duck-game/internal/engine"
	"github.com/wesleyzhao/duck-game/internal/world"
)

// TraceEvent is one step's outcome in the scenario trace.
type TraceEvent struct {
	Type    string   `json:"type"` // "execute" | "undo" | "redo"
	Script  string   `json:"script,omitempty"`
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Changes []string `json:"changes,omitempty"` // change kinds in call order
	Ok      *bool    `json:"ok,omitempty"`      // undo/redo return value
}

// Result is a scenario run's outcome.
type Result struct {
	Passed   bool           `json:"passed"`
	Failures []string       `json:"failures,omitempty"`
	Trace    []TraceEvent   `json:"trace"`
	Final    world.Snapshot `json:"final"`
}

// Run executes a scenario against a fresh deterministic engine.
//
// Determinism: sequence ids, a fixed random seed, and a discarded logger
// make the trace reproducible, which is what makes golden comparison
// possible.
func Run(scenario *Scenario) (*Result, error) {
	cfg := config.Default()
	eng := engine.New(cfg.NewWorld(),
		engine.WithIDGenerator(engine.NewSequenceGenerator("ent")),
		engine.WithRandSeed(42),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithStepLimit(cfg.Engine.StepLimit),
		engine.WithMaxHistory(cfg.Engine.MaxHistory),
	)

	result := &Result{Passed: true}
	for i, step := range scenario.Steps {
		event, err := runStep(eng, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.Trace = append(result.Trace, event)
		for _, failure := range checkExpect(step.Expect, event) {
			result.fail(fmt.Sprintf("step %d: %s", i, failure))
		}
	}

	result.Final = eng.World().Snapshot()
	for i, a := range scenario.Assertions {
		for _, failure := range checkAssertion(eng.World(), a) {
			result.fail(fmt.Sprintf("assertion %d (%s): %s", i, a.Type, failure))
		}
	}
	return result, nil
}

func (r *Result) fail(msg string) {
	r.Passed = false
	r.Failures = append(r.Failures, msg)
}

func runStep(eng *engine.Engine, step Step) (TraceEvent, error) {
	switch {
	case step.Script != "":
		res := eng.Execute(step.Script)
		if res.Success {
			eng.History().AddEntry(step.Script, res)
		}
		kinds := make([]string, len(res.Changes))
		for i, c := range res.Changes {
			kinds[i] = c.Kind
		}
		return TraceEvent{
			Type:    "execute",
			Script:  step.Script,
			Success: res.Success,
			Message: res.Message,
			Error:   res.Error,
			Changes: kinds,
		}, nil

	case step.Undo:
		ok := eng.History().Undo()
		return TraceEvent{Type: "undo", Success: true, Ok: &ok}, nil

	case step.Redo:
		ok := eng.History().Redo()
		return TraceEvent{Type: "redo", Success: true, Ok: &ok}, nil

	default:
		return TraceEvent{}, fmt.Errorf("empty step")
	}
}

func checkExpect(expect *Expect, event TraceEvent) []string {
	if expect == nil {
		return nil
	}
	var failures []string
	if expect.Success != nil && event.Success != *expect.Success {
		failures = append(failures, fmt.Sprintf("expected success=%v, got %v (error: %s)",
			*expect.Success, event.Success, event.Error))
	}
	if expect.Message != "" && event.Message != expect.Message {
		failures = append(failures, fmt.Sprintf("expected message %q, got %q",
			expect.Message, event.Message))
	}
	if expect.Changes != nil && len(event.Changes) != *expect.Changes {
		failures = append(failures, fmt.Sprintf("expected %d changes, got %d",
			*expect.Changes, len(event.Changes)))
	}
	if expect.Ok != nil && (event.Ok == nil || *event.Ok != *expect.Ok) {
		failures = append(failures, fmt.Sprintf("expected ok=%v, got %v",
			*expect.Ok, event.Ok))
	}
	return failures
}

func checkAssertion(w *world.World, a Assertion) []string {
	switch a.Type {
	case AssertEntityCount:
		if got := w.EntityCount(); got != a.Count {
			return []string{fmt.Sprintf("expected %d entities, got %d", a.Count, got)}
		}
		return nil

	case AssertEntity:
		id := w.FindByName(a.Name)
		if id == "" {
			return []string{fmt.Sprintf("no entity named %q", a.Name)}
		}
		ent, _ := w.Entity(id)
		return checkFields(a.Fields, entityFields(ent))

	case AssertPlayer:
		p := w.Player()
		return checkFields(a.Fields, map[string]any{
			"x":     p.X,
			"y":     p.Y,
			"speed": p.Speed,
			"score": float64(p.Score),
		})

	case AssertSettings:
		s := w.Settings()
		return checkFields(a.Fields, map[string]any{
			"sky_color":    s.SkyColor,
			"ground_color": s.GroundColor,
		})

	default:
		return []string{fmt.Sprintf("unknown assertion type %q", a.Type)}
	}
}

func entityFields(ent world.Entity) map[string]any {
	behaviors := make([]any, len(ent.Behaviors))
	for i, b := range ent.Behaviors {
		behaviors[i] = b
	}
	return map[string]any{
		"id":        ent.ID,
		"kind":      ent.Kind,
		"name":      ent.Name,
		"x":         ent.X,
		"y":         ent.Y,
		"size":      ent.Size,
		"speed":     ent.Speed,
		"color":     ent.Color,
		"behaviors": behaviors,
	}
}

// checkFields performs a subset match of expected against actual.
// Numbers compare as float64 regardless of how YAML decoded them.
func checkFields(expected map[string]any, actual map[string]any) []string {
	var failures []string
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			failures = append(failures, fmt.Sprintf("unknown field %q", key))
			continue
		}
		if !looseEqual(want, got) {
			failures = append(failures, fmt.Sprintf("field %q: expected %v, got %v", key, want, got))
		}
	}
	return failures
}

func looseEqual(want, got any) bool {
	if wn, ok := toFloat(want); ok {
		gn, ok := toFloat(got)
		return ok && wn == gn
	}
	if wl, ok := want.([]any); ok {
		gl, ok := got.([]any)
		if !ok || len(wl) != len(gl) {
			return false
		}
		for i := range wl {
			if !looseEqual(wl[i], gl[i]) {
				return false
			}
		}
		return true
	}
	return want == got
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
