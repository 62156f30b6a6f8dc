package engine

import (
	"errors"
	"fmt"

	"github.com/wesleyzhao/duck-game/internal/world"
)

// Op tags a mutation command with the state it touches.
type Op string

const (
	// OpPutEntity inserts or restores a full entity snapshot. It succeeds
	// unconditionally; the snapshot carries its own Seq.
	OpPutEntity Op = "put_entity"
	// OpSetEntity replaces an existing entity with a snapshot. The target
	// must exist.
	OpSetEntity Op = "set_entity"
	// OpRemoveEntity deletes the entity with EntityID. The target must
	// exist.
	OpRemoveEntity Op = "remove_entity"
	// OpSetPlayer replaces the player state with a snapshot.
	OpSetPlayer Op = "set_player"
	// OpSetSettings replaces the world settings with a snapshot.
	OpSetSettings Op = "set_settings"
)

// ErrStaleTarget marks a replayed command whose target entity no longer
// exists. Replay treats it as a logged no-op, never a hard failure.
var ErrStaleTarget = errors.New("mutation target no longer exists")

// Mutation is one replayable command: an op plus the full by-value
// snapshot it writes. Commands carry data, not closures, so they survive
// JSON round trips through the journal and golden traces, and so undo and
// redo restore exact states rather than re-deriving them.
type Mutation struct {
	Op       Op              `json:"op"`
	EntityID string          `json:"entity_id,omitempty"`
	Entity   *world.Entity   `json:"entity,omitempty"`
	Player   *world.Player   `json:"player,omitempty"`
	Settings *world.Settings `json:"settings,omitempty"`
}

// Apply executes the command against a world.
func (m Mutation) Apply(w *world.World) error {
	switch m.Op {
	case OpPutEntity:
		if m.Entity == nil {
			return fmt.Errorf("%s: missing entity snapshot", m.Op)
		}
		w.PutEntity(*m.Entity)
		return nil

	case OpSetEntity:
		if m.Entity == nil {
			return fmt.Errorf("%s: missing entity snapshot", m.Op)
		}
		if _, ok := w.Entity(m.Entity.ID); !ok {
			return fmt.Errorf("%s %s: %w", m.Op, m.Entity.ID, ErrStaleTarget)
		}
		w.PutEntity(*m.Entity)
		return nil

	case OpRemoveEntity:
		if m.EntityID == "" {
			return fmt.Errorf("%s: missing entity id", m.Op)
		}
		if !w.RemoveEntity(m.EntityID) {
			return fmt.Errorf("%s %s: %w", m.Op, m.EntityID, ErrStaleTarget)
		}
		return nil

	case OpSetPlayer:
		if m.Player == nil {
			return fmt.Errorf("%s: missing player snapshot", m.Op)
		}
		w.SetPlayer(*m.Player)
		return nil

	case OpSetSettings:
		if m.Settings == nil {
			return fmt.Errorf("%s: missing settings snapshot", m.Op)
		}
		w.SetSettings(*m.Settings)
		return nil

	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
}

// Change is one recorded world mutation: a Forward command that redoes it
// and a Reverse command that undoes it. The capability surface records a
// Change for every mutation at the moment it happens, with the Reverse
// built from the pre-mutation snapshot.
type Change struct {
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Forward     Mutation `json:"forward"`
	Reverse     Mutation `json:"reverse"`
}
