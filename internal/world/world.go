// Package world holds the mutable game state: the entity table, the player,
// and world settings.
//
// Entities are addressed only by their string id through the owning World
// table, never by direct reference. Every read returns a copy and every
// write takes a full value, so callers cannot hold an alias into the table.
// This is what makes stored before/after snapshots safe: deleting and
// recreating an entity cannot produce a dangling reference, only a stale id.
//
// The World has no locking. The engine is single-threaded by design: one
// script executes at a time and undo/redo never overlaps an execution.
package world

import (
	"slices"
	"strings"
)

// Entity is one object in the game world.
//
// Seq is assigned by the World when the entity is first inserted and is
// preserved across remove/recreate round trips so that listing order is
// stable under undo and redo.
type Entity struct {
	ID        string   `json:"id"`
	Seq       int64    `json:"seq"`
	Kind      string   `json:"kind"`
	Name      string   `json:"name"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Size      float64  `json:"size"`
	Speed     float64  `json:"speed"`
	Color     string   `json:"color"`
	Behaviors []string `json:"behaviors,omitempty"`
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	c := e
	if e.Behaviors != nil {
		c.Behaviors = slices.Clone(e.Behaviors)
	}
	return c
}

// HasBehavior reports whether the entity carries the named behavior.
func (e Entity) HasBehavior(name string) bool {
	return slices.Contains(e.Behaviors, name)
}

// Player is the player's state.
type Player struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Speed  float64  `json:"speed"`
	Score  int64    `json:"score"`
	Powers []string `json:"powers,omitempty"`
}

// Clone returns a deep copy of the player.
func (p Player) Clone() Player {
	c := p
	if p.Powers != nil {
		c.Powers = slices.Clone(p.Powers)
	}
	return c
}

// Settings holds world-level presentation state.
type Settings struct {
	SkyColor    string `json:"sky_color"`
	GroundColor string `json:"ground_color"`
}

// World owns all mutable game state.
type World struct {
	entities map[string]Entity
	player   Player
	settings Settings
	nextSeq  int64
}

// New creates an empty world with the given player and settings.
func New(player Player, settings Settings) *World {
	return &World{
		entities: make(map[string]Entity),
		player:   player,
		settings: settings,
		nextSeq:  1,
	}
}

// NextSeq returns a fresh sequence number for a new entity.
func (w *World) NextSeq() int64 {
	seq := w.nextSeq
	w.nextSeq++
	return seq
}

// Entity returns a copy of the entity with the given id.
func (w *World) Entity(id string) (Entity, bool) {
	e, ok := w.entities[id]
	if !ok {
		return Entity{}, false
	}
	return e.Clone(), true
}

// PutEntity inserts or replaces an entity by its id.
// The stored value is a copy; the caller's value is not aliased.
//
// If the entity carries a Seq at or past the world's counter, the counter
// advances past it so future entities never collide. This keeps sequence
// numbers unique when a removed entity is restored by undo.
func (w *World) PutEntity(e Entity) {
	if e.Seq >= w.nextSeq {
		w.nextSeq = e.Seq + 1
	}
	w.entities[e.ID] = e.Clone()
}

// RemoveEntity deletes the entity with the given id.
// Returns false if no such entity exists.
func (w *World) RemoveEntity(id string) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	delete(w.entities, id)
	return true
}

// Entities returns copies of all entities ordered by insertion sequence.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e.Clone())
	}
	slices.SortFunc(out, func(a, b Entity) int {
		if a.Seq != b.Seq {
			if a.Seq < b.Seq {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// EntityCount returns the number of entities in the world.
func (w *World) EntityCount() int {
	return len(w.entities)
}

// FindByName returns the id of the first entity (in sequence order) whose
// name matches exactly. Returns "" if none match.
func (w *World) FindByName(name string) string {
	var best Entity
	found := false
	for _, e := range w.entities {
		if e.Name != name {
			continue
		}
		if !found || e.Seq < best.Seq {
			best = e
			found = true
		}
	}
	if !found {
		return ""
	}
	return best.ID
}

// Player returns a copy of the player state.
func (w *World) Player() Player {
	return w.player.Clone()
}

// SetPlayer replaces the player state.
func (w *World) SetPlayer(p Player) {
	w.player = p.Clone()
}

// Settings returns the world settings.
func (w *World) Settings() Settings {
	return w.settings
}

// SetSettings replaces the world settings.
func (w *World) SetSettings(s Settings) {
	w.settings = s
}

// Snapshot is a value copy of the entire world, used by tests and the
// scenario harness to compare states across undo/redo round trips.
type Snapshot struct {
	Entities []Entity `json:"entities"`
	Player   Player   `json:"player"`
	Settings Settings `json:"settings"`
}

// Snapshot captures the full world state by value.
func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Entities: w.Entities(),
		Player:   w.Player(),
		Settings: w.Settings(),
	}
}
