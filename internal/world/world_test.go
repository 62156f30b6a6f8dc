package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld() *World {
	return New(
		Player{X: 100, Y: 300, Speed: 5},
		Settings{SkyColor: "skyblue", GroundColor: "green"},
	)
}

func TestPutEntity_ReadsReturnCopies(t *testing.T) {
	w := newTestWorld()
	w.PutEntity(Entity{ID: "a", Seq: w.NextSeq(), Name: "Waddles", Behaviors: []string{"wander"}})

	got, ok := w.Entity("a")
	require.True(t, ok)

	// Mutating the returned copy must not touch the stored entity.
	got.Name = "changed"
	got.Behaviors[0] = "changed"

	again, ok := w.Entity("a")
	require.True(t, ok)
	assert.Equal(t, "Waddles", again.Name)
	assert.Equal(t, []string{"wander"}, again.Behaviors)
}

func TestEntity_Missing(t *testing.T) {
	w := newTestWorld()
	_, ok := w.Entity("nope")
	assert.False(t, ok)
}

func TestRemoveEntity(t *testing.T) {
	w := newTestWorld()
	w.PutEntity(Entity{ID: "a", Seq: w.NextSeq()})

	assert.True(t, w.RemoveEntity("a"))
	assert.False(t, w.RemoveEntity("a"))
	assert.Equal(t, 0, w.EntityCount())
}

func TestEntities_OrderedBySeq(t *testing.T) {
	w := newTestWorld()
	w.PutEntity(Entity{ID: "c", Seq: w.NextSeq(), Name: "first"})
	w.PutEntity(Entity{ID: "a", Seq: w.NextSeq(), Name: "second"})
	w.PutEntity(Entity{ID: "b", Seq: w.NextSeq(), Name: "third"})

	ents := w.Entities()
	require.Len(t, ents, 3)
	assert.Equal(t, "first", ents[0].Name)
	assert.Equal(t, "second", ents[1].Name)
	assert.Equal(t, "third", ents[2].Name)
}

// Restoring a removed entity with its original Seq must keep its place in
// listing order and must not let the world hand out a colliding Seq.
func TestPutEntity_RestorePreservesOrderAndAdvancesSeq(t *testing.T) {
	w := newTestWorld()
	w.PutEntity(Entity{ID: "a", Seq: w.NextSeq(), Name: "first"})
	second := Entity{ID: "b", Seq: w.NextSeq(), Name: "second"}
	w.PutEntity(second)
	w.PutEntity(Entity{ID: "c", Seq: w.NextSeq(), Name: "third"})

	require.True(t, w.RemoveEntity("b"))
	w.PutEntity(second) // restore, e.g. by undo

	ents := w.Entities()
	require.Len(t, ents, 3)
	assert.Equal(t, "second", ents[1].Name)

	// A fresh entity must sort after everything restored.
	w.PutEntity(Entity{ID: "d", Seq: w.NextSeq(), Name: "fourth"})
	ents = w.Entities()
	require.Len(t, ents, 4)
	assert.Equal(t, "fourth", ents[3].Name)
}

func TestFindByName(t *testing.T) {
	w := newTestWorld()
	w.PutEntity(Entity{ID: "x", Seq: w.NextSeq(), Name: "Waddles"})
	w.PutEntity(Entity{ID: "y", Seq: w.NextSeq(), Name: "Waddles"})

	// Lowest sequence wins on duplicate names.
	assert.Equal(t, "x", w.FindByName("Waddles"))
	assert.Equal(t, "", w.FindByName("nobody"))
}

func TestPlayer_CopySemantics(t *testing.T) {
	w := newTestWorld()
	p := w.Player()
	p.Score = 999

	assert.Equal(t, int64(0), w.Player().Score)

	p.Score = 5
	w.SetPlayer(p)
	assert.Equal(t, int64(5), w.Player().Score)
}

func TestSnapshot(t *testing.T) {
	w := newTestWorld()
	w.PutEntity(Entity{ID: "a", Seq: w.NextSeq(), Name: "Waddles"})

	snap := w.Snapshot()
	require.Len(t, snap.Entities, 1)
	assert.Equal(t, "Waddles", snap.Entities[0].Name)
	assert.Equal(t, 5.0, snap.Player.Speed)
	assert.Equal(t, "skyblue", snap.Settings.SkyColor)

	// The snapshot is detached from the world.
	w.RemoveEntity("a")
	assert.Len(t, snap.Entities, 1)
}
