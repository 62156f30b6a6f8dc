package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator produces ids for entities and history entries.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator produces time-ordered UUIDs, so journal rows and entity
// ids sort by creation time.
type UUIDv7Generator struct{}

// NewID returns a fresh UUIDv7 string.
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator produces "prefix-1", "prefix-2", ... for deterministic
// tests and scenario runs.
type SequenceGenerator struct {
	prefix string
	n      int
}

// NewSequenceGenerator creates a sequence generator with the given prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// NewID returns the next id in the sequence.
func (g *SequenceGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
