package engine

import (
	"github.com/google/uuid"
)

// IDGenerator issues execution IDs.
// Implemented by UUIDv7Generator and the generators in testutil.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 execution IDs, so log
// lines of consecutive executions sort by start time.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7. Panics if the random source
// fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
