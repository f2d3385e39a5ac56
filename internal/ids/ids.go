// Package ids provides the id/timestamp source used for chat message and room
// identifiers.
package ids

import (
	"strconv"
	"sync"
	"time"
)

// Generator hands out wall-clock millisecond ids. Two requests landing on the
// same millisecond get consecutive values, so ids from one generator never
// collide; ids from independent processes may, which callers tolerate.
type Generator struct {
	mu   sync.Mutex
	last int64
}

// NewGenerator returns a Generator ready for use.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns the next id as a decimal string.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= g.last {
		now = g.last + 1
	}
	g.last = now
	return strconv.FormatInt(now, 10)
}

// Timestamp returns the current wall-clock time in RFC 3339 form, used for
// room creation timestamps.
func (g *Generator) Timestamp() string {
	return time.Now().Format(time.RFC3339)
}
