package relay

import "sync"

// DefaultHistoryLimit is the number of chat messages retained per room.
const DefaultHistoryLimit = 50

// historyBuffer holds the most recent chat messages of one room, oldest
// first. Appending beyond the limit evicts from the front. Buffers are
// created lazily and never destroyed: they are bounded, and keeping them lets
// a room that empties and refills retain continuity.
type historyBuffer struct {
	mu       sync.Mutex
	limit    int
	messages []ChatMessage
}

func newHistoryBuffer(limit int) *historyBuffer {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &historyBuffer{limit: limit}
}

func (b *historyBuffer) append(msg ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = append(b.messages, msg)
	if len(b.messages) > b.limit {
		b.messages = b.messages[len(b.messages)-b.limit:]
	}
}

// snapshot returns a copy of the buffer contents, never nil, so the history
// envelope always serializes as a JSON array.
func (b *historyBuffer) snapshot() []ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]ChatMessage, len(b.messages))
	copy(out, b.messages)
	return out
}

func (b *historyBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}
