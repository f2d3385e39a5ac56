package relay

import (
	"log"
	"sync"

	"github.com/mentora/realtime/internal/ids"
	"github.com/mentora/realtime/internal/observability"
)

// ChatRelay fans chat messages to every connection in a room and replays a
// bounded recent-history buffer to newly joined connections. Chat has no
// protocol-level client identity; connections are keyed by (room, connection
// id), where the id is assigned by the transport layer.
type ChatRelay struct {
	registry *Registry
	rooms    RoomService
	ids      *ids.Generator
	metrics  *observability.Metrics

	mu      sync.Mutex
	history map[string]*historyBuffer
	limit   int
}

// NewChatRelay creates a chat relay over its own registry. limit bounds the
// per-room history; values <= 0 fall back to DefaultHistoryLimit.
func NewChatRelay(rooms RoomService, gen *ids.Generator, limit int, metrics *observability.Metrics) *ChatRelay {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ChatRelay{
		registry: NewRegistry("chat", metrics),
		rooms:    rooms,
		ids:      gen,
		metrics:  metrics,
		history:  make(map[string]*historyBuffer),
		limit:    limit,
	}
}

// Connect registers the connection in the room, ensures the room and its
// history buffer exist, and sends the current history to the new connection
// only. The history envelope is sent even when the buffer is empty so clients
// get a deterministic first frame.
func (cr *ChatRelay) Connect(room, connID string, conn Conn) {
	cr.registry.Register([]string{room, connID}, conn)
	cr.rooms.EnsureRoom(room)
	cr.metrics.ConnectionOpened("chat")

	log.Printf("chat: connected room=%s conn=%s total=%d", room, connID, cr.registry.CountAt([]string{room}))

	env := historyEnvelope{
		Type:     "history",
		Messages: cr.buffer(room).snapshot(),
	}
	payload, err := encodePayload(env)
	if err != nil {
		log.Printf("chat: cannot encode history for room=%s: %v", room, err)
		return
	}
	if err := conn.Send(payload); err != nil {
		log.Printf("chat: history replay to conn=%s failed: %v", connID, err)
		cr.metrics.SendFailed("chat")
	}
}

// HandleMessage routes one inbound payload. A "message" envelope is stored in
// the room history (assigning an id when absent) and rebroadcast to the whole
// room including the sender; "ping" gets a direct pong; everything else is
// logged and dropped.
func (cr *ChatRelay) HandleMessage(room, connID string, conn Conn, data []byte) {
	kind, env := ClassifyChat(data)
	switch kind {
	case KindChat:
		msg := env.Message
		if msg.ID == "" {
			msg.ID = cr.ids.Next()
		}
		cr.buffer(room).append(msg)

		cr.metrics.MessageRelayed("chat", kind.String())
		cr.registry.Broadcast([]string{room}, ChatEnvelope{Type: "message", Message: msg}, "")
	case KindPing:
		if err := conn.Send(pongPayload); err != nil {
			log.Printf("chat: pong to conn=%s failed: %v", connID, err)
			cr.metrics.SendFailed("chat")
		}
	default:
		log.Printf("chat: dropping unrecognized payload from conn=%s in room=%s", connID, room)
		cr.metrics.MessageDropped("chat")
	}
}

// Disconnect removes the connection from the room. The registry prunes the
// room's connection list when it empties; the history buffer is deliberately
// retained so a room that empties and refills keeps continuity.
func (cr *ChatRelay) Disconnect(room, connID string) bool {
	if !cr.registry.Unregister([]string{room, connID}) {
		return false
	}
	cr.metrics.ConnectionClosed("chat")
	log.Printf("chat: disconnected room=%s conn=%s remaining=%d", room, connID, cr.registry.CountAt([]string{room}))
	return true
}

// History returns the room's retained messages, oldest first.
func (cr *ChatRelay) History(room string) []ChatMessage {
	return cr.buffer(room).snapshot()
}

// Connections returns the live connection count for a room.
func (cr *ChatRelay) Connections(room string) int {
	return cr.registry.CountAt([]string{room})
}

// TotalConnections returns the live connection count across all rooms.
func (cr *ChatRelay) TotalConnections() int {
	return cr.registry.CountAt(nil)
}

// RoomChatStats describes one room in the debug dump.
type RoomChatStats struct {
	Connections  int `json:"connections"`
	MessageCount int `json:"message_count"`
}

// ChatStats is the payload of the chat debug endpoint.
type ChatStats struct {
	ActiveRooms      int                      `json:"active_rooms"`
	TotalConnections int                      `json:"total_connections"`
	Rooms            map[string]RoomChatStats `json:"rooms"`
}

// Stats reports per-room connection and history counts for rooms that
// currently have at least one connection.
func (cr *ChatRelay) Stats() ChatStats {
	roomKeys := cr.registry.KeysAt(nil)

	stats := ChatStats{
		ActiveRooms:      len(roomKeys),
		TotalConnections: cr.registry.CountAt(nil),
		Rooms:            make(map[string]RoomChatStats, len(roomKeys)),
	}
	for _, room := range roomKeys {
		stats.Rooms[room] = RoomChatStats{
			Connections:  cr.registry.CountAt([]string{room}),
			MessageCount: cr.buffer(room).len(),
		}
	}
	return stats
}

// buffer returns the room's history buffer, creating it lazily on first use.
func (cr *ChatRelay) buffer(room string) *historyBuffer {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	buf, ok := cr.history[room]
	if !ok {
		buf = newHistoryBuffer(cr.limit)
		cr.history[room] = buf
	}
	return buf
}
