package relay

import (
	"log"

	"github.com/mentora/realtime/internal/observability"
)

// RoomService is the collaborator that owns room metadata. The relays only
// need creation-on-miss to be an explicit idempotent operation.
type RoomService interface {
	EnsureRoom(id string)
}

// CollabRelay fans document updates and awareness among the clients editing
// the same document. Connections are keyed by (room, document, client); a
// later connect under the same triple replaces the earlier connection without
// counting as a disconnect.
type CollabRelay struct {
	registry *Registry
	rooms    RoomService
	metrics  *observability.Metrics
}

// NewCollabRelay creates a collaboration relay over its own registry.
func NewCollabRelay(rooms RoomService, metrics *observability.Metrics) *CollabRelay {
	return &CollabRelay{
		registry: NewRegistry("collab", metrics),
		rooms:    rooms,
		metrics:  metrics,
	}
}

// Connect registers the client's connection and broadcasts a fresh awareness
// snapshot to everyone in the (room, document), the new client included.
func (cl *CollabRelay) Connect(room, document, client string, conn Conn) {
	cl.registry.Register([]string{room, document, client}, conn)
	cl.rooms.EnsureRoom(room)
	cl.metrics.ConnectionOpened("collab")

	log.Printf("collab: connected room=%s document=%s client=%s", room, document, client)
	cl.broadcastAwareness(room, document)
}

// HandleMessage classifies one inbound payload and routes it: sync and opaque
// updates are relayed to everyone except the sender, awareness to everyone,
// and ping is answered directly. A message for a (room, document) with no
// other registered clients fans out to the sender's singleton set, which for
// the excluded kinds is a no-op rather than an error.
func (cl *CollabRelay) HandleMessage(room, document, client string, conn Conn, data []byte) {
	kind := ClassifyCollab(data)
	switch kind {
	case KindPing:
		if err := conn.Send(pongPayload); err != nil {
			log.Printf("collab: pong to client=%s failed: %v", client, err)
			cl.metrics.SendFailed("collab")
		}
	case KindAwareness:
		cl.metrics.MessageRelayed("collab", kind.String())
		cl.registry.Broadcast([]string{room, document}, data, "")
	default: // KindSync and KindOpaque
		cl.metrics.MessageRelayed("collab", kind.String())
		cl.registry.Broadcast([]string{room, document}, data, client)
	}
}

// Disconnect removes the client's registration. When something was actually
// removed it re-broadcasts awareness to the remaining participants and
// reports true.
func (cl *CollabRelay) Disconnect(room, document, client string) bool {
	if !cl.registry.Unregister([]string{room, document, client}) {
		return false
	}
	cl.metrics.ConnectionClosed("collab")

	log.Printf("collab: disconnected room=%s document=%s client=%s", room, document, client)
	cl.broadcastAwareness(room, document)
	return true
}

// broadcastAwareness recomputes the presence set for the document and sends
// it to every participant. The set is derived from the registry on each call,
// never cached.
func (cl *CollabRelay) broadcastAwareness(room, document string) {
	users := cl.registry.KeysAt([]string{room, document})
	env := awarenessEnvelope{
		Type:  "awareness",
		Users: users,
		Count: len(users),
	}
	cl.registry.Broadcast([]string{room, document}, env, "")
}

// ActiveUsers returns the live participant count across all documents of a
// room, consumed by the room metadata service.
func (cl *CollabRelay) ActiveUsers(room string) int {
	return cl.registry.CountAt([]string{room})
}

// DocumentUsers returns the live participant count for one document.
func (cl *CollabRelay) DocumentUsers(room, document string) int {
	return cl.registry.CountAt([]string{room, document})
}

// DumpConnections returns the nested room/document/client shape of the
// registry for the debug endpoint.
func (cl *CollabRelay) DumpConnections() map[string]any {
	return cl.registry.Dump()
}
