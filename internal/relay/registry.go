package relay

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/mentora/realtime/internal/observability"
)

// Conn is a non-owning handle to one client's outbound channel. Send must not
// block: implementations queue the message and report an error when the
// connection is gone or its buffer is full.
type Conn interface {
	Send(message []byte) error
}

// pathSep joins key segments into a flat composite key. The unit separator
// cannot appear in room, document, or client identifiers taken from URL path
// segments, so joined keys never collide.
const pathSep = "\x1f"

// Registry maps hierarchical key paths to live connections and fans messages
// out to every connection under a path prefix. It stores leaves in a single
// flat map keyed by the joined path; grouping for counts, presence lists, and
// broadcast targets is derived on demand, so there are no intermediate
// containers to prune and none can linger empty.
//
// All operations are atomic with respect to each other. Broadcast iterates a
// point-in-time snapshot of recipients taken under the read lock, then sends
// without holding it: a concurrent register or unregister cannot corrupt the
// iteration, and delivery is at-most-once per snapshot.
type Registry struct {
	name    string
	metrics *observability.Metrics

	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry creates an empty registry. The name labels log lines and
// metrics ("collab" or "chat").
func NewRegistry(name string, metrics *observability.Metrics) *Registry {
	return &Registry{
		name:    name,
		metrics: metrics,
		conns:   make(map[string]Conn),
	}
}

// Register inserts conn at the leaf addressed by path, replacing any
// connection already registered there. It always succeeds.
func (r *Registry) Register(path []string, conn Conn) {
	key := joinPath(path)

	r.mu.Lock()
	r.conns[key] = conn
	r.mu.Unlock()
}

// Unregister removes the leaf addressed by path and reports whether anything
// was removed. Removal is strictly event-driven: only the transport's own
// disconnect signal reaches this method, never a failed send, so a connection
// cannot be removed from two code paths concurrently.
func (r *Registry) Unregister(path []string) bool {
	key := joinPath(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[key]; !ok {
		return false
	}
	delete(r.conns, key)
	return true
}

// CountAt returns the number of leaf connections under the given prefix.
// An empty prefix counts every connection; an unknown prefix counts zero.
func (r *Registry) CountAt(prefix []string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for key := range r.conns {
		if matchesPrefix(key, prefix) {
			count++
		}
	}
	return count
}

// KeysAt returns the sorted immediate child segments under the given prefix:
// the registered client keys for a (room, document) prefix, or the room keys
// for an empty prefix. Derived on every call, never cached.
func (r *Registry) KeysAt(prefix []string) []string {
	joined := joinPath(prefix)

	r.mu.RLock()
	seen := make(map[string]struct{})
	for key := range r.conns {
		if !matchesPrefix(key, prefix) {
			continue
		}
		rest := key
		if joined != "" {
			rest = key[len(joined)+len(pathSep):]
		}
		if i := strings.Index(rest, pathSep); i >= 0 {
			rest = rest[:i]
		}
		seen[rest] = struct{}{}
	}
	r.mu.RUnlock()

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Broadcast delivers payload to every connection under path except the one
// whose leaf segment equals exclude (pass "" to exclude nobody). Non-text
// payloads are serialized to JSON first. Delivery is best-effort per
// recipient: a failed send is logged and counted but aborts neither the loop
// nor the failing connection's registration. It returns the number of
// successful deliveries.
func (r *Registry) Broadcast(path []string, payload any, exclude string) int {
	data, err := encodePayload(payload)
	if err != nil {
		log.Printf("%s registry: cannot encode broadcast payload: %v", r.name, err)
		return 0
	}

	type target struct {
		leaf string
		conn Conn
	}

	r.mu.RLock()
	targets := make([]target, 0, len(r.conns))
	for key, conn := range r.conns {
		if !matchesPrefix(key, path) {
			continue
		}
		leaf := key
		if i := strings.LastIndex(key, pathSep); i >= 0 {
			leaf = key[i+len(pathSep):]
		}
		if exclude != "" && leaf == exclude {
			continue
		}
		targets = append(targets, target{leaf: leaf, conn: conn})
	}
	r.mu.RUnlock()

	delivered := 0
	for _, t := range targets {
		if err := t.conn.Send(data); err != nil {
			log.Printf("%s registry: send to %q failed: %v", r.name, t.leaf, err)
			r.metrics.SendFailed(r.name)
			continue
		}
		delivered++
	}
	return delivered
}

// Dump reconstructs the nested shape of the registry for debug endpoints:
// each level maps a segment to the level below, and leaves map to true.
func (r *Registry) Dump() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	root := make(map[string]any)
	for key := range r.conns {
		segments := strings.Split(key, pathSep)
		level := root
		for i, seg := range segments {
			if i == len(segments)-1 {
				level[seg] = true
				continue
			}
			next, ok := level[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				level[seg] = next
			}
			level = next
		}
	}
	return root
}

func joinPath(path []string) string {
	return strings.Join(path, pathSep)
}

// matchesPrefix reports whether the composite key lies at or under the given
// segment prefix. An empty prefix matches every key.
func matchesPrefix(key string, prefix []string) bool {
	if len(prefix) == 0 {
		return true
	}
	joined := joinPath(prefix)
	return key == joined || strings.HasPrefix(key, joined+pathSep)
}

// encodePayload passes text payloads through untouched and serializes
// everything else to JSON.
func encodePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		return json.Marshal(p)
	}
}
