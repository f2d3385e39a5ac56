package relay

import "encoding/json"

// Kind classifies an inbound payload by its envelope type tag. The set is
// closed: anything that does not parse as a JSON object with a recognized
// "type" falls back to KindOpaque (collaboration) or KindUnknown (chat), which
// preserves pass-through behavior for raw document updates.
type Kind int

const (
	// KindOpaque marks a payload with no recognizable envelope: not JSON, not
	// an object, or carrying an unknown type tag. The collaboration relay
	// treats it as a raw document update.
	KindOpaque Kind = iota
	// KindSync is a document update envelope; the sender already holds the
	// state and is excluded from fan-out.
	KindSync
	// KindAwareness is presence metadata; fan-out is symmetric.
	KindAwareness
	// KindPing requests a direct pong reply and is never fanned out.
	KindPing
	// KindChat is a chat message envelope carrying a ChatMessage.
	KindChat
	// KindUnknown marks a chat payload that matches no recognized envelope
	// and is dropped.
	KindUnknown
)

// String returns the metric label for the kind.
func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindAwareness:
		return "awareness"
	case KindPing:
		return "ping"
	case KindChat:
		return "message"
	case KindUnknown:
		return "unknown"
	default:
		return "opaque"
	}
}

// ChatMessage is one immutable chat history entry. The relay assigns ID on
// arrival when the client did not.
type ChatMessage struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// ChatEnvelope is the client-to-server chat frame for KindChat, and the frame
// rebroadcast to the room after id assignment.
type ChatEnvelope struct {
	Type    string      `json:"type"`
	Message ChatMessage `json:"message"`
}

type awarenessEnvelope struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

type historyEnvelope struct {
	Type     string        `json:"type"`
	Messages []ChatMessage `json:"messages"`
}

var pongPayload = []byte(`{"type":"pong"}`)

// typeProbe extracts only the envelope tag so classification does not depend
// on the rest of the frame.
type typeProbe struct {
	Type string `json:"type"`
}

// ClassifyCollab classifies a collaboration payload. Unparseable input and
// unrecognized tags are opaque, identical handling for text and binary frames.
func ClassifyCollab(data []byte) Kind {
	var probe typeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return KindOpaque
	}
	switch probe.Type {
	case "sync":
		return KindSync
	case "awareness":
		return KindAwareness
	case "ping":
		return KindPing
	default:
		return KindOpaque
	}
}

// ClassifyChat classifies a chat payload. For KindChat the decoded envelope is
// returned alongside the kind; for every other kind the envelope is nil.
func ClassifyChat(data []byte) (Kind, *ChatEnvelope) {
	var probe typeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return KindUnknown, nil
	}

	switch probe.Type {
	case "ping":
		return KindPing, nil
	case "message":
		var env ChatEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return KindUnknown, nil
		}
		return KindChat, &env
	default:
		return KindUnknown, nil
	}
}
