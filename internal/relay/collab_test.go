package relay

import (
	"encoding/json"
	"testing"
)

// recordingRooms captures ensure calls from the relays.
type recordingRooms struct {
	ensured []string
}

func (r *recordingRooms) EnsureRoom(id string) {
	r.ensured = append(r.ensured, id)
}

func decodeAwareness(t *testing.T, data []byte) awarenessEnvelope {
	t.Helper()
	var env awarenessEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("cannot decode awareness payload %q: %v", data, err)
	}
	if env.Type != "awareness" {
		t.Fatalf("expected awareness envelope, got type %q", env.Type)
	}
	return env
}

func TestCollabConnectBroadcastsAwareness(t *testing.T) {
	rooms := &recordingRooms{}
	cl := NewCollabRelay(rooms, nil)

	a := &fakeConn{}
	cl.Connect("R1", "D1", "A", a)

	env := decodeAwareness(t, a.lastMessage(t))
	if env.Count != 1 || len(env.Users) != 1 || env.Users[0] != "A" {
		t.Errorf("awareness after first connect = %+v, want users [A] count 1", env)
	}
	if len(rooms.ensured) != 1 || rooms.ensured[0] != "R1" {
		t.Errorf("EnsureRoom calls = %v, want [R1]", rooms.ensured)
	}

	b := &fakeConn{}
	cl.Connect("R1", "D1", "B", b)

	for name, conn := range map[string]*fakeConn{"A": a, "B": b} {
		env := decodeAwareness(t, conn.lastMessage(t))
		if env.Count != 2 {
			t.Errorf("client %s saw count %d after second connect, want 2", name, env.Count)
		}
		if len(env.Users) != 2 || env.Users[0] != "A" || env.Users[1] != "B" {
			t.Errorf("client %s saw users %v, want [A B]", name, env.Users)
		}
	}
}

func TestCollabDisconnectBroadcastsFreshAwareness(t *testing.T) {
	cl := NewCollabRelay(&recordingRooms{}, nil)

	a := &fakeConn{}
	b := &fakeConn{}
	cl.Connect("R1", "D1", "A", a)
	cl.Connect("R1", "D1", "B", b)

	if !cl.Disconnect("R1", "D1", "B") {
		t.Fatal("Disconnect of a registered client returned false")
	}

	env := decodeAwareness(t, a.lastMessage(t))
	if env.Count != 1 || len(env.Users) != 1 || env.Users[0] != "A" {
		t.Errorf("awareness after disconnect = %+v, want users [A] count 1", env)
	}

	if cl.Disconnect("R1", "D1", "B") {
		t.Error("second Disconnect of the same client returned true")
	}
	// A stale disconnect must not trigger another awareness broadcast.
	if got := len(a.messages()); got != 3 {
		t.Errorf("client A received %d messages, want 3 (three awareness broadcasts)", got)
	}
}

func TestCollabSyncExcludesSender(t *testing.T) {
	cl := NewCollabRelay(&recordingRooms{}, nil)

	sender := &fakeConn{}
	other := &fakeConn{}
	cl.Connect("R1", "D1", "S", sender)
	cl.Connect("R1", "D1", "C", other)

	sentBefore := len(sender.messages())
	payload := []byte(`{"type":"sync","data":"x"}`)
	cl.HandleMessage("R1", "D1", "S", sender, payload)

	if got := string(other.lastMessage(t)); got != string(payload) {
		t.Errorf("recipient got %q, want the sync payload verbatim", got)
	}
	if len(sender.messages()) != sentBefore {
		t.Error("sender received its own sync message back")
	}
}

func TestCollabAwarenessIsSymmetric(t *testing.T) {
	cl := NewCollabRelay(&recordingRooms{}, nil)

	sender := &fakeConn{}
	other := &fakeConn{}
	cl.Connect("R1", "D1", "S", sender)
	cl.Connect("R1", "D1", "C", other)

	sentBefore := len(sender.messages())
	payload := []byte(`{"type":"awareness","cursor":5}`)
	cl.HandleMessage("R1", "D1", "S", sender, payload)

	if len(sender.messages()) != sentBefore+1 {
		t.Error("sender excluded from awareness broadcast")
	}
	if got := string(other.lastMessage(t)); got != string(payload) {
		t.Errorf("recipient got %q, want the awareness payload verbatim", got)
	}
}

func TestCollabPingAnsweredDirectly(t *testing.T) {
	cl := NewCollabRelay(&recordingRooms{}, nil)

	sender := &fakeConn{}
	other := &fakeConn{}
	cl.Connect("R1", "D1", "S", sender)
	cl.Connect("R1", "D1", "C", other)

	otherBefore := len(other.messages())
	cl.HandleMessage("R1", "D1", "S", sender, []byte(`{"type":"ping"}`))

	if got := string(sender.lastMessage(t)); got != `{"type":"pong"}` {
		t.Errorf("sender got %q, want pong", got)
	}
	if len(other.messages()) != otherBefore {
		t.Error("ping was fanned out to other clients")
	}
}

func TestCollabOpaquePayloadRelayedExcludingSender(t *testing.T) {
	cl := NewCollabRelay(&recordingRooms{}, nil)

	sender := &fakeConn{}
	other := &fakeConn{}
	cl.Connect("R1", "D1", "S", sender)
	cl.Connect("R1", "D1", "C", other)

	sentBefore := len(sender.messages())
	for _, payload := range [][]byte{
		[]byte("\x01\x02binary-update"),
		[]byte(`{"no":"type tag"}`),
		[]byte(`{"type":"unexpected"}`),
	} {
		cl.HandleMessage("R1", "D1", "S", sender, payload)
		if got := string(other.lastMessage(t)); got != string(payload) {
			t.Errorf("recipient got %q, want opaque payload %q", got, payload)
		}
	}
	if len(sender.messages()) != sentBefore {
		t.Error("sender received an opaque update back")
	}
}

func TestCollabLoneClientMessageIsNoop(t *testing.T) {
	cl := NewCollabRelay(&recordingRooms{}, nil)

	lone := &fakeConn{}
	cl.Connect("R1", "D1", "only", lone)

	sentBefore := len(lone.messages())
	cl.HandleMessage("R1", "D1", "only", lone, []byte(`{"type":"sync"}`))
	if len(lone.messages()) != sentBefore {
		t.Error("lone client received its own excluded update")
	}
}

func TestCollabCounts(t *testing.T) {
	cl := NewCollabRelay(&recordingRooms{}, nil)

	cl.Connect("R1", "D1", "A", &fakeConn{})
	cl.Connect("R1", "D1", "B", &fakeConn{})
	cl.Connect("R1", "D2", "C", &fakeConn{})
	cl.Connect("R2", "D1", "D", &fakeConn{})

	if got := cl.ActiveUsers("R1"); got != 3 {
		t.Errorf("ActiveUsers(R1) = %d, want 3", got)
	}
	if got := cl.DocumentUsers("R1", "D1"); got != 2 {
		t.Errorf("DocumentUsers(R1, D1) = %d, want 2", got)
	}
	if got := cl.ActiveUsers("ghost"); got != 0 {
		t.Errorf("ActiveUsers(ghost) = %d, want 0", got)
	}
}
