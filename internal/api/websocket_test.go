package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/BlindEngine/internal/events"
)

func dialEvents(t *testing.T, query string) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(NewMux())
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query

	before := events.SubscriberCount()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("failed to connect: %v", err)
	}
	waitFor(t, time.Second, func() bool { return events.SubscriberCount() > before }, "subscriber registered")
	// The handler unsubscribes asynchronously; wait for it so the next
	// dial starts from a settled count.
	return conn, func() {
		conn.Close()
		waitFor(t, 2*time.Second, func() bool { return events.SubscriberCount() <= before }, "subscriber released")
		server.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	var e events.Event
	if err := json.Unmarshal(msg, &e); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	return e
}

func TestWebSocketReplaysRecentEvents(t *testing.T) {
	resetGlobals(t)
	events.Clear()
	for i := 0; i < 3; i++ {
		events.Emit("info", "round.completed", "", map[string]interface{}{"round": i})
	}

	conn, done := dialEvents(t, "")
	defer done()

	for i := 0; i < 3; i++ {
		e := readEvent(t, conn)
		if e.Name != "round.completed" {
			t.Errorf("expected round.completed, got %q", e.Name)
		}
		if e.Fields["round"] != float64(i) {
			t.Errorf("expected round %d, got %v", i, e.Fields["round"])
		}
	}
}

func TestWebSocketStreamsNewEvents(t *testing.T) {
	resetGlobals(t)
	events.Clear()

	conn, done := dialEvents(t, "")
	defer done()

	events.Emit("warn", "trap.failed", "", map[string]interface{}{"session_id": "s1", "trap": 2})
	e := readEvent(t, conn)
	if e.Name != "trap.failed" || e.Fields["session_id"] != "s1" {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestWebSocketFiltersByPrefix(t *testing.T) {
	resetGlobals(t)
	events.Clear()
	events.Emit("info", "session.started", "", nil)

	conn, done := dialEvents(t, "?event=trap.")
	defer done()

	events.Emit("info", "round.started", "", nil)
	events.Emit("warn", "trap.failed", "", map[string]interface{}{"trap": 0})

	e := readEvent(t, conn)
	if e.Name != "trap.failed" {
		t.Errorf("expected only trap.* events, got %q", e.Name)
	}
}

func TestWebSocketDisconnectCleansUp(t *testing.T) {
	resetGlobals(t)
	events.CloseAllSubscribers()

	_, done := dialEvents(t, "")
	if events.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", events.SubscriberCount())
	}
	done()
	if n := events.SubscriberCount(); n != 0 {
		t.Errorf("expected no subscribers after disconnect, got %d", n)
	}
}

func TestWebSocketSequentialDials(t *testing.T) {
	resetGlobals(t)
	events.CloseAllSubscribers()

	for i := 0; i < 5; i++ {
		conn, done := dialEvents(t, "?replay=0")
		events.Emit("info", "round.started", "", map[string]interface{}{"round": i})
		if e := readEvent(t, conn); e.Fields["round"] != float64(i) {
			t.Errorf("dial %d: unexpected event %+v", i, e.Fields)
		}
		done()
	}
	if n := events.SubscriberCount(); n != 0 {
		t.Errorf("expected every subscriber released, got %d", n)
	}
}

func TestWebSocketSessionScope(t *testing.T) {
	resetGlobals(t)
	events.Clear()
	events.Emit("info", "round.completed", "", map[string]interface{}{"session_id": "a", "round": 0})
	events.Emit("info", "round.completed", "", map[string]interface{}{"session_id": "b", "round": 0})

	conn, done := dialEvents(t, "?session=b")
	defer done()

	if e := readEvent(t, conn); e.Fields["session_id"] != "b" {
		t.Fatalf("replay leaked session %v", e.Fields["session_id"])
	}

	events.Emit("info", "round.completed", "", map[string]interface{}{"session_id": "a", "round": 1})
	events.Emit("info", "round.completed", "", map[string]interface{}{"session_id": "b", "round": 1})
	e := readEvent(t, conn)
	if e.Fields["session_id"] != "b" || e.Fields["round"] != float64(1) {
		t.Errorf("expected live round 1 of session b, got %+v", e.Fields)
	}
}

func TestWebSocketNoReplay(t *testing.T) {
	resetGlobals(t)
	events.Clear()
	events.Emit("info", "session.started", "", nil)

	conn, done := dialEvents(t, "?replay=0")
	defer done()

	events.Emit("info", "session.completed", "", nil)
	if e := readEvent(t, conn); e.Name != "session.completed" {
		t.Errorf("expected only live events, got %q", e.Name)
	}
}
