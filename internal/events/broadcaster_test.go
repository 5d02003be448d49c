package events

import (
	"testing"
	"time"
)

func receive(t *testing.T, sub Subscriber) Event {
	t.Helper()
	select {
	case e := <-sub:
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestBroadcasterPrefixRouting(t *testing.T) {
	b := NewBroadcaster()
	all := b.Subscribe("")
	traps := b.Subscribe("trap.")

	b.Publish(Event{Name: "round.started"})
	b.Publish(Event{Name: "trap.failed", Fields: map[string]interface{}{"trap": 3}})

	if e := receive(t, all); e.Name != "round.started" {
		t.Errorf("expected round.started first, got %q", e.Name)
	}
	if e := receive(t, all); e.Name != "trap.failed" {
		t.Errorf("expected trap.failed second, got %q", e.Name)
	}
	if e := receive(t, traps); e.Name != "trap.failed" || e.Fields["trap"] != 3 {
		t.Errorf("unexpected trap event %+v", e)
	}
	select {
	case e := <-traps:
		t.Errorf("trap subscriber got extra event %q", e.Name)
	default:
	}
}

func TestBroadcasterCountsDrops(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe("")
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(Event{Name: "round.completed"})
	}
	if got := b.Dropped(); got != 5 {
		t.Errorf("expected 5 drops, got %d", got)
	}
	if len(slow) != subscriberBuffer {
		t.Errorf("expected a full channel, got %d", len(slow))
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	a, c := b.Subscribe(""), b.Subscribe("session.")
	if b.Len() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Len())
	}

	b.Unsubscribe(a)
	b.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Error("expected closed channel")
	}

	b.CloseAll()
	if _, ok := <-c; ok {
		t.Error("expected CloseAll to close remaining channels")
	}
	if b.Len() != 0 {
		t.Errorf("expected no subscribers, got %d", b.Len())
	}
}

func TestMatchPrefix(t *testing.T) {
	e := Event{Name: "round.completed"}
	for _, p := range []string{"", "round.", "round.completed"} {
		if !MatchPrefix(e, p) {
			t.Errorf("expected %q to match", p)
		}
	}
	for _, p := range []string{"trap.", "round.completed.extra"} {
		if MatchPrefix(e, p) {
			t.Errorf("expected %q not to match", p)
		}
	}
}

func TestEmitReachesHubSubscribers(t *testing.T) {
	sub := SubscribePrefix("session.")
	defer Unsubscribe(sub)

	Emit("info", "round.started", "", map[string]interface{}{"session_id": "s1"})
	Emit("info", "session.started", "", map[string]interface{}{"session_id": "s1"})

	e := receive(t, sub)
	if e.Name != "session.started" || e.Fields["session_id"] != "s1" {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestRecentMatching(t *testing.T) {
	Clear()
	for i := 0; i < 6; i++ {
		id := "a"
		if i%2 == 1 {
			id = "b"
		}
		Emit("info", "round.completed", "", map[string]interface{}{"session_id": id, "round": i})
	}
	Emit("warn", "trap.failed", "", map[string]interface{}{"session_id": "b"})

	if got := RecentEvents(0); len(got) != 7 {
		t.Fatalf("expected 7 buffered events, got %d", len(got))
	}
	last := RecentEvents(2)
	if len(last) != 2 || last[1].Name != "trap.failed" {
		t.Errorf("expected trap.failed last, got %+v", last)
	}

	b := RecentMatching(2, "round.", "b")
	if len(b) != 2 || b[0].Fields["round"] != 3 || b[1].Fields["round"] != 5 {
		t.Errorf("expected rounds 3 and 5 of session b, got %+v", b)
	}
	if got := RecentMatching(0, "session.", ""); len(got) != 0 {
		t.Errorf("expected no session events, got %d", len(got))
	}
}

func TestRingBufferLast(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		rb.Add(Event{Fields: map[string]interface{}{"i": i}})
	}
	even := rb.Last(0, func(e Event) bool { return e.Fields["i"].(int)%2 == 0 })
	if len(even) != 2 || even[0].Fields["i"] != 2 || even[1].Fields["i"] != 4 {
		t.Errorf("expected 2 and 4 retained, got %+v", even)
	}
}
