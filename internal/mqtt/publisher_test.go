package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/types"
)

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"default prefix", Topics{}.Rounds("s1"), "blindengine/s1/rounds"},
		{"trimmed prefix", Topics{Prefix: "/lab/"}.Rounds("s1"), "lab/s1/rounds"},
		{"all sessions", Topics{}.Rounds(""), "blindengine/+/rounds"},
		{"event levels", Topics{}.Event("trap.failed"), "blindengine/events/trap/failed"},
		{"executor", Topics{}.Executor("qpu-1"), "blindengine/executors/qpu-1/heartbeat"},
		{"all executors", Topics{Prefix: "lab"}.Executor(""), "lab/executors/+/heartbeat"},
		{"verifier status", Topics{Prefix: "lab"}.Status("blindengine-lab"), "lab/verifiers/blindengine-lab/status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.got)
			}
		})
	}
}

func TestReportPublisher_RecordRound(t *testing.T) {
	broker := newMockBroker()
	p := NewReportPublisher(broker, Topics{})

	rec := types.RoundRecord{SessionID: "s1", Index: 2, Kind: types.RoundTest, Color: 1, Traps: 3, Parities: []int{0, 0, 0}, DurationMS: 12}
	if err := p.RecordRound(rec); err != nil {
		t.Fatalf("RecordRound failed: %v", err)
	}

	msgs := broker.published["blindengine/s1/rounds"]
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	var back RoundReport
	if err := json.Unmarshal(msgs[0], &back); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if back.SessionID != "s1" || back.Index != 2 || back.DurationMS != 12 {
		t.Errorf("unexpected payload: %+v", back)
	}
}

func TestReportPublisher_OmitsRoundKind(t *testing.T) {
	broker := newMockBroker()
	p := NewReportPublisher(broker, Topics{})

	for _, rec := range []types.RoundRecord{
		{SessionID: "s1", Index: 0, Kind: types.RoundComputation},
		{SessionID: "s1", Index: 1, Kind: types.RoundTest, Color: 2, Traps: 2, Parities: []int{0, 1}, Failed: true},
	} {
		if err := p.RecordRound(rec); err != nil {
			t.Fatalf("RecordRound failed: %v", err)
		}
	}

	for i, msg := range broker.published["blindengine/s1/rounds"] {
		var fields map[string]interface{}
		if err := json.Unmarshal(msg, &fields); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		for _, key := range []string{"kind", "color", "traps", "parities"} {
			if _, ok := fields[key]; ok {
				t.Errorf("report %d carries %q: %s", i, key, msg)
			}
		}
		if _, ok := fields["round"]; !ok {
			t.Errorf("report %d has no round index: %s", i, msg)
		}
	}
}

func TestReportPublisher_Disconnected(t *testing.T) {
	broker := newMockBroker()
	broker.connected = false
	p := NewReportPublisher(broker, Topics{})

	if err := p.RecordRound(types.RoundRecord{SessionID: "s1"}); err == nil {
		t.Fatal("expected error while disconnected")
	}
}

func TestEventSink_Publish(t *testing.T) {
	broker := newMockBroker()
	s := NewEventSink(broker, Topics{Prefix: "lab"})

	if err := s.Publish(events.Event{Level: "warn", Name: "trap.failed"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if n := len(broker.published["lab/events/trap/failed"]); n != 1 {
		t.Errorf("expected 1 message, got %d", n)
	}

	broker.connected = false
	if err := s.Publish(events.Event{Name: "trap.failed"}); err != nil {
		t.Errorf("disconnected sink should drop silently, got %v", err)
	}
	if n := len(broker.published["lab/events/trap/failed"]); n != 1 {
		t.Errorf("expected no new message, got %d", n)
	}
}
