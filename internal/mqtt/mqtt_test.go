package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/beam-target/internal/logic"
)

func TestTopics(t *testing.T) {
	if Topic != "target/beam/events" {
		t.Errorf("Topic: got %s", Topic)
	}
	if TopicSystem != "target/beam/system" {
		t.Errorf("TopicSystem: got %s", TopicSystem)
	}
	if TopicInject != "target/beam/inject" {
		t.Errorf("TopicInject: got %s", TopicInject)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	hit := logic.Hit{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Queued:    3,
	}

	payload, err := FormatPayload(hit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"hit":{"timestamp":"2026-02-02T22:18:12Z","event":"HIT","queued":3}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	hit := logic.Hit{Timestamp: time.Date(2026, 2, 2, 12, 0, 0, 500000000, loc), Queued: 1}

	payload, _ := FormatPayload(hit)
	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Hit.Timestamp != "2026-02-02T10:00:00.5Z" {
		t.Errorf("timestamp: got %s", parsed.Hit.Timestamp)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "OFFLINE",
	})

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"OFFLINE"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.PublishHit(logic.Hit{Timestamp: time.Now(), Queued: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.HitCount() != 1 || len(f.Payloads) != 1 {
		t.Errorf("hits: got %d, payloads %d", f.HitCount(), len(f.Payloads))
	}
	if got := f.Events(); len(got) != 1 || got[0] != "STARTUP" {
		t.Errorf("system events: got %v", got)
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.PublishHit(logic.Hit{Timestamp: time.Now(), Queued: 1}); err == nil {
		t.Error("expected error")
	}
	if f.HitCount() != 0 {
		t.Errorf("expected no hits recorded on error, got %d", f.HitCount())
	}
}

func TestHandleInject(t *testing.T) {
	var n int
	p := &RealPublisher{onInject: func() { n++ }, backlog: newBacklog(1)}

	for _, payload := range []string{"hit", "HIT", "hit ", "", "hit"} {
		p.handleInject([]byte(payload))
	}
	if n != 2 {
		t.Errorf("injections: got %d, want 2", n)
	}
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	if err := p.PublishHit(logic.Hit{}); err != nil {
		t.Error(err)
	}
	if (Discard{}).IsConnected() {
		t.Error("Discard should never report connected")
	}
}
