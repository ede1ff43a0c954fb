// Package mqtt mirrors hits and lifecycle events to an MQTT broker and
// accepts injected hits from it. Abstracted for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/beam-target/internal/logic"
)

// Topic is the MQTT topic for hit events.
const Topic = "target/beam/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "target/beam/system"

// TopicInject is subscribed for injected hits.
const TopicInject = "target/beam/inject"

// InjectPayload is the exact payload on TopicInject that queues a hit.
const InjectPayload = "hit"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishHit sends a dispatched hit to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishHit(hit logic.Hit) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for a hit.
type Payload struct {
	Hit HitPayload `json:"hit"`
}

// HitPayload contains the hit details.
type HitPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Queued    uint32 `json:"queued"`
}

// FormatPayload creates the JSON payload for a hit.
func FormatPayload(hit logic.Hit) ([]byte, error) {
	payload := Payload{
		Hit: HitPayload{
			Timestamp: hit.Timestamp.UTC().Format(time.RFC3339Nano),
			Event:     "HIT",
			Queued:    hit.Queued,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events
// that don't carry a full status snapshot (e.g. the will message).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
