// Package logic contains the hit-detection core of the beam target.
// This package has NO external dependencies (no GPIO, LEDs, audio, network or time.Sleep).
// Time is always injectable: edge timestamps arrive as monotonic durations and
// main-loop components take time.Time parameters.
package logic

import "time"

// Defaults for the detection pipeline.
const (
	DefaultDebounce = 5 * time.Millisecond
	DefaultSettle   = 20 * time.Millisecond
	DefaultLockout  = 300 * time.Millisecond
)

// SensorState is whether the edge detector will accept the next falling edge.
type SensorState string

const (
	StateArmed    SensorState = "ARMED"
	StateDisarmed SensorState = "DISARMED"
)

// Source identifies how a hit entered the pipeline.
type Source string

const (
	SourceSensor   Source = "SENSOR"
	SourceInjected Source = "INJECTED"
)

// Hit is one dispatch: every hit queued since the previous dispatch,
// collapsed into a single effect run.
type Hit struct {
	Timestamp time.Time
	Queued    uint32
}

// Counts tracks pipeline activity since startup.
type Counts struct {
	Edges      uint64 // qualifying edges accepted by the edge detector
	Bounces    uint64 // edges rejected inside the debounce window
	Disarmed   uint64 // edges dropped because the detector was disarmed
	Injected   uint64 // hits injected by viewers or MQTT
	Dispatched uint64 // effect runs
	Coalesced  uint64 // queued hits folded into another dispatch
	Rearms     uint64 // DISARMED -> ARMED transitions
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
