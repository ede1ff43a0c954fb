// Package status provides a thread-safe status tracker for the beam-target daemon.
// It is written by the main loop and read by HTTP handlers and MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/beam-target/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	EdgeMode    string
	PollMs      int64
	DebounceUs  int64
	SettleMs    int64
	LockoutMs   int64
	HeartbeatMs int64
	LEDs        int
	Brightness  int
	Tracks      int
	Volume      int
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Sensor        logic.SensorState
	Pending       uint32
	Counts        logic.Counts
	LastHit       time.Time
	LastTrack     int
	Viewers       int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Sensor:    logic.StateArmed,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the detector state, queue depth and counters.
// Called from runLoop on every pass.
func (t *Tracker) Update(sensor logic.SensorState, pending uint32, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Sensor = sensor
	t.snap.Pending = pending
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordHit records the time and clip of the last dispatched hit.
func (t *Tracker) RecordHit(at time.Time, track int) {
	t.mu.Lock()
	t.snap.LastHit = at
	t.snap.LastTrack = track
	t.mu.Unlock()
}

// SetViewers sets the number of connected scoreboard viewers.
func (t *Tracker) SetViewers(n int) {
	t.mu.Lock()
	t.snap.Viewers = n
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
