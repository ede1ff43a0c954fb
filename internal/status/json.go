package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Sensor        string       `json:"sensor"`
	Pending       uint32       `json:"pending"`
	LastHit       string       `json:"last_hit,omitempty"`
	LastTrack     int          `json:"last_track,omitempty"`
	Viewers       int          `json:"viewers"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"hit_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of pipeline counters.
type CountsJSON struct {
	Edges      uint64 `json:"edges"`
	Bounces    uint64 `json:"bounces"`
	Disarmed   uint64 `json:"disarmed"`
	Injected   uint64 `json:"injected"`
	Dispatched uint64 `json:"dispatched"`
	Coalesced  uint64 `json:"coalesced"`
	Rearms     uint64 `json:"rearms"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	EdgeMode    string `json:"edge_mode"`
	PollMs      int64  `json:"poll_ms"`
	DebounceUs  int64  `json:"debounce_us"`
	SettleMs    int64  `json:"settle_ms"`
	LockoutMs   int64  `json:"lockout_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	LEDs        int    `json:"leds"`
	Brightness  int    `json:"brightness"`
	Tracks      int    `json:"tracks"`
	Volume      int    `json:"volume"`
	Broker      string `json:"broker,omitempty"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	sensor := string(snap.Sensor)
	if sensor == "" {
		sensor = "UNKNOWN"
	}

	inner := StatusInner{
		Sensor:        sensor,
		Pending:       snap.Pending,
		LastTrack:     snap.LastTrack,
		Viewers:       snap.Viewers,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Edges:      snap.Counts.Edges,
			Bounces:    snap.Counts.Bounces,
			Disarmed:   snap.Counts.Disarmed,
			Injected:   snap.Counts.Injected,
			Dispatched: snap.Counts.Dispatched,
			Coalesced:  snap.Counts.Coalesced,
			Rearms:     snap.Counts.Rearms,
		},
		Config: ConfigJSON{
			EdgeMode:    snap.Config.EdgeMode,
			PollMs:      snap.Config.PollMs,
			DebounceUs:  snap.Config.DebounceUs,
			SettleMs:    snap.Config.SettleMs,
			LockoutMs:   snap.Config.LockoutMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			LEDs:        snap.Config.LEDs,
			Brightness:  snap.Config.Brightness,
			Tracks:      snap.Config.Tracks,
			Volume:      snap.Config.Volume,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if !snap.LastHit.IsZero() {
		inner.LastHit = snap.LastHit.UTC().Format(time.RFC3339)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
