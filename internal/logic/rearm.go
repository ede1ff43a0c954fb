package logic

import "time"

// RearmMonitor re-enables the edge detector once the beam has stayed clear
// for longer than the settling window. Any reading of a broken beam restarts
// the window. It runs once per main loop pass.
type RearmMonitor struct {
	state      *DetectorState
	settle     time.Duration
	clearSince time.Time // zero means unset
}

// NewRearmMonitor creates a re-arm monitor bound to state.
func NewRearmMonitor(state *DetectorState, settle time.Duration) *RearmMonitor {
	return &RearmMonitor{state: state, settle: settle}
}

// Poll feeds one sensor reading taken at now. clear is true when the beam is
// unbroken (line HIGH). It returns true if this call re-armed the detector.
func (m *RearmMonitor) Poll(clear bool, now time.Time) bool {
	if m.state.armed.Load() || !clear {
		m.clearSince = time.Time{}
		return false
	}
	if m.clearSince.IsZero() {
		m.clearSince = now
		return false
	}
	if now.Sub(m.clearSince) > m.settle {
		m.state.armed.Store(true)
		m.state.rearms.Add(1)
		m.clearSince = time.Time{}
		return true
	}
	return false
}

// Settling reports whether a settling window is in progress.
func (m *RearmMonitor) Settling() bool {
	return !m.clearSince.IsZero()
}
