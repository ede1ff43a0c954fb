package logic

import "sync/atomic"

// DetectorState is the state shared between the edge context and the main loop.
//
// Only armed and pending cross that boundary and both are accessed atomically.
// Each direction of the armed flag has a single writer: the edge detector
// disarms, the re-arm monitor arms. pending is incremented by the edge
// detector and by injection, and swapped to zero only by the dispatcher.
type DetectorState struct {
	armed   atomic.Bool
	pending atomic.Uint32

	edges      atomic.Uint64
	bounces    atomic.Uint64
	disarmed   atomic.Uint64
	injected   atomic.Uint64
	dispatched atomic.Uint64
	coalesced  atomic.Uint64
	rearms     atomic.Uint64
}

// NewDetectorState returns state as it is at power-on: armed, nothing pending.
func NewDetectorState() *DetectorState {
	s := &DetectorState{}
	s.armed.Store(true)
	return s
}

// State reports the current sensor state.
func (s *DetectorState) State() SensorState {
	if s.armed.Load() {
		return StateArmed
	}
	return StateDisarmed
}

// Armed reports whether the edge detector accepts edges.
func (s *DetectorState) Armed() bool {
	return s.armed.Load()
}

// Pending returns the number of hits waiting for dispatch.
func (s *DetectorState) Pending() uint32 {
	return s.pending.Load()
}

// Inject queues a hit that did not come from the sensor. It bypasses
// the armed flag and the debounce window.
func (s *DetectorState) Inject() {
	s.pending.Add(1)
	s.injected.Add(1)
}

// drain atomically reads and zeroes the pending count.
func (s *DetectorState) drain() uint32 {
	return s.pending.Swap(0)
}

// Counts returns a snapshot of the activity counters.
func (s *DetectorState) Counts() Counts {
	return Counts{
		Edges:      s.edges.Load(),
		Bounces:    s.bounces.Load(),
		Disarmed:   s.disarmed.Load(),
		Injected:   s.injected.Load(),
		Dispatched: s.dispatched.Load(),
		Coalesced:  s.coalesced.Load(),
		Rearms:     s.rearms.Load(),
	}
}
