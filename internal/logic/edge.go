package logic

import "time"

// EdgeDetector accepts falling edges from the sensor line.
//
// OnFallingEdge runs in the edge context (the GPIO event goroutine). It is
// bounded, never blocks and never allocates. lastEdge is touched only from
// that context.
type EdgeDetector struct {
	state    *DetectorState
	debounce time.Duration
	lastEdge time.Duration
}

// NewEdgeDetector creates an edge detector bound to state. The first edge
// qualifies whatever its timestamp, including one at zero.
func NewEdgeDetector(state *DetectorState, debounce time.Duration) *EdgeDetector {
	return &EdgeDetector{state: state, debounce: debounce, lastEdge: -debounce - 1}
}

// OnFallingEdge handles an edge observed at the monotonic timestamp ts.
// It returns true if the edge qualified and queued a hit.
func (e *EdgeDetector) OnFallingEdge(ts time.Duration) bool {
	if !e.state.armed.Load() {
		e.state.disarmed.Add(1)
		return false
	}
	if ts-e.lastEdge <= e.debounce {
		e.state.bounces.Add(1)
		return false
	}
	e.state.pending.Add(1)
	e.state.armed.Store(false)
	e.lastEdge = ts
	e.state.edges.Add(1)
	return true
}
