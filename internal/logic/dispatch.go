package logic

import "time"

// Dispatcher drains queued hits no more often than the lockout interval.
//
// A dispatch is two calls: Drain claims the queued hits, the caller runs the
// notification and the effect, then Complete records when the effect ended.
// The lockout is measured from the end of the previous effect.
type Dispatcher struct {
	state        *DetectorState
	lockout      time.Duration
	lastDispatch time.Time
}

// NewDispatcher creates a dispatcher bound to state.
func NewDispatcher(state *DetectorState, lockout time.Duration) *Dispatcher {
	return &Dispatcher{state: state, lockout: lockout}
}

// Drain returns the hit to dispatch, or false if nothing is queued or the
// lockout has not elapsed. Everything queued collapses into one Hit.
func (d *Dispatcher) Drain(now time.Time) (Hit, bool) {
	if d.state.pending.Load() == 0 {
		return Hit{}, false
	}
	if !d.lastDispatch.IsZero() && now.Sub(d.lastDispatch) <= d.lockout {
		return Hit{}, false
	}
	n := d.state.drain()
	if n == 0 {
		return Hit{}, false
	}
	d.state.dispatched.Add(1)
	d.state.coalesced.Add(uint64(n - 1))
	return Hit{Timestamp: now, Queued: n}, true
}

// Complete marks the end of the effect started by the last Drain.
func (d *Dispatcher) Complete(now time.Time) {
	d.lastDispatch = now
}
