package audio

import (
	"sync"
	"time"
)

// FakePlayer records module commands for test assertions.
type FakePlayer struct {
	mu sync.Mutex

	// Commands lists calls in order, e.g. "begin", "stop", "play", "volume".
	Commands []string

	// Tracks lists the tracks passed to Play.
	Tracks []int

	// BeginError, if set, will be returned by Begin.
	BeginError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePlayer creates a FakePlayer.
func NewFakePlayer() *FakePlayer {
	return &FakePlayer{}
}

func (f *FakePlayer) record(cmd string) {
	f.Commands = append(f.Commands, cmd)
}

// Begin records the call and returns BeginError.
func (f *FakePlayer) Begin(time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("begin")
	return f.BeginError
}

// Stop records the call.
func (f *FakePlayer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop")
	return nil
}

// Play records the track.
func (f *FakePlayer) Play(track int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("play")
	f.Tracks = append(f.Tracks, track)
	return nil
}

// Volume records the call.
func (f *FakePlayer) Volume(level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("volume")
	return nil
}

// Close marks the player as closed.
func (f *FakePlayer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Calls returns a copy of the recorded commands.
func (f *FakePlayer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Commands...)
}
