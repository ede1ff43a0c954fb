package gpio

import (
	"errors"
	"sync"
)

// FakeSensor is a test double that returns scripted line levels.
// It is safe for concurrent use so tests can poll it from a loop goroutine.
type FakeSensor struct {
	mu sync.Mutex

	// Samples contains scripted levels (true = clear) to return.
	// Each call to Clear() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// closed tracks if Close was called
	closed bool

	// ReadError, if set, will be returned by Clear()
	ReadError error
}

// NewFakeSensor creates a FakeSensor with the given samples.
func NewFakeSensor(samples []bool) *FakeSensor {
	return &FakeSensor{Samples: samples}
}

// Clear returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSensor) Clear() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the sensor as closed.
func (f *FakeSensor) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeSensor) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset rewinds the scripted samples.
func (f *FakeSensor) Reset() {
	f.mu.Lock()
	f.index = 0
	f.closed = false
	f.mu.Unlock()
}

// Repeat returns n copies of level, for building sample scripts.
func Repeat(level bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = level
	}
	return out
}
