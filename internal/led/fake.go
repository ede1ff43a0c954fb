package led

import "sync"

// FakeStrip records every frame committed with Show.
type FakeStrip struct {
	*Buffer

	mu sync.Mutex

	// Frames contains the scaled frames in Show order.
	Frames [][]Color

	// ShowError, if set, will be returned by Show (the frame is not recorded).
	ShowError error
}

// NewFakeStrip creates a FakeStrip of n pixels.
func NewFakeStrip(n int, brightness uint8) *FakeStrip {
	return &FakeStrip{Buffer: NewBuffer(n, brightness)}
}

// Show records the current scaled frame.
func (f *FakeStrip) Show() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ShowError != nil {
		return f.ShowError
	}
	f.Frames = append(f.Frames, f.Frame())
	return nil
}

// Shown returns the number of recorded frames.
func (f *FakeStrip) Shown() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Frames)
}

// Last returns the most recent frame, or nil if none.
func (f *FakeStrip) Last() []Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Frames) == 0 {
		return nil
	}
	return f.Frames[len(f.Frames)-1]
}
