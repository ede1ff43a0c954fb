//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealSensor reads the sensor from actual hardware using the Linux GPIO
// character device.
type RealSensor struct {
	line *gpiocdev.Line
}

// NewRealSensor requests the sensor line as a pulled-up input.
// If onEdge is non-nil, falling-edge detection is enabled and every kernel
// edge event is delivered to onEdge from the gpiocdev event goroutine.
func NewRealSensor(chip string, pin int, onEdge EdgeFunc) (*RealSensor, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp}
	if onEdge != nil {
		opts = append(opts,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				if evt.Type == gpiocdev.LineEventFallingEdge {
					onEdge(evt.Timestamp)
				}
			}),
		)
	}

	line, err := gpiocdev.RequestLine(chip, pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("request sensor pin %d on %s: %w", pin, chip, err)
	}
	return &RealSensor{line: line}, nil
}

// Clear reports whether the beam is unbroken (raw HIGH).
func (r *RealSensor) Clear() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read sensor pin: %w", err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// The line is reconfigured as a plain input first so edge detection stops
// before the request is released.
func (r *RealSensor) Close() error {
	if r.line == nil {
		return nil
	}
	var errs []error
	if err := r.line.Reconfigure(gpiocdev.AsInput); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure sensor pin: %w", err))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sensor pin: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
