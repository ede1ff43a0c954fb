// Package gpio provides the beam sensor line with hardware abstraction.
// The real implementation uses the Linux GPIO character device and delivers
// falling edges from kernel line events.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Sensor reads the photointerrupter line.
type Sensor interface {
	// Clear reports whether the beam is unbroken.
	// The line is pulled up and active-low: HIGH = clear, LOW = broken.
	Clear() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// EdgeFunc receives a falling edge (beam broken) with its monotonic timestamp.
// It is called from the edge context and must return quickly.
type EdgeFunc func(ts time.Duration)

// Defaults (BCM numbering).
const (
	DefaultChip      = "gpiochip0"
	DefaultPinSensor = 17
)
