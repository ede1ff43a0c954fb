//go:build !linux

package gpio

import "errors"

// RealSensor is not available on non-Linux platforms.
type RealSensor struct{}

// NewRealSensor returns an error on non-Linux platforms.
func NewRealSensor(chip string, pin int, onEdge EdgeFunc) (*RealSensor, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Clear is not implemented on non-Linux platforms.
func (r *RealSensor) Clear() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealSensor) Close() error {
	return nil
}
