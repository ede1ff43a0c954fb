// Package audio controls the serial MP3 module that plays hit sounds.
package audio

import "time"

// Player is the audio module as seen by the effect player.
// No playback-complete feedback is consumed.
type Player interface {
	// Begin resets the module and waits for it to report ready.
	Begin(timeout time.Duration) error
	Stop() error
	Play(track int) error
	// Volume sets the output level, clamped to 0..MaxVolume.
	Volume(level int) error
	Close() error
}

// Defaults for the module.
const (
	DefaultPort    = "/dev/serial0"
	DefaultBaud    = 9600
	DefaultVolume  = 25
	DefaultTracks  = 15
	MaxVolume      = 30
	DefaultTimeout = 2 * time.Second

	// InitSettle is the pause after the init report before the module
	// accepts commands.
	InitSettle = 200 * time.Millisecond
)
