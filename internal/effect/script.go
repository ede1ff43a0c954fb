// Package effect plays the hit effect: a random sound and a five-phase light show.
//
// The light show is an ordered list of Steps built once for the strip. Each
// step draws into the strip buffer, is committed with Show and then held;
// the gaps between steps are the only places the sequence waits.
package effect

import (
	"math"
	"time"

	"github.com/sweeney/beam-target/internal/led"
)

// Phase names a section of the light show.
type Phase string

const (
	PhaseStrobe  Phase = "strobe"  // red, green, blue, off x3
	PhaseWipe    Phase = "wipe"    // rainbow gradient, one pixel at a time
	PhasePulse   Phase = "pulse"   // rotating rainbow with breathing brightness
	PhaseChase   Phase = "chase"   // three-group theatre chase
	PhaseRainbow Phase = "rainbow" // whole-strip hue strobe
	PhaseOff     Phase = "off"
)

// Frame timings.
const (
	StrobeHold  = 100 * time.Millisecond
	WipeHold    = 50 * time.Millisecond
	PulseHold   = 20 * time.Millisecond
	ChaseHold   = 50 * time.Millisecond
	RainbowHold = 50 * time.Millisecond
	RainbowTime = 3 * time.Second

	pulseStep    = 5
	pulseSwing   = 80
	chaseStep    = 32
	chaseGroups  = 3
	rainbowDelta = 4096
	strobeRounds = 3
)

// Step is one frame of the light show.
type Step struct {
	Phase Phase
	Draw  func(s led.Strip)
	Hold  time.Duration
	// After, if set, runs once the hold has elapsed.
	After func(s led.Strip)
}

// Script builds the light show for a strip of n pixels whose resting
// brightness is base.
func Script(n int, base uint8) []Step {
	var steps []Step
	steps = append(steps, strobe()...)
	steps = append(steps, wipe(n)...)
	steps = append(steps, pulse(n, base)...)
	steps = append(steps, chase(n)...)
	steps = append(steps, rainbow()...)
	steps = append(steps, Step{Phase: PhaseOff, Draw: func(s led.Strip) { s.Clear() }})
	return steps
}

// Duration returns the total hold time of steps.
func Duration(steps []Step) time.Duration {
	var d time.Duration
	for _, st := range steps {
		d += st.Hold
	}
	return d
}

func fill(c led.Color) func(led.Strip) {
	return func(s led.Strip) { s.Fill(c) }
}

func strobe() []Step {
	var steps []Step
	for k := 0; k < strobeRounds; k++ {
		steps = append(steps,
			Step{Phase: PhaseStrobe, Draw: fill(led.RGB(255, 0, 0)), Hold: StrobeHold},
			Step{Phase: PhaseStrobe, Draw: fill(led.RGB(0, 255, 0)), Hold: StrobeHold},
			Step{Phase: PhaseStrobe, Draw: fill(led.RGB(0, 0, 255)), Hold: StrobeHold},
			Step{Phase: PhaseStrobe, Draw: fill(led.Off), Hold: StrobeHold},
		)
	}
	return steps
}

// pixelHue spreads one turn of the colour wheel along the strip.
func pixelHue(i, n int) int {
	return i * 65536 / n
}

func wipe(n int) []Step {
	steps := make([]Step, 0, n)
	for i := 0; i < n; i++ {
		i := i
		steps = append(steps, Step{
			Phase: PhaseWipe,
			Draw:  func(s led.Strip) { s.SetPixel(i, led.Hue(uint16(pixelHue(i, n)))) },
			Hold:  WipeHold,
		})
	}
	return steps
}

func pulseBrightness(j int, base uint8) uint8 {
	v := int(float64(base) + pulseSwing*math.Sin(float64(j)*math.Pi/128))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func pulse(n int, base uint8) []Step {
	var steps []Step
	for j := 0; j < 256; j += pulseStep {
		j := j
		steps = append(steps, Step{
			Phase: PhasePulse,
			Draw: func(s led.Strip) {
				for i := 0; i < n; i++ {
					s.SetPixel(i, led.Hue(uint16((pixelHue(i, n)+j*256)%65536)))
				}
				s.SetBrightness(pulseBrightness(j, base))
			},
			Hold: PulseHold,
		})
	}
	steps[len(steps)-1].After = func(s led.Strip) { s.SetBrightness(base) }
	return steps
}

func chase(n int) []Step {
	var steps []Step
	for j := 0; j < 256; j += chaseStep {
		for q := 0; q < chaseGroups; q++ {
			j, q := j, q
			steps = append(steps, Step{
				Phase: PhaseChase,
				Draw: func(s led.Strip) {
					for i := q; i < n; i += chaseGroups {
						s.SetPixel(i, led.Hue(uint16((pixelHue(i, n)+j)%65536)))
					}
				},
				Hold: ChaseHold,
				After: func(s led.Strip) {
					for i := q; i < n; i += chaseGroups {
						s.SetPixel(i, led.Off)
					}
				},
			})
		}
	}
	return steps
}

func rainbow() []Step {
	frames := int(RainbowTime / RainbowHold)
	steps := make([]Step, 0, frames)
	var hue uint16
	for f := 0; f < frames; f++ {
		c := led.Hue(hue)
		steps = append(steps, Step{Phase: PhaseRainbow, Draw: fill(c), Hold: RainbowHold})
		hue += rainbowDelta
	}
	return steps
}
