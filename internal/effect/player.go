package effect

import (
	"log"
	"math/rand"
	"time"

	"github.com/sweeney/beam-target/internal/audio"
	"github.com/sweeney/beam-target/internal/led"
)

// AudioSettle is the pause between stopping the previous clip and starting the next.
const AudioSettle = 50 * time.Millisecond

// Config configures a Player.
type Config struct {
	// Tracks is the number of clips on the module; clips 1..Tracks are picked uniformly.
	Tracks int
	// Rand picks tracks. Defaults to a time-seeded source.
	Rand *rand.Rand
	// Sleep holds frames. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Player runs the hit effect. Play blocks until the light show has finished
// and cannot be interrupted.
type Player struct {
	strip  led.Strip
	audio  audio.Player
	steps  []Step
	tracks int
	rnd    *rand.Rand
	sleep  func(time.Duration)
}

// NewPlayer builds the light show for strip, using the strip's current
// brightness as the resting level.
func NewPlayer(strip led.Strip, player audio.Player, cfg Config) *Player {
	if cfg.Tracks < 1 {
		cfg.Tracks = 1
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Player{
		strip:  strip,
		audio:  player,
		steps:  Script(strip.Len(), strip.Brightness()),
		tracks: cfg.Tracks,
		rnd:    cfg.Rand,
		sleep:  cfg.Sleep,
	}
}

// Steps returns the light show.
func (p *Player) Steps() []Step {
	return p.steps
}

// Play starts a random clip and runs the light show. It returns the track played.
func (p *Player) Play() int {
	track := 1 + p.rnd.Intn(p.tracks)

	if err := p.audio.Stop(); err != nil {
		log.Printf("effect: audio stop: %v", err)
	}
	p.sleep(AudioSettle)
	if err := p.audio.Play(track); err != nil {
		log.Printf("effect: audio play %d: %v", track, err)
	}

	var showErrs int
	var firstErr error
	for _, st := range p.steps {
		st.Draw(p.strip)
		if err := p.strip.Show(); err != nil {
			if showErrs == 0 {
				firstErr = err
			}
			showErrs++
		}
		if st.Hold > 0 {
			p.sleep(st.Hold)
		}
		if st.After != nil {
			st.After(p.strip)
		}
	}
	if showErrs > 0 {
		log.Printf("effect: %d of %d frames failed: %v", showErrs, len(p.steps), firstErr)
	}
	return track
}
