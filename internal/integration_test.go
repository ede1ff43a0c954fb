package internal

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/beam-target/internal/audio"
	"github.com/sweeney/beam-target/internal/effect"
	"github.com/sweeney/beam-target/internal/led"
	"github.com/sweeney/beam-target/internal/logic"
	"github.com/sweeney/beam-target/internal/mqtt"
	"github.com/sweeney/beam-target/internal/relay"
	"github.com/sweeney/beam-target/internal/status"
	"github.com/sweeney/beam-target/internal/web"
)

// pipeline wires the real detection stages, effect player, relay hub and web
// server to fakes, on a virtual clock. The effect's frame holds advance the
// clock, so lockout is measured exactly as on the device.
type pipeline struct {
	t *testing.T

	base time.Time
	now  time.Time

	state      *logic.DetectorState
	edges      *logic.EdgeDetector
	rearm      *logic.RearmMonitor
	dispatcher *logic.Dispatcher

	strip   *led.FakeStrip
	audio   *audio.FakePlayer
	fx      *effect.Player
	pub     *mqtt.FakePublisher
	hub     *relay.Hub
	tracker *status.Tracker
	baseURL string
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := &pipeline{
		t:     t,
		base:  base,
		now:   base,
		state: logic.NewDetectorState(),
		strip: led.NewFakeStrip(led.DefaultPixels, led.DefaultBrightness),
		audio: audio.NewFakePlayer(),
		pub:   mqtt.NewFakePublisher(),
	}
	p.edges = logic.NewEdgeDetector(p.state, logic.DefaultDebounce)
	p.rearm = logic.NewRearmMonitor(p.state, logic.DefaultSettle)
	p.dispatcher = logic.NewDispatcher(p.state, logic.DefaultLockout)
	p.fx = effect.NewPlayer(p.strip, p.audio, effect.Config{
		Tracks: audio.DefaultTracks,
		Sleep:  func(d time.Duration) { p.now = p.now.Add(d) },
	})

	p.hub = relay.NewHub(p.state.Inject)
	ctx, cancel := context.WithCancel(context.Background())
	go p.hub.Run(ctx)

	p.tracker = status.NewTracker(base, status.Config{LEDs: led.DefaultPixels, LockoutMs: 300})
	srv := web.New("", p.tracker, p.hub)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve(ln)
	p.baseURL = "http://" + ln.Addr().String()

	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		cancel()
	})
	return p
}

// mono is the edge timestamp for the current virtual time.
func (p *pipeline) mono() time.Duration {
	return p.now.Sub(p.base) + time.Second
}

// step is one main loop pass followed by one poll period.
func (p *pipeline) step(clear bool) {
	p.rearm.Poll(clear, p.now)
	if hit, ok := p.dispatcher.Drain(p.now); ok {
		p.hub.Broadcast(relay.HitToken)
		if err := p.pub.PublishHit(hit); err != nil {
			p.t.Fatalf("publish: %v", err)
		}
		track := p.fx.Play()
		p.dispatcher.Complete(p.now)
		p.tracker.RecordHit(hit.Timestamp, track)
	}
	p.tracker.Update(p.state.State(), p.state.Pending(), p.state.Counts())
	p.now = p.now.Add(time.Millisecond)
}

func (p *pipeline) run(d time.Duration, clear bool) {
	end := p.now.Add(d)
	for p.now.Before(end) {
		p.step(clear)
	}
}

// breakBeam delivers a falling edge followed by bounces 1ms apart.
func (p *pipeline) breakBeam(bounces int) {
	ts := p.mono()
	p.edges.OnFallingEdge(ts)
	for i := 1; i <= bounces; i++ {
		p.edges.OnFallingEdge(ts + time.Duration(i)*time.Millisecond)
	}
}

func (p *pipeline) dialViewer() *websocket.Conn {
	p.t.Helper()
	url := "ws" + strings.TrimPrefix(p.baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		p.t.Fatalf("dial viewer: %v", err)
	}
	p.t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for p.hub.Viewers() == 0 {
		if time.Now().After(deadline) {
			p.t.Fatal("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func expectToken(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("viewer read: %v", err)
	}
	if string(msg) != want {
		t.Fatalf("viewer got %q, want %q", msg, want)
	}
}

func TestIntegrationBeamBreakReachesViewer(t *testing.T) {
	p := newPipeline(t)
	viewer := p.dialViewer()

	p.run(10*time.Millisecond, true)
	p.breakBeam(2)
	p.run(15*time.Millisecond, false)
	p.run(50*time.Millisecond, true)

	expectToken(t, viewer, relay.HitToken)

	// The first edge disarms, so its bounces are dropped as disarmed.
	c := p.state.Counts()
	if c.Edges != 1 || c.Disarmed != 2 || c.Dispatched != 1 {
		t.Errorf("counts: got %+v", c)
	}
	if !p.state.Armed() {
		t.Error("expected re-armed once the beam settled clear")
	}

	if got := p.strip.Shown(); got != len(p.fx.Steps()) {
		t.Errorf("frames shown: got %d, want %d", got, len(p.fx.Steps()))
	}
	for i, c := range p.strip.Last() {
		if c != led.Off {
			t.Errorf("pixel %d not cleared after show: %+v", i, c)
		}
	}
	if calls := p.audio.Calls(); len(calls) != 2 || calls[0] != "stop" || calls[1] != "play" {
		t.Errorf("audio calls: got %v, want [stop play]", calls)
	}
	if tr := p.audio.Tracks[0]; tr < 1 || tr > audio.DefaultTracks {
		t.Errorf("track %d out of range", tr)
	}

	if p.pub.HitCount() != 1 {
		t.Fatalf("mqtt hits: got %d, want 1", p.pub.HitCount())
	}
	var payload mqtt.Payload
	if err := json.Unmarshal(p.pub.Payloads[0], &payload); err != nil {
		t.Fatalf("mqtt payload: %v", err)
	}
	if payload.Hit.Event != "HIT" || payload.Hit.Queued != 1 {
		t.Errorf("mqtt payload: got %+v", payload.Hit)
	}

	resp, err := http.Get(p.baseURL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if sj.Status.Counts.Dispatched != 1 || sj.Status.LastTrack != p.audio.Tracks[0] {
		t.Errorf("status: dispatched=%d last_track=%d", sj.Status.Counts.Dispatched, sj.Status.LastTrack)
	}
}

// Breaks spaced beyond debounce+settle and the lockout each play exactly once.
func TestIntegrationNoLostHits(t *testing.T) {
	p := newPipeline(t)

	const breaks = 5
	for i := 0; i < breaks; i++ {
		p.breakBeam(3)
		p.run(10*time.Millisecond, false)
		p.run(500*time.Millisecond, true)
	}

	if got := p.pub.HitCount(); got != breaks {
		t.Fatalf("dispatched: got %d, want %d", got, breaks)
	}
	for i, hit := range p.pub.Hits {
		if hit.Queued != 1 {
			t.Errorf("hit %d: queued %d, want 1", i, hit.Queued)
		}
	}
	c := p.state.Counts()
	if c.Edges != breaks || c.Rearms != breaks || c.Coalesced != 0 {
		t.Errorf("counts: got %+v", c)
	}
}

// A beam that flickers without settling clear never re-arms, so the second
// edge is dropped.
func TestIntegrationFlickerWhileDisarmed(t *testing.T) {
	p := newPipeline(t)

	p.breakBeam(0)
	p.run(5*time.Millisecond, false)
	p.run(10*time.Millisecond, true)
	p.breakBeam(0)
	p.run(5*time.Millisecond, false)
	p.run(100*time.Millisecond, true)

	if got := p.pub.HitCount(); got != 1 {
		t.Errorf("dispatched: got %d, want 1", got)
	}
	if c := p.state.Counts(); c.Disarmed != 1 {
		t.Errorf("disarmed drops: got %d, want 1", c.Disarmed)
	}
}

func TestIntegrationViewerInjection(t *testing.T) {
	p := newPipeline(t)
	viewer := p.dialViewer()

	if err := viewer.WriteMessage(websocket.TextMessage, []byte(relay.InjectToken)); err != nil {
		t.Fatalf("viewer write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for p.state.Pending() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("injection never queued")
		}
		time.Sleep(5 * time.Millisecond)
	}

	p.step(true)
	expectToken(t, viewer, relay.HitToken)

	c := p.state.Counts()
	if c.Injected != 1 || c.Dispatched != 1 || c.Edges != 0 {
		t.Errorf("counts: got %+v", c)
	}
	if !p.state.Armed() {
		t.Error("injection must not disarm the sensor")
	}
}

func TestIntegrationInjectedBurstCoalesces(t *testing.T) {
	p := newPipeline(t)

	p.state.Inject()
	p.step(true)
	// Queued while the first effect was within its lockout.
	for i := 0; i < 3; i++ {
		p.state.Inject()
	}
	p.run(100*time.Millisecond, true)
	p.run(300*time.Millisecond, true)

	if got := p.pub.HitCount(); got != 2 {
		t.Fatalf("dispatched: got %d, want 2", got)
	}
	if p.pub.Hits[1].Queued != 3 {
		t.Errorf("second dispatch queued: got %d, want 3", p.pub.Hits[1].Queued)
	}
	if p.state.Pending() != 0 {
		t.Errorf("pending after dispatch: got %d", p.state.Pending())
	}
	if gap := p.pub.Hits[1].Timestamp.Sub(p.pub.Hits[0].Timestamp); gap <= effect.Duration(p.fx.Steps())+logic.DefaultLockout {
		t.Errorf("second dispatch %v after the first, inside effect+lockout", gap)
	}
}
