// Command beam-target runs a beam-break shooting target: it detects hits on a
// photointerrupter, plays a sound and a light show for each, and relays them
// to scoreboard viewers over WebSocket and MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/beam-target/internal/audio"
	"github.com/sweeney/beam-target/internal/effect"
	"github.com/sweeney/beam-target/internal/gpio"
	"github.com/sweeney/beam-target/internal/led"
	"github.com/sweeney/beam-target/internal/logic"
	"github.com/sweeney/beam-target/internal/mqtt"
	"github.com/sweeney/beam-target/internal/relay"
	"github.com/sweeney/beam-target/internal/status"
	"github.com/sweeney/beam-target/internal/web"
)

// Edge source modes.
const (
	edgeModeInterrupt = "interrupt"
	edgeModePoll      = "poll"
)

type options struct {
	chip       string
	pinSensor  int
	edgeMode   string
	edgePoll   time.Duration
	poll       time.Duration
	debounce   time.Duration
	settle     time.Duration
	lockout    time.Duration
	leds       int
	brightness int
	spi        string
	serial     string
	volume     int
	tracks     int
	httpAddr   string
	broker     string
	heartbeat  time.Duration
	printState bool
}

func main() {
	var o options
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO character device")
	flag.IntVar(&o.pinSensor, "pin-sensor", gpio.DefaultPinSensor, "BCM pin number of the beam sensor")
	flag.StringVar(&o.edgeMode, "edge-mode", edgeModeInterrupt, `Edge source: "interrupt" (kernel edge events) or "poll"`)
	flag.DurationVar(&o.edgePoll, "edge-poll", time.Millisecond, "Sampling period in poll edge mode")
	flag.DurationVar(&o.poll, "poll", time.Millisecond, "Main loop period")
	flag.DurationVar(&o.debounce, "debounce", logic.DefaultDebounce, "Edge debounce window")
	flag.DurationVar(&o.settle, "settle", logic.DefaultSettle, "Beam must stay clear this long before re-arming")
	flag.DurationVar(&o.lockout, "lockout", logic.DefaultLockout, "Minimum time between dispatched effects")
	flag.IntVar(&o.leds, "leds", led.DefaultPixels, "Number of strip pixels")
	flag.IntVar(&o.brightness, "brightness", led.DefaultBrightness, "Strip brightness (0-255)")
	flag.StringVar(&o.spi, "spi", "", "SPI port for the strip (empty for the first port)")
	flag.StringVar(&o.serial, "serial", audio.DefaultPort, "Audio module serial port")
	flag.IntVar(&o.volume, "volume", audio.DefaultVolume, "Audio volume (0-30)")
	flag.IntVar(&o.tracks, "tracks", audio.DefaultTracks, "Number of clips on the audio module")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP scoreboard address (empty to disable page and relay)")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print current sensor level and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func validate(o options) error {
	switch {
	case o.edgeMode != edgeModeInterrupt && o.edgeMode != edgeModePoll:
		return fmt.Errorf("--edge-mode must be %q or %q, got %q", edgeModeInterrupt, edgeModePoll, o.edgeMode)
	case o.poll <= 0:
		return errors.New("--poll must be positive")
	case o.edgeMode == edgeModePoll && (o.edgePoll <= 0 || o.edgePoll > o.debounce):
		return fmt.Errorf("--edge-poll must be in (0, %v]", o.debounce)
	case o.leds < 1:
		return errors.New("--leds must be at least 1")
	case o.brightness < 0 || o.brightness > 255:
		return errors.New("--brightness must be 0-255")
	case o.volume < 0 || o.volume > audio.MaxVolume:
		return fmt.Errorf("--volume must be 0-%d", audio.MaxVolume)
	case o.tracks < 1:
		return errors.New("--tracks must be at least 1")
	}
	return nil
}

func run(o options) error {
	if err := validate(o); err != nil {
		return err
	}

	state := logic.NewDetectorState()
	edges := logic.NewEdgeDetector(state, o.debounce)

	// Edges are ignored until the main loop is about to start.
	var edgesLive atomic.Bool
	onEdge := func(ts time.Duration) {
		if edgesLive.Load() {
			edges.OnFallingEdge(ts)
		}
	}

	// Sensor line
	var kernelEdges gpio.EdgeFunc
	if o.edgeMode == edgeModeInterrupt && !o.printState {
		kernelEdges = onEdge
	}
	sensor, err := gpio.NewRealSensor(o.chip, o.pinSensor, kernelEdges)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer sensor.Close()

	if o.printState {
		clear, err := sensor.Clear()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("beam: %s\n", beamString(clear))
		return nil
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// LED strip
	strip, err := led.NewSPIStrip(o.spi, o.leds, uint8(o.brightness))
	if err != nil {
		return fmt.Errorf("init strip: %w", err)
	}
	defer strip.Close()

	// Audio module
	player, err := audio.OpenDFPlayer(o.serial)
	if err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	defer player.Close()

	dial := func(inject func()) mirror {
		if o.broker == "" {
			return mqtt.Discard{}
		}
		return mqtt.NewRealPublisher(o.broker, "beam-target-"+uuid.NewString()[:8], inject)
	}

	openRelay := func(ctx context.Context, inject func(), tracker *status.Tracker) notifier {
		if o.httpAddr == "" {
			return nil
		}
		hub := relay.NewHub(inject)
		go hub.Run(ctx)

		srv := web.New(o.httpAddr, tracker, hub)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()
		log.Printf("http scoreboard listening on %s", o.httpAddr)
		return hub
	}

	return serve(o, startup{
		sensor:    sensor,
		strip:     strip,
		player:    player,
		state:     state,
		edgesLive: &edgesLive,
		onEdge:    onEdge,
		dial:      dial,
		openRelay: openRelay,
		sig:       sigCh,
	})
}

// mirror is the MQTT side of the device.
type mirror interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

// startup is what serve needs once the peripherals are open.
type startup struct {
	sensor gpio.Sensor
	strip  led.Strip
	player audio.Player

	state *logic.DetectorState
	// edgesLive gates onEdge; serve opens it just before the main loop.
	edgesLive *atomic.Bool
	onEdge    gpio.EdgeFunc

	// dial connects the MQTT mirror. Its inject queues a remote hit.
	dial func(inject func()) mirror
	// openRelay starts the scoreboard page and viewer relay until ctx is
	// done. It returns nil when they are disabled.
	openRelay func(ctx context.Context, inject func(), tracker *status.Tracker) notifier

	// fxSleep holds effect frames. Defaults to time.Sleep.
	fxSleep func(time.Duration)
	sig     <-chan os.Signal
}

// serve brings the device up and runs the main loop until signalled. If the
// audio module does not come up, it halts before anything that could queue
// or announce a hit is started.
func serve(o options, s startup) error {
	s.strip.Clear()
	if err := s.strip.Show(); err != nil {
		log.Printf("led: clear: %v", err)
	}

	if err := s.player.Begin(audio.DefaultTimeout); err != nil {
		log.Printf("audio: init failed, halting: %v", err)
		halt(s.sig)
		return nil
	}
	if err := s.player.Volume(o.volume); err != nil {
		log.Printf("audio: set volume: %v", err)
	}

	pub := s.dial(s.state.Inject)
	defer pub.Close()

	// Status tracker (before STARTUP so the snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		EdgeMode:    o.edgeMode,
		PollMs:      o.poll.Milliseconds(),
		DebounceUs:  o.debounce.Microseconds(),
		SettleMs:    o.settle.Milliseconds(),
		LockoutMs:   o.lockout.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		LEDs:        o.leds,
		Brightness:  o.brightness,
		Tracks:      o.tracks,
		Volume:      o.volume,
		Broker:      o.broker,
		HTTPAddr:    o.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := pub.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notify := s.openRelay(ctx, s.state.Inject, tracker)

	fx := effect.NewPlayer(s.strip, s.player, effect.Config{Tracks: o.tracks, Sleep: s.fxSleep})

	// Edge source
	s.edgesLive.Store(true)
	if o.edgeMode == edgeModePoll {
		go gpio.PollEdges(ctx, s.sensor, o.edgePoll, s.onEdge)
	}

	log.Printf("started: edge-mode=%s debounce=%v settle=%v lockout=%v leds=%d tracks=%d broker=%q",
		o.edgeMode, o.debounce, o.settle, o.lockout, o.leds, o.tracks, o.broker)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	cfg := loopConfig{settle: o.settle, lockout: o.lockout, heartbeat: o.heartbeat}
	err := runLoop(s.sensor, s.state, cfg, notify, pub, pub, fx, tracker, time.Now, ticker.C, s.sig)

	s.strip.Clear()
	if err := s.strip.Show(); err != nil {
		log.Printf("led: clear: %v", err)
	}
	if err := s.player.Stop(); err != nil {
		log.Printf("audio: stop: %v", err)
	}
	return err
}

// halt blocks until the process is signalled. It stands in for the main
// loop when the device cannot run.
func halt(sig <-chan os.Signal) {
	s := <-sig
	log.Printf("received %v while halted, exiting", s)
}

// notifier tells scoreboard viewers about dispatched hits.
type notifier interface {
	Broadcast(token string)
	Viewers() int
}

// hitEffect runs the sound and light show for one dispatch and returns the
// clip played. It blocks until the show is over.
type hitEffect interface {
	Play() int
}

type loopConfig struct {
	settle    time.Duration
	lockout   time.Duration
	heartbeat time.Duration
}

// loop holds the main loop's collaborators and the polled pipeline stages.
type loop struct {
	sensor     gpio.Sensor
	state      *logic.DetectorState
	cfg        loopConfig
	notify     notifier
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	fx         hitEffect
	tracker    *status.Tracker
	now        func() time.Time

	rearm      *logic.RearmMonitor
	dispatcher *logic.Dispatcher
	heartbeat  *logic.Heartbeat
}

func newLoop(sensor gpio.Sensor, state *logic.DetectorState, cfg loopConfig, notify notifier, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, fx hitEffect, tracker *status.Tracker, now func() time.Time) *loop {
	return &loop{
		sensor:     sensor,
		state:      state,
		cfg:        cfg,
		notify:     notify,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		fx:         fx,
		tracker:    tracker,
		now:        now,
		rearm:      logic.NewRearmMonitor(state, cfg.settle),
		dispatcher: logic.NewDispatcher(state, cfg.lockout),
		heartbeat:  logic.NewHeartbeat(state, now()),
	}
}

// runLoop is the main loop. Each tick runs one pass; a pass that dispatches
// blocks for the whole effect, so signals are seen on the next pass.
func runLoop(sensor gpio.Sensor, state *logic.DetectorState, cfg loopConfig, notify notifier, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, fx hitEffect, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	l := newLoop(sensor, state, cfg, notify, publisher, mqttStatus, fx, tracker, now)
	for {
		select {
		case s := <-sig:
			l.shutdown(s)
			return nil
		case <-tick:
			l.pass()
		}
	}
}

// pass re-arms the detector once the beam has settled clear, then
// dispatches any pending hits.
func (l *loop) pass() {
	t := l.now()
	clear, err := l.sensor.Clear()
	if err != nil {
		log.Printf("gpio read error: %v", err)
	} else {
		l.rearm.Poll(clear, t)
	}

	if hit, ok := l.dispatcher.Drain(t); ok {
		log.Printf("hit dispatched (%d queued)", hit.Queued)
		if l.notify != nil {
			l.notify.Broadcast(relay.HitToken)
		}
		if err := l.publisher.PublishHit(hit); err != nil {
			log.Printf("publish error: %v", err)
		}
		track := l.fx.Play()
		l.dispatcher.Complete(l.now())
		if l.tracker != nil {
			l.tracker.RecordHit(hit.Timestamp, track)
		}
	}

	if hbData := l.heartbeat.Check(t, l.cfg.heartbeat); hbData != nil {
		log.Printf("heartbeat: uptime=%v edges=%d dispatched=%d coalesced=%d injected=%d",
			hbData.Uptime, hbData.Counts.Edges, hbData.Counts.Dispatched, hbData.Counts.Coalesced, hbData.Counts.Injected)

		hbEvent := mqtt.SystemEvent{
			Timestamp: hbData.Timestamp,
			Event:     "HEARTBEAT",
		}
		if l.tracker != nil {
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				l.tracker.SetNetwork(net)
			}
			l.updateTracker()
			hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
		}
		if err := l.publisher.PublishSystem(hbEvent); err != nil {
			log.Printf("heartbeat publish error: %v", err)
		}
	}

	if l.tracker != nil {
		l.updateTracker()
	}
}

func (l *loop) shutdown(s os.Signal) {
	log.Printf("received %v, shutting down", s)
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "SHUTDOWN",
		Reason:    signalName,
		Retained:  true,
	}
	if l.tracker != nil {
		l.updateTracker()
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", signalName)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func (l *loop) updateTracker() {
	l.tracker.Update(l.state.State(), l.state.Pending(), l.state.Counts())
	if l.notify != nil {
		l.tracker.SetViewers(l.notify.Viewers())
	}
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func beamString(clear bool) string {
	if clear {
		return "CLEAR"
	}
	return "BROKEN"
}
