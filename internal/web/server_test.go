package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/beam-target/internal/logic"
	"github.com/sweeney/beam-target/internal/relay"
	"github.com/sweeney/beam-target/internal/status"
)

func newTestServer(t *testing.T, hub http.Handler) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		EdgeMode:  "interrupt",
		PollMs:    1,
		LockoutMs: 300,
		LEDs:      16,
		Tracks:    15,
		HTTPAddr:  ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr, hub)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestIndexPage(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
	page := string(body)
	for _, want := range []string{"<title>Beam Target</title>", `id="send"`, "Send Hit", `"/ws"`, `/qr.png`} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if n := strings.Count(page, `class="px"`); n != 16 {
		t.Errorf("strip pixels: got %d, want 16", n)
	}
}

func TestIndexAnyMethod(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	for _, path := range []string{"/", "/index.html"} {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodHead} {
			req, err := http.NewRequest(method, ts.URL+path, strings.NewReader("x=1"))
			if err != nil {
				t.Fatalf("new request: %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("%s %s: %v", method, path, err)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode != 200 {
				t.Errorf("%s %s: status %d, want 200", method, path, resp.StatusCode)
			}
			if method != http.MethodHead && !strings.Contains(string(body), `id="scoreboard"`) {
				t.Errorf("%s %s: expected the page", method, path)
			}
		}
	}
}

// The simulated chase lights one group per frame and clears only that group
// once its hold is over, like the strip does.
func TestSimulatorChaseClearsOwnGroup(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	_, body := get(t, ts.URL+"/")
	page := string(body)

	if !strings.Contains(page, `after: function() { for (var i = q; i < n; i += 3) set(i, "#000"); }`) {
		t.Error("chase frame should clear its own group after the hold")
	}
	if !strings.Contains(page, "if (fr.after) fr.after();") {
		t.Error("animation should run a frame's after hook before the next frame")
	}
	if strings.Contains(page, "fill(\"#000\");\n      for (var i = q;") {
		t.Error("chase frame must not blank the whole strip")
	}
}

// Deleting a player keeps the selection on the same player.
func TestSimulatorDeleteKeepsSelection(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	_, body := get(t, ts.URL+"/")
	page := string(body)

	if strings.Contains(page, "select(players.length ? 0 : -1)") {
		t.Error("delete must not reset the selection to the first player")
	}
	for _, want := range []string{"if (i < active)", "active--;", "select(players.length ? Math.min(i, players.length - 1) : -1)"} {
		if !strings.Contains(page, want) {
			t.Errorf("delete handler missing %q", want)
		}
	}
}

func TestIndexTitleUsesSSID(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.SetNetwork(&status.NetworkInfo{Type: "ap", IP: "192.168.4.1", SSID: "Target-A1B2C3"})

	_, body := get(t, ts.URL+"/index.html")
	if !strings.Contains(string(body), "<title>Target-A1B2C3</title>") {
		t.Error("expected SSID as page title")
	}
}

func TestCaptivePortalCatchAll(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	for _, path := range []string{"/generate_204", "/hotspot-detect.html", "/some/deep/path"} {
		resp, body := get(t, ts.URL+path)
		if resp.StatusCode != 200 {
			t.Errorf("%s: status %d, want 200", path, resp.StatusCode)
		}
		if !strings.Contains(string(body), "Send Hit") {
			t.Errorf("%s: expected scoreboard page", path)
		}
	}
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, nil)
	tr.Update(logic.StateDisarmed, 1, logic.Counts{Edges: 4, Dispatched: 3, Coalesced: 1})
	tr.SetViewers(2)

	resp, body := get(t, ts.URL+"/index.json")
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal(body, &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.Sensor != "DISARMED" {
		t.Errorf("sensor: got %q", sj.Status.Sensor)
	}
	if sj.Status.Pending != 1 || sj.Status.Viewers != 2 {
		t.Errorf("pending/viewers: got %d/%d", sj.Status.Pending, sj.Status.Viewers)
	}
	if sj.Status.Counts.Dispatched != 3 {
		t.Errorf("dispatched: got %d", sj.Status.Counts.Dispatched)
	}
	if sj.Status.Config.LockoutMs != 300 {
		t.Errorf("lockout_ms: got %d", sj.Status.Config.LockoutMs)
	}
}

func TestQRCode(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/qr.png")
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type: got %q, want image/png", ct)
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("body is not a PNG")
	}
}

func TestJoinURL(t *testing.T) {
	r := httptest.NewRequest("GET", "http://target.local/qr.png", nil)

	if got := joinURL(status.Snapshot{}, r); got != "http://target.local/" {
		t.Errorf("no network: got %q", got)
	}
	snap := status.Snapshot{Network: &status.NetworkInfo{IP: "192.168.4.1"}}
	if got := joinURL(snap, r); got != "http://192.168.4.1/" {
		t.Errorf("with network: got %q", got)
	}
}

func TestWebSocketRoute(t *testing.T) {
	injected := make(chan struct{}, 1)
	hub := relay.NewHub(func() { injected <- struct{}{} })
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ts, _ := newTestServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hit")); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-injected:
	case <-time.After(2 * time.Second):
		t.Fatal("injection not delivered through /ws")
	}
}

func TestWebSocketRouteDisabled(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	// Without a relay /ws falls through to the page.
	resp, body := get(t, ts.URL+"/ws")
	if resp.StatusCode != 200 || !strings.Contains(string(body), "Send Hit") {
		t.Errorf("expected page fallback, got %d", resp.StatusCode)
	}
}
