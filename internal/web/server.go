// Package web provides the captive-portal HTTP surface of the beam-target daemon:
// the scoreboard page, a JSON status endpoint, the viewer WebSocket and a join QR code.
package web

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/sweeney/beam-target/internal/status"
)

// QRSize is the edge length in pixels of the join QR code.
const QRSize = 256

// Server serves the scoreboard over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
}

// New creates a Server that reads state from the given tracker and hands
// WebSocket upgrades on /ws to relay. A nil relay leaves /ws unrouted.
func New(addr string, tracker *status.Tracker, relay http.Handler) *Server {
	s := &Server{tracker: tracker}

	r := mux.NewRouter()
	// The page answers any method; some captive portal checks POST.
	r.HandleFunc("/", s.handleIndex)
	r.HandleFunc("/index.html", s.handleIndex)
	r.HandleFunc("/index.json", s.handleJSON).Methods("GET")
	r.HandleFunc("/qr.png", s.handleQR).Methods("GET")
	if relay != nil {
		r.Handle("/ws", relay)
	}
	// Captive portal: phones check arbitrary URLs and every one gets the page.
	r.NotFoundHandler = http.HandlerFunc(s.handleIndex)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := renderHTML(w, snap); err != nil {
		log.Printf("web: render page: %v", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(joinURL(s.tracker.Snapshot(), r), qrcode.Medium, QRSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// joinURL is the address viewers should open: the access point IP when
// pi-helper reported one, otherwise the host the request arrived on.
func joinURL(snap status.Snapshot, r *http.Request) string {
	if snap.Network != nil && snap.Network.IP != "" {
		return "http://" + snap.Network.IP + "/"
	}
	return "http://" + r.Host + "/"
}
