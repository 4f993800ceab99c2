// Package diag serves the debug counters over HTTP and a websocket stream.
package diag

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hordesim/simcore/internal/config"
	"github.com/hordesim/simcore/internal/sim"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Server keeps the latest diagnostics snapshot and serves it to overlay clients.
// Publish is called from the tick goroutine; handlers only read the snapshot.
type Server struct {
	addr     string
	interval time.Duration
	log      *zap.Logger
	clients  atomic.Int32
	upgrader websocket.Upgrader

	mu        sync.RWMutex
	latest    sim.Diagnostics
	published bool
}

func NewServer(cfg config.DiagConfig, log *zap.Logger) *Server {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Server{
		addr:     cfg.BindAddress,
		interval: interval,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 4096,
		},
	}
}

// Publish copies d over the current snapshot.
func (s *Server) Publish(d sim.Diagnostics) {
	s.mu.Lock()
	s.latest = d
	s.published = true
	s.mu.Unlock()
}

// Latest returns the most recent snapshot, if any was published.
func (s *Server) Latest() (sim.Diagnostics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.published
}

// Clients returns the number of connected stream clients.
func (s *Server) Clients() int { return int(s.clients.Load()) }

// Handler routes /debug/counters and /debug/ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/counters", s.handleCounters)
	mux.HandleFunc("GET /debug/ws", s.handleStream)
	return mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("diagnostics listening", zap.String("addr", s.addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleCounters(w http.ResponseWriter, _ *http.Request) {
	d, ok := s.Latest()
	if !ok {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	body, err := msgpack.Marshal(newSnapshot(d))
	if err != nil {
		s.log.Error("encode diagnostics", zap.Error(err))
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/msgpack")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(body)
}

// handleStream pushes a msgpack snapshot every interval whenever the tick advanced.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("diagnostics upgrade failed", zap.Error(err))
		return
	}
	s.clients.Add(1)
	defer func() {
		s.clients.Add(-1)
		conn.Close()
	}()

	// Drain client frames so pongs and the close handshake are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := time.NewTicker(s.interval)
	ping := time.NewTicker(pingPeriod)
	defer push.Stop()
	defer ping.Stop()

	var sent uint64
	first := true
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-push.C:
			d, ok := s.Latest()
			if !ok || (!first && d.Tick == sent) {
				continue
			}
			body, err := msgpack.Marshal(newSnapshot(d))
			if err != nil {
				s.log.Error("encode diagnostics", zap.Error(err))
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, body); err != nil {
				return
			}
			sent, first = d.Tick, false
		}
	}
}
