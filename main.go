package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Server wires the game loop to HTTP: the WebSocket endpoint, status and
// optional static files.
type Server struct {
	cfg      *Config
	codec    Codec
	world    *World
	loop     *GameLoop
	conns    *ConnManager
	limiter  *connLimiter
	upgrader websocket.Upgrader
	pumps    sync.WaitGroup // running write pumps
}

// NewServer builds the world and game loop. The loop does not run until Run.
func NewServer(cfg *Config, rng *rand.Rand) (*Server, error) {
	codec, err := NewCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}
	world := NewWorld(cfg)
	return &Server{
		cfg:     cfg,
		codec:   codec,
		world:   world,
		loop:    NewGameLoop(cfg, world, codec, rng),
		conns:   NewConnManager(),
		limiter: newConnLimiter(cfg.MaxConnections, cfg.ConnsPerSecond),
		upgrader: websocket.Upgrader{
			// Allow all origins; the client may be served from anywhere
			CheckOrigin:       func(r *http.Request) bool { return true },
			ReadBufferSize:    1024,
			WriteBufferSize:   4096,
			EnableCompression: true,
		},
	}, nil
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.WebSocketPath, s.handleWS)
	mux.HandleFunc("/status", s.handleStatus)
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return mux
}

// Run starts the game loop and limiter cleanup; it returns once the loop has
// stopped after ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	go s.limiter.Run(ctx)
	s.loop.Run(ctx)
}

// Drain waits until every write pump has flushed its queue and closed its
// socket, or until ctx is done. Call it after Run returns.
func (s *Server) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pumps.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.loop.State() != LoopRunning {
		http.Error(w, ErrStopped.Error(), http.StatusServiceUnavailable)
		return
	}

	// Admission control happens before the upgrade so refusals are plain HTTP
	ip := clientIP(r)
	if err := s.limiter.Admit(ip, s.conns.Count()); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		log.Printf("connection from %s refused: %v", ip, err)
		http.Error(w, err.Error(), status)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	ws.EnableWriteCompression(true)

	conn := NewConn(ws, ip, s.cfg)
	s.conns.Add(conn)
	log.Printf("client connected: %s from %s", conn.ID, ip)
	s.pumps.Add(1)
	go func() {
		defer s.pumps.Done()
		conn.WritePump()
	}()

	ctx := context.Background()
	h := NewConnectionHandler(s.loop, s.codec, conn)
	if err := h.Open(ctx); err == nil {
		// Blocking read loop, runs until the client disconnects
		if err := conn.ReadPump(func(data []byte, binary bool) error {
			return h.HandleFrame(ctx, data, binary)
		}); err != nil && !errors.Is(err, ErrStopped) {
			log.Printf("closing %s: %v", conn.ID, err)
		}
	}

	h.Close(ctx)
	s.conns.Remove(conn.ID)
	conn.Close()
	log.Printf("client disconnected: %s", conn.ID)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.loop.Stats()
	stats.Connections = s.conns.Count()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Printf("status encode error: %v", err)
	}
}

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	srv, err := NewServer(&cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{Addr: cfg.Addr, Handler: srv.Handler()}
	go func() {
		log.Printf("server listening on %s (map %.0fx%.0f, codec %s)", cfg.Addr, cfg.MapWidth, cfg.MapHeight, cfg.Codec)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	srv.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Hijacked WebSocket connections are invisible to http.Server.Shutdown
	if err := srv.Drain(shutdownCtx); err != nil {
		log.Printf("connections not drained: %v", err)
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	log.Printf("server stopped")
}
