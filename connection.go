package main

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn manages a single WebSocket connection. Outbound frames go through a
// bounded buffer drained by WritePump; Send never blocks.
type Conn struct {
	ID         string
	RemoteAddr string

	ws     *websocket.Conn
	cfg    *Config
	send   chan Frame
	mu     sync.Mutex // guards closed and the close of send
	closed bool
}

// NewConn creates a new connection wrapper
func NewConn(ws *websocket.Conn, remoteAddr string, cfg *Config) *Conn {
	return &Conn{
		ID:         uuid.New().String(),
		RemoteAddr: remoteAddr,
		ws:         ws,
		cfg:        cfg,
		send:       make(chan Frame, cfg.SendBuffer),
	}
}

// Send queues a frame. Returns ErrPeerGone if the buffer is full or the
// connection is closing.
func (c *Conn) Send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrPeerGone
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrPeerGone
	}
}

// Close stops accepting frames. WritePump flushes what is queued, sends a
// close message and tears the socket down. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// ReadPump reads frames and hands them to handle until the peer goes away or
// handle returns an error.
func (c *Conn) ReadPump(handle func(data []byte, binary bool) error) error {
	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error for %s: %v", c.ID, err)
			}
			return nil
		}
		if err := handle(data, msgType == websocket.BinaryMessage); err != nil {
			return err
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
// It owns the socket and closes it on exit.
func (c *Conn) WritePump() {
	pingPeriod := c.cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			mt := websocket.TextMessage
			if f.Binary {
				mt = websocket.BinaryMessage
			}
			if err := c.ws.WriteMessage(mt, f.Data); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// ConnManager tracks all open connections for admission control and status
type ConnManager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewConnManager creates an empty connection manager
func NewConnManager() *ConnManager {
	return &ConnManager{conns: make(map[string]*Conn)}
}

// Add registers a connection
func (m *ConnManager) Add(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c.ID] = c
}

// Remove unregisters a connection
func (m *ConnManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, id)
}

// Count returns the number of active connections
func (m *ConnManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}
