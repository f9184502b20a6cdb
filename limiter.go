package main

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// connLimiter decides whether a new connection may be accepted: a global
// cap on open connections and a per-IP cap on new connections per second.
type connLimiter struct {
	mu        sync.Mutex
	max       int
	perSecond int
	windows   map[string]*ipWindow
	now       func() time.Time
}

type ipWindow struct {
	start time.Time
	count int
}

func newConnLimiter(maxConns, perSecond int) *connLimiter {
	return &connLimiter{
		max:       maxConns,
		perSecond: perSecond,
		windows:   make(map[string]*ipWindow),
		now:       time.Now,
	}
}

// Admit checks both limits and records the attempt. active is the number of
// connections currently open.
func (l *connLimiter) Admit(ip string, active int) error {
	if l.max > 0 && active >= l.max {
		return ErrTooManyConnections
	}
	if l.perSecond <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.windows[ip]
	if !ok || now.Sub(w.start) >= time.Second {
		l.windows[ip] = &ipWindow{start: now, count: 1}
		return nil
	}
	if w.count >= l.perSecond {
		return ErrRateLimited
	}
	w.count++
	return nil
}

// cleanup forgets windows that started before cutoff
func (l *connLimiter) cleanup(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, w := range l.windows {
		if w.start.Before(cutoff) {
			delete(l.windows, ip)
			n++
		}
	}
	return n
}

// Run drops stale entries every minute until ctx is done
func (l *connLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup(l.now().Add(-time.Minute))
		}
	}
}

// clientIP extracts the remote IP, honoring X-Forwarded-For from a reverse proxy
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
