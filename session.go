package main

import (
	"sort"
	"time"
)

// Sink is the outbound side of one connection. Send must never block: a
// full buffer or closed peer returns ErrPeerGone. Close flushes what is
// already queued, then closes the connection.
type Sink interface {
	Send(Frame) error
	Close() error
}

// Session is one attached connection, bound to a display name once it joins.
type Session struct {
	Sink       Sink
	Name       string // empty until joined, cleared again on death
	AttachedAt time.Time
	seq        uint64
}

// Joined reports whether the session currently controls a blob
func (s *Session) Joined() bool {
	return s.Name != ""
}

// SessionRegistry maps connections and display names to sessions. It is
// owned by the game loop goroutine and not safe for concurrent use.
type SessionRegistry struct {
	bySink map[Sink]*Session
	byName map[string]*Session
	seq    uint64
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		bySink: make(map[Sink]*Session),
		byName: make(map[string]*Session),
	}
}

// Attach registers sink as a spectator; attaching twice returns the existing session.
func (r *SessionRegistry) Attach(now time.Time, sink Sink) *Session {
	if s, ok := r.bySink[sink]; ok {
		return s
	}
	r.seq++
	s := &Session{Sink: sink, AttachedAt: now, seq: r.seq}
	r.bySink[sink] = s
	return s
}

// Detach removes the session for sink entirely, unbinding its name.
func (r *SessionRegistry) Detach(sink Sink) (*Session, bool) {
	s, ok := r.bySink[sink]
	if !ok {
		return nil, false
	}
	delete(r.bySink, sink)
	if s.Name != "" {
		delete(r.byName, s.Name)
	}
	return s, true
}

// Bind associates an attached session with name.
func (r *SessionRegistry) Bind(sink Sink, name string) error {
	s, ok := r.bySink[sink]
	if !ok {
		return ErrPeerGone
	}
	if s.Name != "" {
		return ErrAlreadyJoined
	}
	if _, taken := r.byName[name]; taken {
		return ErrNameTaken
	}
	s.Name = name
	r.byName[name] = s
	return nil
}

// Unbind clears the name binding but keeps the connection attached, so a
// dead player keeps receiving updates and may join again.
func (r *SessionRegistry) Unbind(name string) (*Session, bool) {
	s, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	delete(r.byName, name)
	s.Name = ""
	return s, true
}

// ByName returns the session bound to name
func (r *SessionRegistry) ByName(name string) (*Session, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// BySink returns the session for sink
func (r *SessionRegistry) BySink(sink Sink) (*Session, bool) {
	s, ok := r.bySink[sink]
	return s, ok
}

// All returns every attached session in attach order.
func (r *SessionRegistry) All() []*Session {
	out := make([]*Session, 0, len(r.bySink))
	for _, s := range r.bySink {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Len returns the number of attached sessions
func (r *SessionRegistry) Len() int {
	return len(r.bySink)
}

// Joined returns the number of sessions bound to a name
func (r *SessionRegistry) Joined() int {
	return len(r.byName)
}
