package main

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeSink records frames pushed by the game loop
type fakeSink struct {
	mu     sync.Mutex
	frames []Frame
	full   bool
	closed bool
}

func (f *fakeSink) Send(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.full {
		return ErrPeerGone
	}
	cp := Frame{Data: append([]byte(nil), fr.Data...), Binary: fr.Binary}
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSink) setFull(full bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.full = full
}

func (f *fakeSink) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// messages decodes every JSON frame received so far
func (f *fakeSink) messages(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(fr.Data, &m); err != nil {
			t.Fatalf("decode frame %s: %v", fr.Data, err)
		}
		out = append(out, m)
	}
	return out
}

// ofType returns the received messages with the given type
func (f *fakeSink) ofType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range f.messages(t) {
		if m["type"] == typ {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSink) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func TestSessionRegistryBindAndUnbind(t *testing.T) {
	r := NewSessionRegistry()
	now := time.Unix(0, 0)
	a, b := &fakeSink{}, &fakeSink{}

	if err := r.Bind(a, "alice"); !errors.Is(err, ErrPeerGone) {
		t.Errorf("bind before attach = %v, want ErrPeerGone", err)
	}
	r.Attach(now, a)
	r.Attach(now, b)
	if r.Attach(now, a) == nil || r.Len() != 2 {
		t.Fatalf("attach should be idempotent, len = %d", r.Len())
	}

	if err := r.Bind(a, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := r.Bind(b, "alice"); !errors.Is(err, ErrNameTaken) {
		t.Errorf("second bind = %v, want ErrNameTaken", err)
	}
	if err := r.Bind(a, "other"); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("rebind = %v, want ErrAlreadyJoined", err)
	}

	if _, ok := r.Unbind("alice"); !ok {
		t.Fatal("unbind failed")
	}
	s, ok := r.BySink(a)
	if !ok || s.Joined() {
		t.Error("unbound session should stay attached as a spectator")
	}
	if err := r.Bind(b, "alice"); err != nil {
		t.Errorf("name should be free after unbind: %v", err)
	}
}

func TestSessionRegistryDetach(t *testing.T) {
	r := NewSessionRegistry()
	now := time.Unix(0, 0)
	a, b := &fakeSink{}, &fakeSink{}
	r.Attach(now, a)
	r.Attach(now, b)
	_ = r.Bind(a, "alice")

	if _, ok := r.Detach(a); !ok {
		t.Fatal("detach failed")
	}
	if _, ok := r.ByName("alice"); ok {
		t.Error("detach should unbind the name")
	}
	if _, ok := r.Detach(a); ok {
		t.Error("second detach should report false")
	}
	all := r.All()
	if len(all) != 1 || all[0].Sink != b {
		t.Errorf("all = %+v", all)
	}
	if r.Joined() != 0 {
		t.Errorf("joined = %d", r.Joined())
	}
}
