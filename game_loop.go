package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync/atomic"
	"time"
)

// LoopState is the lifecycle of the game loop
type LoopState int32

const (
	LoopRunning LoopState = iota
	LoopStopping
	LoopStopped
)

func (s LoopState) String() string {
	switch s {
	case LoopRunning:
		return "running"
	case LoopStopping:
		return "stopping"
	case LoopStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Intents submitted by connections. Only the loop goroutine acts on them.
type (
	attachIntent struct {
		Sink Sink
	}
	joinIntent struct {
		Sink  Sink
		Name  string
		Color []int // nil picks a palette color
		Reply chan<- JoinResult
	}
	playerMove struct {
		Sink   Sink
		DX, DY float64
	}
	chatIntent struct {
		Sink    Sink
		Message string
	}
	leaveIntent struct {
		Sink Sink
	}
)

// JoinResult answers a join intent. Err is nil on success.
type JoinResult struct {
	ID    string
	Name  string
	Color [3]int
	Err   error
}

// GameLoop drives the game at a fixed tick rate. It is the only writer of
// the world: connections talk to it through its inbox.
type GameLoop struct {
	cfg       *Config
	world     *World
	factory   *EntityFactory
	resolver  *Resolver
	bots      *BotController
	scheduler *Scheduler
	sessions  *SessionRegistry
	chat      *ChatLog
	codec     Codec

	inbox     chan any
	state     atomic.Int32
	done      chan struct{}
	tickCount uint64
}

// NewGameLoop creates a game loop with a populated world: food, portals and
// the initial bots exist before the first tick.
func NewGameLoop(cfg *Config, world *World, codec Codec, rng *rand.Rand) *GameLoop {
	factory := NewEntityFactory(cfg, rng)
	scheduler := NewScheduler()
	gl := &GameLoop{
		cfg:       cfg,
		world:     world,
		factory:   factory,
		resolver:  NewResolver(cfg, world, factory),
		bots:      NewBotController(cfg, world, factory, scheduler, rng),
		scheduler: scheduler,
		sessions:  NewSessionRegistry(),
		chat:      NewChatLog(cfg.ChatLogSize, cfg.ChatMaxLen),
		codec:     codec,
		inbox:     make(chan any, cfg.InboxSize),
		done:      make(chan struct{}),
	}

	world.mu.Lock()
	gl.resolver.Populate()
	gl.bots.SpawnInitial()
	world.mu.Unlock()
	return gl
}

// State returns the current lifecycle state
func (gl *GameLoop) State() LoopState {
	return LoopState(gl.state.Load())
}

// Done is closed once the loop has stopped
func (gl *GameLoop) Done() <-chan struct{} {
	return gl.done
}

// Run starts the fixed-timestep loop. Blocks until ctx is cancelled and the
// shutdown sequence has finished.
func (gl *GameLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(gl.cfg.TickInterval())
	defer ticker.Stop()
	log.Printf("game loop started at %d ticks/sec", gl.cfg.TickRate)

	for {
		select {
		case <-ctx.Done():
			gl.shutdown(time.Now())
			return
		case now := <-ticker.C:
			gl.tick(now)
		}
	}
}

// Submit queues an intent for the next tick. Blocks while the inbox is full.
func (gl *GameLoop) Submit(ctx context.Context, intent any) error {
	if gl.State() != LoopRunning {
		return ErrStopped
	}
	select {
	case gl.inbox <- intent:
		return nil
	case <-gl.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join submits a join and waits for the loop's answer. The loop has already
// pushed welcome or rejected to sink when this returns.
func (gl *GameLoop) Join(ctx context.Context, sink Sink, name string, color []int) (JoinResult, error) {
	reply := make(chan JoinResult, 1)
	if err := gl.Submit(ctx, joinIntent{Sink: sink, Name: name, Color: color, Reply: reply}); err != nil {
		return JoinResult{}, err
	}
	select {
	case res := <-reply:
		return res, res.Err
	case <-gl.done:
		return JoinResult{}, ErrStopped
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

// tick executes a single game update. The world write lock is held for the
// whole tick, so readers always see a tick boundary.
func (gl *GameLoop) tick(now time.Time) {
	w := gl.world
	w.mu.Lock()
	defer w.mu.Unlock()
	gl.tickCount++

	failed := make(map[Sink]struct{})

	// 1. Drain intents that arrived since the last tick
	moves := gl.drainInbox(now, failed)

	// 2. Scheduled respawns
	gl.scheduler.RunDue(now)

	// 3. Replenish and decay
	gl.resolver.ReplenishFood()
	gl.resolver.ReplenishPortals(now)
	gl.resolver.DecayMass(now)

	// 4. Bots decide on their own cadence and share the move queue
	if gl.bots.Due(now) {
		moves = append(moves, gl.bots.Decide(now)...)
	}

	// 5. Resolve every move in arrival order
	for _, m := range moves {
		if e, ok := w.Entity(m.Name); ok && e == m.Entity {
			gl.resolver.ResolveMove(e, m.DX, m.DY)
		}
	}
	events := gl.resolver.TakeEvents()
	for range events.PortalsUsed {
		gl.scheduler.After(now, gl.cfg.PortalRespawnDelay, func(time.Time) {
			gl.resolver.RespawnPortal()
		})
	}

	// 6. Broadcast the snapshot, then the tick's events
	gl.broadcastState(failed)
	gl.deliverEvents(events, failed)

	// 7. Cleanup: dead entities, kicked players, unreachable peers
	gl.removeDead(now, events)
	for sink := range failed {
		gl.disconnect(sink, "send buffer full")
	}
}

// drainInbox handles every intent queued before this tick started and
// returns the player moves in arrival order.
func (gl *GameLoop) drainInbox(now time.Time, failed map[Sink]struct{}) []moveIntent {
	var moves []moveIntent
	for n := len(gl.inbox); n > 0; n-- {
		switch in := (<-gl.inbox).(type) {
		case attachIntent:
			gl.sessions.Attach(now, in.Sink)
		case joinIntent:
			res := gl.handleJoin(now, in, failed)
			if in.Reply != nil {
				in.Reply <- res
			}
		case playerMove:
			s, ok := gl.sessions.BySink(in.Sink)
			if !ok || !s.Joined() {
				continue
			}
			if e, ok := gl.world.Entity(s.Name); ok {
				moves = append(moves, moveIntent{Name: s.Name, Entity: e, DX: in.DX, DY: in.DY})
			}
		case chatIntent:
			gl.handleChat(now, in, failed)
		case leaveIntent:
			gl.handleLeave(in.Sink)
		}
	}
	return moves
}

// handleJoin validates and admits a player. welcome or rejected is pushed to
// the sink before the reply is sent.
func (gl *GameLoop) handleJoin(now time.Time, in joinIntent, failed map[Sink]struct{}) JoinResult {
	w := gl.world
	sess := gl.sessions.Attach(now, in.Sink)

	res := JoinResult{Name: in.Name}
	if sess.Joined() {
		res.Err = ErrAlreadyJoined
	}
	var color [3]int
	if res.Err == nil {
		color, res.Err = ValidateColor(in.Color)
		if in.Color == nil {
			color = gl.factory.RandomColor()
		}
	}
	var e *Entity
	if res.Err == nil {
		e, res.Err = w.AddPlayer(in.Name, color, gl.factory)
	}
	if res.Err == nil {
		if err := gl.sessions.Bind(in.Sink, in.Name); err != nil {
			w.RemoveEntity(in.Name)
			res.Err = err
		}
	}

	if res.Err != nil {
		gl.push(in.Sink, RejectedMsg{Type: MsgRejected, Reason: res.Err.Error()}, failed)
		return res
	}

	res.ID, res.Color = e.ID, e.Color
	gl.push(in.Sink, WelcomeMsg{
		Type:      MsgWelcome,
		ID:        e.ID,
		Name:      e.Name,
		Color:     e.Color,
		MapWidth:  gl.cfg.MapWidth,
		MapHeight: gl.cfg.MapHeight,
		TickRate:  gl.cfg.TickRate,
		Chat:      gl.chat.History(),
	}, failed)
	log.Printf("player joined: %s (%s)", e.Name, e.ID)
	return res
}

// handleChat records and relays a chat line from a joined session
func (gl *GameLoop) handleChat(now time.Time, in chatIntent, failed map[Sink]struct{}) {
	s, ok := gl.sessions.BySink(in.Sink)
	if !ok || !s.Joined() {
		return
	}
	entry, ok := gl.chat.Append(now, s.Name, in.Message)
	if !ok {
		return
	}
	gl.pushAll(ChatMsg{Type: MsgChat, Name: entry.Name, Message: entry.Message, At: entry.At}, failed)
}

// handleLeave removes the session and its entity in the same step
func (gl *GameLoop) handleLeave(sink Sink) {
	s, ok := gl.sessions.Detach(sink)
	if !ok {
		return
	}
	if s.Name != "" {
		gl.world.RemoveEntity(s.Name)
		log.Printf("player left: %s", s.Name)
	}
}

// disconnect drops a peer the server gave up on and closes its connection.
func (gl *GameLoop) disconnect(sink Sink, reason string) {
	s, ok := gl.sessions.Detach(sink)
	if !ok {
		return
	}
	if s.Name != "" {
		gl.world.RemoveEntity(s.Name)
		log.Printf("player %s disconnected: %s", s.Name, reason)
	}
	_ = sink.Close()
}

func (gl *GameLoop) broadcastState(failed map[Sink]struct{}) {
	w := gl.world
	state := BuildState(gl.tickCount, w.snapshot(), gl.cfg.PortalRadius, w.Leaderboard(gl.cfg.LeaderboardSize))
	gl.pushAll(state, failed)
}

// deliverEvents sends eat to everyone, death to each victim and an error to
// each kicked player. Kicked players are closed in removeDead.
func (gl *GameLoop) deliverEvents(ev Events, failed map[Sink]struct{}) {
	for _, eat := range ev.Eats {
		gl.pushAll(EatMsg{Type: MsgEat, Eater: eat.Eater, Eaten: eat.Eaten}, failed)
	}
	for _, d := range ev.Deaths {
		log.Printf("%s was eaten by %s", d.Victim, d.Killer)
		if s, ok := gl.sessions.ByName(d.Victim); ok {
			gl.push(s.Sink, DeathMsg{Type: MsgDeath, Killer: d.Killer}, failed)
		}
	}
	for _, k := range ev.Kicks {
		log.Printf("%s %s kicked at r=%.1f: %v", k.Kind, k.Name, k.R, ErrOversize)
		if s, ok := gl.sessions.ByName(k.Name); ok {
			gl.push(s.Sink, ErrorMsg{Type: MsgError, Message: ErrOversize.Error()}, failed)
		}
	}
}

// removeDead takes every dead entity out of the world. Eaten players keep
// their connection; kicked players lose it; bots are scheduled to respawn.
func (gl *GameLoop) removeDead(now time.Time, ev Events) {
	kicked := make(map[string]bool, len(ev.Kicks))
	for _, k := range ev.Kicks {
		kicked[k.Name] = true
	}
	for _, e := range gl.world.DeadEntities() {
		gl.world.RemoveEntity(e.Name)
		if e.IsBot() {
			gl.bots.HandleDeath(now, e.Name)
			continue
		}
		s, ok := gl.sessions.Unbind(e.Name)
		if ok && kicked[e.Name] {
			gl.sessions.Detach(s.Sink)
			_ = s.Sink.Close()
		}
	}
}

// push encodes msg and hands it to sink. A failed push marks the sink for
// disconnection at the end of the tick.
func (gl *GameLoop) push(sink Sink, msg any, failed map[Sink]struct{}) {
	if _, gone := failed[sink]; gone {
		return
	}
	frame, err := gl.codec.Encode(msg)
	if err != nil {
		log.Printf("encode error: %v", err)
		return
	}
	if err := sink.Send(frame); err != nil {
		failed[sink] = struct{}{}
	}
}

// pushAll encodes msg once and sends it to every attached session
func (gl *GameLoop) pushAll(msg any, failed map[Sink]struct{}) {
	frame, err := gl.codec.Encode(msg)
	if err != nil {
		log.Printf("encode error: %v", err)
		return
	}
	for _, s := range gl.sessions.All() {
		if _, gone := failed[s.Sink]; gone {
			continue
		}
		if err := s.Sink.Send(frame); err != nil {
			if !errors.Is(err, ErrPeerGone) {
				log.Printf("send error: %v", err)
			}
			failed[s.Sink] = struct{}{}
		}
	}
}

// shutdown broadcasts a last snapshot, cancels pending respawns and closes
// every connection.
func (gl *GameLoop) shutdown(now time.Time) {
	gl.state.Store(int32(LoopStopping))
	log.Printf("game loop stopping")

	gl.world.mu.Lock()
	failed := make(map[Sink]struct{})
	gl.broadcastState(failed)
	cancelled := gl.scheduler.CancelAll()
	log.Printf("closing %d sessions (%d joined)", gl.sessions.Len(), gl.sessions.Joined())
	for _, s := range gl.sessions.All() {
		gl.sessions.Detach(s.Sink)
		_ = s.Sink.Close()
	}
	gl.world.mu.Unlock()

	gl.state.Store(int32(LoopStopped))
	close(gl.done)
	log.Printf("game loop stopped after %d ticks (%d pending tasks cancelled, at %s)", gl.tickCount, cancelled, now.Format(time.RFC3339))
}

// Stats is a point-in-time summary for the status endpoint.
type Stats struct {
	State       string `json:"state"`
	Tick        uint64 `json:"tick"`
	Players     int    `json:"players"`
	Bots        int    `json:"bots"`
	Food        int    `json:"food"`
	Portals     int    `json:"portals"`
	Connections int    `json:"connections"`
}

// Stats reads the world under the read lock. Safe from any goroutine.
func (gl *GameLoop) Stats() Stats {
	gl.world.mu.RLock()
	defer gl.world.mu.RUnlock()
	players, bots, food, portals := gl.world.Counts()
	return Stats{
		State:   gl.State().String(),
		Tick:    gl.tickCount,
		Players: players,
		Bots:    bots,
		Food:    food,
		Portals: portals,
	}
}
