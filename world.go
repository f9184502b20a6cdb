package main

import (
	"sort"
	"sync"
)

// World holds all game state. The GameLoop holds mu for writing for the whole
// of a tick; every method without its own locking expects the caller to hold mu.
type World struct {
	mu       sync.RWMutex
	cfg      *Config
	Entities map[string]*Entity // name -> entity, players and bots alike
	Food     map[string]*Food
	Portals  map[string]*Portal
	Grid     *SpatialGrid
}

// NewWorld creates an empty world
func NewWorld(cfg *Config) *World {
	return &World{
		cfg:      cfg,
		Entities: make(map[string]*Entity),
		Food:     make(map[string]*Food),
		Portals:  make(map[string]*Portal),
		Grid:     NewSpatialGrid(cfg.GridCellSize),
	}
}

// Snapshot is a consistent, deep-copied read of the live world.
type Snapshot struct {
	Players []Entity
	Bots    []Entity
	Food    []Food
	Portals []Portal
}

// AddPlayer spawns a player entity under name (caller must hold mu.Lock).
// The name must be valid and not held by any entity still in the world.
func (w *World) AddPlayer(name string, color [3]int, factory *EntityFactory) (*Entity, error) {
	if err := ValidateName(name, w.cfg.MaxNameLen); err != nil {
		return nil, err
	}
	if _, taken := w.Entities[name]; taken {
		return nil, ErrNameTaken
	}
	e := factory.SpawnPlayer(name, color)
	w.Entities[name] = e
	return e, nil
}

// AddEntity inserts a pre-built entity, used for bots (caller must hold mu.Lock)
func (w *World) AddEntity(e *Entity) error {
	if _, taken := w.Entities[e.Name]; taken {
		return ErrNameTaken
	}
	w.Entities[e.Name] = e
	return nil
}

// RemoveEntity deletes an entity by name (caller must hold mu.Lock)
func (w *World) RemoveEntity(name string) (*Entity, bool) {
	e, ok := w.Entities[name]
	if ok {
		delete(w.Entities, name)
	}
	return e, ok
}

// Entity returns the live (non-dead) entity registered under name
func (w *World) Entity(name string) (*Entity, bool) {
	e, ok := w.Entities[name]
	if !ok || !e.Alive() {
		return nil, false
	}
	return e, true
}

// HasName reports whether any entity, dead or alive, still holds name
func (w *World) HasName(name string) bool {
	_, ok := w.Entities[name]
	return ok
}

// ApplyMovement displaces an entity by (dx, dy) and clamps it to the map
// (caller must hold mu.Lock). Dead or unknown entities are ignored.
func (w *World) ApplyMovement(name string, dx, dy float64) (float64, float64, bool) {
	e, ok := w.Entity(name)
	if !ok {
		return 0, 0, false
	}
	w.MoveTo(e, e.X+dx, e.Y+dy)
	return e.X, e.Y, true
}

// MoveTo places e at (x, y) clamped to the map bounds
func (w *World) MoveTo(e *Entity, x, y float64) {
	e.X = Clamp(x, 0, w.cfg.MapWidth)
	e.Y = Clamp(y, 0, w.cfg.MapHeight)
}

// LiveEntities returns every non-dead entity ordered by name, the stable
// iteration order used by interaction resolution.
func (w *World) LiveEntities() []*Entity {
	out := make([]*Entity, 0, len(w.Entities))
	for _, e := range w.Entities {
		if e.Alive() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeadEntities returns entities marked dead this tick, ordered by name
func (w *World) DeadEntities() []*Entity {
	var out []*Entity
	for _, e := range w.Entities {
		if e.Dead {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddFood adds a pellet to the world and the grid (caller must hold mu.Lock)
func (w *World) AddFood(f *Food) {
	w.Food[f.ID] = f
	w.Grid.InsertFood(f)
}

// RemoveFood removes a pellet by ID (caller must hold mu.Lock)
func (w *World) RemoveFood(id string) bool {
	f, ok := w.Food[id]
	if !ok {
		return false
	}
	delete(w.Food, id)
	w.Grid.RemoveFood(f)
	return true
}

// AddPortal adds a portal (caller must hold mu.Lock)
func (w *World) AddPortal(p *Portal) {
	w.Portals[p.ID] = p
}

// RemovePortal removes a portal by ID (caller must hold mu.Lock)
func (w *World) RemovePortal(id string) bool {
	if _, ok := w.Portals[id]; !ok {
		return false
	}
	delete(w.Portals, id)
	return true
}

// PortalsByID returns the portals ordered by ID
func (w *World) PortalsByID() []*Portal {
	out := make([]*Portal, 0, len(w.Portals))
	for _, p := range w.Portals {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PortalCount returns how many portals of kind are live
func (w *World) PortalCount(kind PortalKind) int {
	n := 0
	for _, p := range w.Portals {
		if p.Kind == kind {
			n++
		}
	}
	return n
}

// Snapshot takes the read lock and returns a consistent copy of the world.
// Safe to call from any goroutine.
func (w *World) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot()
}

// snapshot copies the live world (caller must hold at least mu.RLock)
func (w *World) snapshot() Snapshot {
	s := Snapshot{
		Players: []Entity{},
		Bots:    []Entity{},
		Food:    make([]Food, 0, len(w.Food)),
		Portals: make([]Portal, 0, len(w.Portals)),
	}
	for _, e := range w.LiveEntities() {
		if e.IsBot() {
			s.Bots = append(s.Bots, *e)
		} else {
			s.Players = append(s.Players, *e)
		}
	}
	for _, f := range w.Food {
		s.Food = append(s.Food, *f)
	}
	sort.Slice(s.Food, func(i, j int) bool { return s.Food[i].ID < s.Food[j].ID })
	for _, p := range w.PortalsByID() {
		s.Portals = append(s.Portals, *p)
	}
	return s
}

// Leaderboard returns the top n live entities sorted by radius
// (caller must hold at least mu.RLock)
func (w *World) Leaderboard(n int) []LeaderboardEntry {
	live := w.LiveEntities()
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].R > live[j].R
	})
	if len(live) > n {
		live = live[:n]
	}
	entries := make([]LeaderboardEntry, len(live))
	for i, e := range live {
		entries[i] = LeaderboardEntry{Name: e.Name, R: roundTo1(e.R), Bot: e.IsBot()}
	}
	return entries
}

// Counts returns the number of live players, live bots, food and portals
// (caller must hold at least mu.RLock)
func (w *World) Counts() (players, bots, food, portals int) {
	for _, e := range w.Entities {
		if e.Dead {
			continue
		}
		if e.IsBot() {
			bots++
		} else {
			players++
		}
	}
	return players, bots, len(w.Food), len(w.Portals)
}
