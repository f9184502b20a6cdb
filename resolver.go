package main

import (
	"math"
	"sort"
	"time"
)

// EatEvent records one predation: broadcast to every session.
type EatEvent struct {
	Eater string
	Eaten string
}

// DeathEvent is delivered to the victim's session only.
type DeathEvent struct {
	Victim string
	Killer string
}

// KickEvent marks an entity removed by the mass safety valve.
type KickEvent struct {
	Name string
	Kind Kind
	R    float64
}

// Events accumulates the outcomes of one tick.
type Events struct {
	Eats        []EatEvent
	Deaths      []DeathEvent
	Kicks       []KickEvent
	PortalsUsed []PortalKind
}

// Resolver applies every interaction rule to the world. Player intents and
// bot decisions both enter through ResolveMove.
type Resolver struct {
	cfg     *Config
	world   *World
	factory *EntityFactory

	lastPortalSpawn time.Time
	events          Events
}

// NewResolver creates a resolver bound to world
func NewResolver(cfg *Config, world *World, factory *EntityFactory) *Resolver {
	return &Resolver{cfg: cfg, world: world, factory: factory}
}

// Populate fills the food pool and portal set up to their targets
func (r *Resolver) Populate() {
	r.ReplenishFood()
	for len(r.world.Portals) < r.cfg.MaxPortals {
		r.spawnPortal()
	}
}

// ReplenishFood spawns food until the pool is back at MaxFood.
// Returns how many pellets were spawned.
func (r *Resolver) ReplenishFood() int {
	spawned := 0
	for len(r.world.Food) < r.cfg.MaxFood {
		r.world.AddFood(r.factory.SpawnFood())
		spawned++
	}
	return spawned
}

// ReplenishPortals spawns at most one portal per PortalInterval while below
// MaxPortals. Returns true if a portal was spawned.
func (r *Resolver) ReplenishPortals(now time.Time) bool {
	if now.Sub(r.lastPortalSpawn) < r.cfg.PortalInterval {
		return false
	}
	r.lastPortalSpawn = now
	if len(r.world.Portals) >= r.cfg.MaxPortals {
		return false
	}
	r.spawnPortal()
	return true
}

// RespawnPortal is the scheduled replacement for a consumed portal.
func (r *Resolver) RespawnPortal() bool {
	if len(r.world.Portals) >= r.cfg.MaxPortals {
		return false
	}
	r.spawnPortal()
	return true
}

// spawnPortal adds one portal, picking a kind below its floor first.
func (r *Resolver) spawnPortal() {
	for _, kind := range portalKinds {
		if r.world.PortalCount(kind) < r.cfg.MinPortalsPerType {
			r.world.AddPortal(r.factory.SpawnPortalOfKind(kind))
			return
		}
	}
	r.world.AddPortal(r.factory.SpawnPortal())
}

// DecayMass shrinks every live entity at or above DecayThreshold whose decay
// timer has elapsed. Entities below the threshold have their timer reset.
func (r *Resolver) DecayMass(now time.Time) {
	for _, e := range r.world.LiveEntities() {
		if e.R < r.cfg.DecayThreshold {
			e.lastDecay = now
			continue
		}
		if now.Sub(e.lastDecay) < r.cfg.DecayInterval {
			continue
		}
		e.R = math.Max(r.cfg.MinRadius, e.R-r.decayLoss(e.R))
		e.lastDecay = now
	}
}

// decayLoss interpolates between DecayMinLoss at the threshold and
// DecayMaxLoss at MaxMass.
func (r *Resolver) decayLoss(radius float64) float64 {
	span := r.cfg.MaxMass - r.cfg.DecayThreshold
	t := Clamp((radius-r.cfg.DecayThreshold)/span, 0, 1)
	return r.cfg.DecayMinLoss + (r.cfg.DecayMaxLoss-r.cfg.DecayMinLoss)*t
}

// ResolveMove moves e by the raw displacement (dx, dy) and resolves food,
// predation, portals and the size cap for it, in that order. e must be the
// live holder of its name; a stale entity is ignored.
func (r *Resolver) ResolveMove(e *Entity, dx, dy float64) {
	if e == nil || e.Dead {
		return
	}
	if holder, ok := r.world.Entity(e.Name); !ok || holder != e {
		return
	}
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return
	}
	dx, dy = ClampMagnitude(dx, dy, r.cfg.MaxStep)
	speed := r.speedFactor(e.R)
	r.world.ApplyMovement(e.Name, dx*speed, dy*speed)

	r.consumeFood(e)
	eater := r.resolvePredation(e)
	if e.Dead {
		if eater != nil {
			r.enforceSizeCap(eater)
		}
		return
	}
	r.usePortal(e)
	r.enforceSizeCap(e)
}

// speedFactor slows bigger blobs: sqrt(start radius / radius), capped at 1.
func (r *Resolver) speedFactor(radius float64) float64 {
	return math.Min(1, math.Sqrt(r.cfg.PlayerStartRadius/radius))
}

// consumeFood eats every pellet strictly inside e's radius. Replacements
// spawn in the next tick's replenish step.
func (r *Resolver) consumeFood(e *Entity) int {
	ids := r.world.Grid.NearbyFood(e.X, e.Y, e.R)
	sort.Strings(ids)
	eaten := 0
	for _, id := range ids {
		if r.world.RemoveFood(id) {
			e.R += r.cfg.FoodGain
			eaten++
		}
	}
	return eaten
}

// resolvePredation lets the mover eat every eligible victim in name order,
// then, if it survived, lets the first eligible entity eat the mover.
// Returns the entity that ate the mover, if any.
func (r *Resolver) resolvePredation(mover *Entity) *Entity {
	live := r.world.LiveEntities()
	for _, other := range live {
		if other == mover || other.Dead {
			continue
		}
		if r.canEat(mover, other) {
			r.eat(mover, other)
		}
	}
	for _, other := range live {
		if other == mover || other.Dead {
			continue
		}
		if r.canEat(other, mover) {
			r.eat(other, mover)
			return other
		}
	}
	return nil
}

// canEat reports whether a may swallow b
func (r *Resolver) canEat(a, b *Entity) bool {
	if a.Dead || b.Dead {
		return false
	}
	return Overlaps(a.X, a.Y, b.X, b.Y, a.R) && a.R > b.R+r.cfg.EatMargin
}

// eat applies a predation. b is marked dead, not removed, so its session can
// still be told who ate it.
func (r *Resolver) eat(a, b *Entity) {
	a.R += math.Floor(b.R * r.cfg.PredationGain)
	b.Dead = true
	r.events.Eats = append(r.events.Eats, EatEvent{Eater: a.Name, Eaten: b.Name})
	r.events.Deaths = append(r.events.Deaths, DeathEvent{Victim: b.Name, Killer: a.Name})
}

// usePortal triggers the first portal e touches. Entities above MaxPortalMass
// are skipped and the portal stays.
func (r *Resolver) usePortal(e *Entity) bool {
	if e.R > r.cfg.MaxPortalMass {
		return false
	}
	for _, p := range r.world.PortalsByID() {
		if !Overlaps(e.X, e.Y, p.X, p.Y, e.R+r.cfg.PortalRadius) {
			continue
		}
		switch p.Kind {
		case PortalMassBonus:
			e.R += r.cfg.PortalMassBonus
		case PortalTeleport:
			x, y := r.factory.RandomPosition()
			r.world.MoveTo(e, x, y)
		}
		r.world.RemovePortal(p.ID)
		r.events.PortalsUsed = append(r.events.PortalsUsed, p.Kind)
		return true
	}
	return false
}

// enforceSizeCap kicks an entity that grew past MaxMass. The entity is marked
// dead so nothing else touches it this tick.
func (r *Resolver) enforceSizeCap(e *Entity) bool {
	if e.Dead || e.R <= r.cfg.MaxMass {
		return false
	}
	e.Dead = true
	r.events.Kicks = append(r.events.Kicks, KickEvent{Name: e.Name, Kind: e.Kind, R: e.R})
	return true
}

// TakeEvents returns the accumulated events and resets the buffer
func (r *Resolver) TakeEvents() Events {
	ev := r.events
	r.events = Events{}
	return ev
}
