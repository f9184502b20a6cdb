package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"
)

// botNames is the pool bots draw their display names from
var botNames = []string{
	"Viper", "Cobra", "Mamba", "Python", "Anaconda",
	"Sidewinder", "Gobbler", "Chomper", "Nibbler", "Muncher",
	"Glutton", "Jelly", "Puddle", "Sponge", "Orbit",
	"Blobzilla", "Moby", "Gulp", "Bubbles", "Dumpling",
}

// moveIntent is a raw displacement request for one entity. Player move
// messages and bot decisions are both queued as moveIntents. Entity is the
// blob that held Name when the intent was queued; the move is dropped if
// Name has changed hands since.
type moveIntent struct {
	Name   string
	Entity *Entity
	DX, DY float64
}

// Bot tracks per-bot AI state
type Bot struct {
	Name        string
	headingX    float64 // unit vector used while wandering
	headingY    float64
	wanderTicks int    // decisions left before picking a new wander heading
	respawnTask TaskID // pending respawn, 0 when alive
}

// BotController decides a movement vector for every bot on its own cadence.
type BotController struct {
	cfg       *Config
	world     *World
	factory   *EntityFactory
	scheduler *Scheduler
	rng       *rand.Rand
	bots      map[string]*Bot // bot name -> Bot, alive or waiting to respawn
	lastRun   time.Time
}

// NewBotController creates a BotController bound to the given world
func NewBotController(cfg *Config, world *World, factory *EntityFactory, scheduler *Scheduler, rng *rand.Rand) *BotController {
	return &BotController{
		cfg:       cfg,
		world:     world,
		factory:   factory,
		scheduler: scheduler,
		rng:       rng,
		bots:      make(map[string]*Bot),
	}
}

// SpawnInitial creates BotCount bots (caller must hold world.mu.Lock)
func (bc *BotController) SpawnInitial() {
	for len(bc.bots) < bc.cfg.BotCount {
		if _, err := bc.spawn(bc.nextFreeName()); err != nil {
			log.Printf("bot spawn failed: %v", err)
			return
		}
	}
}

// spawn creates a bot entity under name and registers it
func (bc *BotController) spawn(name string) (*Entity, error) {
	e := bc.factory.SpawnBot(name)
	if err := bc.world.AddEntity(e); err != nil {
		return nil, fmt.Errorf("spawn bot %s: %w", name, err)
	}
	bot := &Bot{Name: name}
	bc.pickWanderHeading(bot)
	bc.bots[name] = bot
	return e, nil
}

// nextFreeName returns the first pool name held by no entity and no bot
// slot, falling back to a numbered name when the pool is exhausted.
func (bc *BotController) nextFreeName() string {
	for _, n := range botNames {
		if _, used := bc.bots[n]; used {
			continue
		}
		if !bc.world.HasName(n) {
			return n
		}
	}
	for i := 1; ; i++ {
		n := fmt.Sprintf("Bot-%d", i)
		if _, used := bc.bots[n]; !used && !bc.world.HasName(n) {
			return n
		}
	}
}

// Due reports whether the bot interval has elapsed since the last decision round
func (bc *BotController) Due(now time.Time) bool {
	return now.Sub(bc.lastRun) >= bc.cfg.BotInterval
}

// Decide returns one move intent per live bot (caller must hold world.mu.Lock).
// The intents are resolved by the same code path as player moves.
func (bc *BotController) Decide(now time.Time) []moveIntent {
	bc.lastRun = now
	names := make([]string, 0, len(bc.bots))
	for name := range bc.bots {
		names = append(names, name)
	}
	sort.Strings(names)

	intents := make([]moveIntent, 0, len(names))
	for _, name := range names {
		bot := bc.bots[name]
		e, ok := bc.world.Entity(name)
		if !ok || !e.IsBot() {
			continue
		}
		ux, uy := bc.decide(bot, e)
		intents = append(intents, moveIntent{Name: name, Entity: e, DX: ux * bc.cfg.BotSpeed, DY: uy * bc.cfg.BotSpeed})
	}
	return intents
}

// decide applies the priority rules and returns a unit vector:
// flee a bigger neighbor, else chase a smaller one, else seek food, else wander.
func (bc *BotController) decide(bot *Bot, e *Entity) (float64, float64) {
	var threat, prey *Entity
	threatDist, preyDist := math.MaxFloat64, math.MaxFloat64
	for _, other := range bc.world.LiveEntities() {
		if other == e {
			continue
		}
		d := e.DistanceTo(other.X, other.Y)
		switch {
		case other.R > e.R+bc.cfg.EatMargin && d < bc.cfg.BotFleeRadius && d < threatDist:
			threat, threatDist = other, d
		case e.R > other.R+bc.cfg.EatMargin && d < bc.cfg.BotChaseRadius && d < preyDist:
			prey, preyDist = other, d
		}
	}

	if threat != nil {
		ux, uy := Normalize(e.X-threat.X, e.Y-threat.Y)
		if ux == 0 && uy == 0 {
			return bc.wander(bot)
		}
		return ux, uy
	}
	if prey != nil {
		ux, uy := Normalize(prey.X-e.X, prey.Y-e.Y)
		if ux == 0 && uy == 0 {
			return bc.wander(bot)
		}
		return ux, uy
	}
	if f := bc.nearestFood(e); f != nil {
		ux, uy := Normalize(f.X-e.X, f.Y-e.Y)
		if ux != 0 || uy != 0 {
			return ux, uy
		}
	}
	return bc.wander(bot)
}

// nearestFood searches the grid around e, falling back to a full scan
func (bc *BotController) nearestFood(e *Entity) *Food {
	if id, ok := bc.world.Grid.NearestFood(e.X, e.Y, bc.cfg.BotFoodSeekRadius); ok {
		return bc.world.Food[id]
	}
	var best *Food
	bestDist := math.MaxFloat64
	for _, f := range bc.world.Food {
		d := f.DistanceTo(e.X, e.Y)
		if d < bestDist || (d == bestDist && best != nil && f.ID < best.ID) {
			best, bestDist = f, d
		}
	}
	return best
}

// wander keeps the current heading, re-picking it every few decisions
func (bc *BotController) wander(bot *Bot) (float64, float64) {
	if bot.wanderTicks <= 0 {
		bc.pickWanderHeading(bot)
	}
	bot.wanderTicks--
	return bot.headingX, bot.headingY
}

func (bc *BotController) pickWanderHeading(bot *Bot) {
	a := bc.rng.Float64() * 2 * math.Pi
	bot.headingX, bot.headingY = math.Cos(a), math.Sin(a)
	bot.wanderTicks = 20 + bc.rng.Intn(31)
}

// HandleDeath schedules the respawn of a bot that was eaten or kicked and has
// already been removed from the world.
func (bc *BotController) HandleDeath(now time.Time, name string) {
	bot, ok := bc.bots[name]
	if !ok || bot.respawnTask != 0 {
		return
	}
	bot.respawnTask = bc.scheduler.After(now, bc.cfg.BotRespawnDelay, func(time.Time) {
		bc.respawn(name)
	})
}

// respawn re-creates a dead bot under its old name, or the next free pool
// name if a player took it meanwhile. Runs on the loop goroutine.
func (bc *BotController) respawn(oldName string) {
	delete(bc.bots, oldName)
	name := oldName
	if bc.world.HasName(name) {
		name = bc.nextFreeName()
	}
	if _, err := bc.spawn(name); err != nil {
		log.Printf("bot respawn failed: %v", err)
		return
	}
	log.Printf("bot respawned: %s (was %s)", name, oldName)
}
