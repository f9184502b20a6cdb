package main

import (
	"math/rand"

	"github.com/google/uuid"
)

// EntityFactory creates entities and map objects at random positions inside
// the map bounds. The random source is injected so tests can seed it.
type EntityFactory struct {
	cfg *Config
	rng *rand.Rand
}

// NewEntityFactory creates a factory bound to cfg and rng
func NewEntityFactory(cfg *Config, rng *rand.Rand) *EntityFactory {
	return &EntityFactory{cfg: cfg, rng: rng}
}

// RandomPosition returns a uniformly random point inside the map
func (f *EntityFactory) RandomPosition() (float64, float64) {
	return f.rng.Float64() * f.cfg.MapWidth, f.rng.Float64() * f.cfg.MapHeight
}

// RandomColor picks a color from the palette
func (f *EntityFactory) RandomColor() [3]int {
	return PlayerColors[f.rng.Intn(len(PlayerColors))]
}

// SpawnFood creates a pellet at a random position
func (f *EntityFactory) SpawnFood() *Food {
	x, y := f.RandomPosition()
	return &Food{ID: uuid.NewString(), X: x, Y: y}
}

// SpawnPortal creates a portal of a uniformly chosen kind
func (f *EntityFactory) SpawnPortal() *Portal {
	return f.SpawnPortalOfKind(portalKinds[f.rng.Intn(len(portalKinds))])
}

// SpawnPortalOfKind creates a portal of the given kind at a random position
func (f *EntityFactory) SpawnPortalOfKind(kind PortalKind) *Portal {
	x, y := f.RandomPosition()
	return &Portal{ID: uuid.NewString(), X: x, Y: y, Kind: kind}
}

// SpawnPlayer creates a player blob with the fixed starting radius
func (f *EntityFactory) SpawnPlayer(name string, color [3]int) *Entity {
	x, y := f.RandomPosition()
	return &Entity{
		ID:    uuid.NewString(),
		Name:  name,
		Kind:  KindPlayer,
		X:     x,
		Y:     y,
		R:     f.cfg.PlayerStartRadius,
		Color: color,
	}
}

// SpawnBot creates a bot blob with a radius drawn from the bot range
func (f *EntityFactory) SpawnBot(name string) *Entity {
	x, y := f.RandomPosition()
	r := f.cfg.BotMinRadius + f.rng.Float64()*(f.cfg.BotMaxRadius-f.cfg.BotMinRadius)
	return &Entity{
		ID:    uuid.NewString(),
		Name:  name,
		Kind:  KindBot,
		X:     x,
		Y:     y,
		R:     r,
		Color: f.RandomColor(),
	}
}
