package main

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
)

// testConfig returns the default balance with no bots, food or portals so
// tests control every object on the map.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BotCount = 0
	cfg.MaxFood = 0
	cfg.MaxPortals = 0
	cfg.MinPortalsPerType = 0
	return cfg
}

func newTestWorld(t *testing.T, cfg *Config) (*World, *EntityFactory, *Resolver) {
	t.Helper()
	w := NewWorld(cfg)
	f := NewEntityFactory(cfg, rand.New(rand.NewSource(1)))
	return w, f, NewResolver(cfg, w, f)
}

// placeEntity adds an entity at a fixed position and radius
func placeEntity(t *testing.T, w *World, name string, kind Kind, x, y, r float64) *Entity {
	t.Helper()
	e := &Entity{ID: "id-" + name, Name: name, Kind: kind, X: x, Y: y, R: r}
	if err := w.AddEntity(e); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return e
}

func TestWorldAddPlayerNameConflict(t *testing.T) {
	cfg := testConfig()
	w, f, _ := newTestWorld(t, &cfg)

	if _, err := w.AddPlayer("alice", [3]int{1, 2, 3}, f); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := w.AddPlayer("alice", [3]int{1, 2, 3}, f); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("second join: got %v, want ErrNameTaken", err)
	}

	placeEntity(t, w, "Viper", KindBot, 10, 10, 20)
	if _, err := w.AddPlayer("Viper", [3]int{}, f); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("bot name: got %v, want ErrNameTaken", err)
	}
}

func TestWorldAddPlayerValidation(t *testing.T) {
	cfg := testConfig()
	w, f, _ := newTestWorld(t, &cfg)

	tests := []struct {
		name string
		want error
	}{
		{"", ErrEmptyName},
		{"this-name-is-way-too-long", ErrNameTooLong},
		{"bad name", ErrNameCharset},
		{"ok_name-1", nil},
	}
	for _, tt := range tests {
		_, err := w.AddPlayer(tt.name, [3]int{}, f)
		if !errors.Is(err, tt.want) {
			t.Errorf("AddPlayer(%q) = %v, want %v", tt.name, err, tt.want)
		}
		if tt.want != nil && !errors.Is(err, ErrValidation) {
			t.Errorf("AddPlayer(%q) error %v does not wrap ErrValidation", tt.name, err)
		}
	}
}

func TestWorldPlayerSpawnsInsideMap(t *testing.T) {
	cfg := testConfig()
	w, f, _ := newTestWorld(t, &cfg)

	e, err := w.AddPlayer("bob", [3]int{}, f)
	if err != nil {
		t.Fatal(err)
	}
	if e.R != cfg.PlayerStartRadius {
		t.Errorf("start radius = %v, want %v", e.R, cfg.PlayerStartRadius)
	}
	if e.X < 0 || e.X > cfg.MapWidth || e.Y < 0 || e.Y > cfg.MapHeight {
		t.Errorf("spawned outside map at (%v,%v)", e.X, e.Y)
	}
}

func TestWorldApplyMovementClamps(t *testing.T) {
	cfg := testConfig()
	w, _, _ := newTestWorld(t, &cfg)
	placeEntity(t, w, "edge", KindPlayer, 5, cfg.MapHeight-5, 10)

	x, y, ok := w.ApplyMovement("edge", -50, 50)
	if !ok {
		t.Fatal("expected movement to apply")
	}
	if x != 0 || y != cfg.MapHeight {
		t.Errorf("got (%v,%v), want (0,%v)", x, y, cfg.MapHeight)
	}

	if _, _, ok := w.ApplyMovement("ghost", 1, 1); ok {
		t.Error("movement of unknown entity should be ignored")
	}
	w.Entities["edge"].Dead = true
	if _, _, ok := w.ApplyMovement("edge", 1, 1); ok {
		t.Error("movement of dead entity should be ignored")
	}
}

func TestWorldSnapshotExcludesDead(t *testing.T) {
	cfg := testConfig()
	w, _, _ := newTestWorld(t, &cfg)
	placeEntity(t, w, "b", KindPlayer, 1, 1, 10)
	placeEntity(t, w, "a", KindPlayer, 2, 2, 10)
	placeEntity(t, w, "Moby", KindBot, 3, 3, 20)
	dead := placeEntity(t, w, "c", KindPlayer, 4, 4, 10)
	dead.Dead = true
	w.AddFood(&Food{ID: "f1", X: 10, Y: 10})
	w.AddPortal(&Portal{ID: "p1", X: 20, Y: 20, Kind: PortalTeleport})

	snap := w.Snapshot()
	if len(snap.Players) != 2 || snap.Players[0].Name != "a" || snap.Players[1].Name != "b" {
		t.Errorf("players = %+v, want a,b", snap.Players)
	}
	if len(snap.Bots) != 1 || snap.Bots[0].Name != "Moby" {
		t.Errorf("bots = %+v, want Moby", snap.Bots)
	}
	if len(snap.Food) != 1 || len(snap.Portals) != 1 {
		t.Errorf("food=%d portals=%d, want 1,1", len(snap.Food), len(snap.Portals))
	}

	// The snapshot is a copy
	snap.Players[0].X = 999
	if w.Entities["a"].X == 999 {
		t.Error("snapshot shares entity memory with the world")
	}
}

func TestWorldSnapshotConcurrentWithWriter(t *testing.T) {
	cfg := testConfig()
	w, f, _ := newTestWorld(t, &cfg)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			w.mu.Lock()
			e, err := w.AddPlayer("p", [3]int{}, f)
			if err == nil {
				w.AddFood(f.SpawnFood())
				w.RemoveEntity(e.Name)
			}
			w.mu.Unlock()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := w.Snapshot()
			for _, p := range snap.Players {
				if p.Name != "p" {
					t.Errorf("unexpected player %q", p.Name)
				}
			}
		}
	}()
	wg.Wait()
}

func TestWorldLeaderboard(t *testing.T) {
	cfg := testConfig()
	w, _, _ := newTestWorld(t, &cfg)
	placeEntity(t, w, "small", KindPlayer, 0, 0, 10)
	placeEntity(t, w, "big", KindPlayer, 0, 0, 50)
	placeEntity(t, w, "Gulp", KindBot, 0, 0, 30)

	lb := w.Leaderboard(2)
	if len(lb) != 2 {
		t.Fatalf("len = %d, want 2", len(lb))
	}
	if lb[0].Name != "big" || lb[1].Name != "Gulp" || !lb[1].Bot {
		t.Errorf("leaderboard = %+v", lb)
	}
}

func TestWorldFoodKeepsGridInSync(t *testing.T) {
	cfg := testConfig()
	w, _, _ := newTestWorld(t, &cfg)
	w.AddFood(&Food{ID: "f1", X: 150, Y: 150})
	w.AddFood(&Food{ID: "f2", X: 155, Y: 150})

	if !w.RemoveFood("f1") {
		t.Fatal("expected f1 removed")
	}
	if w.RemoveFood("f1") {
		t.Error("second removal should report false")
	}
	if got := w.Grid.Len(); got != 1 {
		t.Errorf("grid len = %d, want 1", got)
	}
}
