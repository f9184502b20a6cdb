package main

import "math"

// cellKey uniquely identifies a grid cell
type cellKey struct {
	cx, cy int
}

// gridEntry holds a reference to a food pellet in a cell
type gridEntry struct {
	foodID string
	x, y   float64
}

// SpatialGrid is a hash grid for fast food proximity queries. It is updated
// incrementally as food spawns and gets eaten.
type SpatialGrid struct {
	cells    map[cellKey][]gridEntry
	cellSize float64
}

// NewSpatialGrid creates an empty spatial grid
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	return &SpatialGrid{
		cells:    make(map[cellKey][]gridEntry),
		cellSize: cellSize,
	}
}

func (g *SpatialGrid) keyFor(x, y float64) cellKey {
	return cellKey{
		cx: int(math.Floor(x / g.cellSize)),
		cy: int(math.Floor(y / g.cellSize)),
	}
}

// InsertFood adds a food item to the grid
func (g *SpatialGrid) InsertFood(f *Food) {
	k := g.keyFor(f.X, f.Y)
	g.cells[k] = append(g.cells[k], gridEntry{foodID: f.ID, x: f.X, y: f.Y})
}

// RemoveFood drops a food item from the cell it was inserted into
func (g *SpatialGrid) RemoveFood(f *Food) {
	k := g.keyFor(f.X, f.Y)
	entries := g.cells[k]
	for i, e := range entries {
		if e.foodID == f.ID {
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			break
		}
	}
	if len(entries) == 0 {
		delete(g.cells, k)
		return
	}
	g.cells[k] = entries
}

// NearbyFood returns IDs of food strictly closer than radius to (x,y)
func (g *SpatialGrid) NearbyFood(x, y, radius float64) []string {
	results := []string{}
	minCX := int(math.Floor((x - radius) / g.cellSize))
	maxCX := int(math.Floor((x + radius) / g.cellSize))
	minCY := int(math.Floor((y - radius) / g.cellSize))
	maxCY := int(math.Floor((y + radius) / g.cellSize))

	r2 := radius * radius
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for _, e := range g.cells[cellKey{cx, cy}] {
				dx := e.x - x
				dy := e.y - y
				d2 := dx*dx + dy*dy
				if d2 < r2 {
					results = append(results, e.foodID)
				}
			}
		}
	}
	return results
}

// NearestFood returns the closest food ID within radius of (x,y)
func (g *SpatialGrid) NearestFood(x, y, radius float64) (string, bool) {
	best := ""
	bestD2 := math.MaxFloat64
	minCX := int(math.Floor((x - radius) / g.cellSize))
	maxCX := int(math.Floor((x + radius) / g.cellSize))
	minCY := int(math.Floor((y - radius) / g.cellSize))
	maxCY := int(math.Floor((y + radius) / g.cellSize))

	r2 := radius * radius
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for _, e := range g.cells[cellKey{cx, cy}] {
				dx := e.x - x
				dy := e.y - y
				d2 := dx*dx + dy*dy
				if d2 <= r2 && (d2 < bestD2 || (d2 == bestD2 && e.foodID < best)) {
					best = e.foodID
					bestD2 = d2
				}
			}
		}
	}
	return best, best != ""
}

// Len returns the number of indexed food items
func (g *SpatialGrid) Len() int {
	n := 0
	for _, entries := range g.cells {
		n += len(entries)
	}
	return n
}
