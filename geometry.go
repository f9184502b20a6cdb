package main

import "math"

// Distance returns the euclidean distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// Overlaps reports whether (x2, y2) lies strictly inside the circle of radius r
// centered at (x1, y1).
func Overlaps(x1, y1, x2, y2, r float64) bool {
	return Distance(x1, y1, x2, y2) < r
}

// Normalize returns the unit vector of (x, y), or (0, 0) for a zero vector
func Normalize(x, y float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l == 0 {
		return 0, 0
	}
	return x / l, y / l
}

// ClampMagnitude shortens (x, y) to at most max length
func ClampMagnitude(x, y, max float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l <= max || l == 0 {
		return x, y
	}
	s := max / l
	return x * s, y * s
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// roundTo1 rounds a float64 to 1 decimal place to save protocol bytes.
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
