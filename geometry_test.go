package main

import (
	"math"
	"testing"
)

func TestOverlapsIsStrict(t *testing.T) {
	if !Overlaps(100, 100, 102, 100, 10) {
		t.Error("point at distance 2 should be inside radius 10")
	}
	if Overlaps(0, 0, 10, 0, 10) {
		t.Error("point exactly on the edge should not overlap")
	}
}

func TestClampMagnitude(t *testing.T) {
	tests := []struct {
		x, y, max    float64
		wantX, wantY float64
	}{
		{3, 4, 10, 3, 4},
		{30, 40, 10, 6, 8},
		{0, 0, 10, 0, 0},
		{-100, 0, 10, -10, 0},
	}
	for _, tt := range tests {
		x, y := ClampMagnitude(tt.x, tt.y, tt.max)
		if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wantY) > 1e-9 {
			t.Errorf("ClampMagnitude(%v,%v,%v) = (%v,%v), want (%v,%v)", tt.x, tt.y, tt.max, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestNormalize(t *testing.T) {
	x, y := Normalize(0, -5)
	if x != 0 || y != -1 {
		t.Errorf("got (%v,%v), want (0,-1)", x, y)
	}
	if x, y := Normalize(0, 0); x != 0 || y != 0 {
		t.Errorf("zero vector normalized to (%v,%v)", x, y)
	}
}

func TestClampAndRound(t *testing.T) {
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp low = %v", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp high = %v", got)
	}
	if got := roundTo1(12.36); got != 12.4 {
		t.Errorf("roundTo1 = %v", got)
	}
}
