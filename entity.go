package main

import (
	"regexp"
	"time"
)

// Kind tags an Entity as a human-controlled player or an autonomous bot.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindBot
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindBot:
		return "bot"
	default:
		return "unknown"
	}
}

// Entity is a blob on the map. Players and bots share every field and go
// through the same movement and interaction code.
type Entity struct {
	ID    string
	Name  string
	Kind  Kind
	X     float64
	Y     float64
	R     float64 // radius, the mass scalar
	Color [3]int
	Dead  bool

	lastDecay time.Time
}

// IsBot reports whether the entity is driven by the BotController
func (e *Entity) IsBot() bool {
	return e.Kind == KindBot
}

// Alive reports whether the entity still takes part in interactions
func (e *Entity) Alive() bool {
	return !e.Dead
}

// DistanceTo returns distance from the entity's center to a point
func (e *Entity) DistanceTo(x, y float64) float64 {
	return Distance(e.X, e.Y, x, y)
}

// ToDTO converts the entity to its wire form.
func (e *Entity) ToDTO() EntityDTO {
	return EntityDTO{
		ID:    e.ID,
		Name:  e.Name,
		X:     roundTo1(e.X),
		Y:     roundTo1(e.Y),
		R:     roundTo1(e.R),
		Color: e.Color,
		Bot:   e.IsBot(),
	}
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName checks a display name against the length and charset rules.
func ValidateName(name string, maxLen int) error {
	switch {
	case name == "":
		return ErrEmptyName
	case len(name) > maxLen:
		return ErrNameTooLong
	case !namePattern.MatchString(name):
		return ErrNameCharset
	}
	return nil
}

// ValidateColor checks an RGB triple. A nil color is allowed and means
// "pick one from the palette".
func ValidateColor(c []int) ([3]int, error) {
	var out [3]int
	if c == nil {
		return out, nil
	}
	if len(c) != 3 {
		return out, ErrInvalidColor
	}
	for i, v := range c {
		if v < 0 || v > 255 {
			return out, ErrInvalidColor
		}
		out[i] = v
	}
	return out, nil
}
