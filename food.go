package main

// Food is a pellet that grows whoever swallows it.
type Food struct {
	ID string
	X  float64
	Y  float64
}

// ToDTO converts Food to a serializable DTO.
func (f *Food) ToDTO() FoodDTO {
	return FoodDTO{
		ID: f.ID,
		X:  roundTo1(f.X),
		Y:  roundTo1(f.Y),
	}
}

// DistanceTo returns distance from food to a point
func (f *Food) DistanceTo(x, y float64) float64 {
	return Distance(f.X, f.Y, x, y)
}

// PortalKind is the effect a portal has on the entity that uses it.
type PortalKind uint8

const (
	PortalMassBonus PortalKind = iota
	PortalTeleport
)

// portalKinds is the closed set spawnPortal draws from.
var portalKinds = []PortalKind{PortalMassBonus, PortalTeleport}

func (k PortalKind) String() string {
	switch k {
	case PortalMassBonus:
		return "mass"
	case PortalTeleport:
		return "teleport"
	default:
		return "unknown"
	}
}

// Portal is a single-use map object.
type Portal struct {
	ID   string
	X    float64
	Y    float64
	Kind PortalKind
}

// ToDTO converts the portal to its wire form.
func (p *Portal) ToDTO(radius float64) PortalDTO {
	return PortalDTO{
		ID:   p.ID,
		X:    roundTo1(p.X),
		Y:    roundTo1(p.Y),
		R:    radius,
		Kind: p.Kind.String(),
	}
}
