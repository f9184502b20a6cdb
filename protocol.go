package main

// Protocol is JSON over WebSocket text frames, mirrored field-for-field in
// msgpack binary frames when the server runs with -codec msgpack.
//
// Message type constants (value of "type" field):
//   Client → Server:
//     "join"  {"type":"join","name":"bob","color":[255,0,0]}
//     "move"  {"type":"move","dx":5,"dy":0}   raw displacement, scaled by the server
//     "chat"  {"type":"chat","message":"hi"}
//   Server → Client:
//     "welcome"  {"type":"welcome","id":"uuid","name":"bob","color":[..],"w":3000,"h":3000,"tickRate":20,"chat":[..]}
//     "rejected" {"type":"rejected","reason":"name already in use"}   join refused, connection stays open
//     "update"   {"type":"update","tick":1,"players":{"bob":{..}},"foods":[..],"portals":[..],"leaderboard":[..]}
//     "death"    {"type":"death","killer":"alice"}                    victim only
//     "eat"      {"type":"eat","eater":"alice","eaten":"bob"}          everyone
//     "chat"     {"type":"chat","name":"bob","message":"hi","at":1700000000000}
//     "error"    {"type":"error","message":".."}                      followed by close

// Message type identifiers
const (
	MsgJoin     = "join"
	MsgMove     = "move"
	MsgChat     = "chat"
	MsgWelcome  = "welcome"
	MsgRejected = "rejected"
	MsgUpdate   = "update"
	MsgDeath    = "death"
	MsgEat      = "eat"
	MsgError    = "error"
)

// ClientMessage is the base incoming message.
type ClientMessage struct {
	Type    string  `json:"type"`
	Name    string  `json:"name,omitempty"`
	Color   []int   `json:"color,omitempty"`
	DX      float64 `json:"dx,omitempty"`
	DY      float64 `json:"dy,omitempty"`
	Message string  `json:"message,omitempty"`
}

// EntityDTO is a player or bot in an update.
type EntityDTO struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
	Color [3]int  `json:"color"`
	Bot   bool    `json:"bot,omitempty"`
}

// FoodDTO is a pellet in an update.
type FoodDTO struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// PortalDTO is a portal in an update. kind is "mass" or "teleport".
type PortalDTO struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	R    float64 `json:"r"`
	Kind string  `json:"kind"`
}

// LeaderboardEntry is a single leaderboard row.
type LeaderboardEntry struct {
	Name string  `json:"name"`
	R    float64 `json:"r"`
	Bot  bool    `json:"bot,omitempty"`
}

// StateMsg is the per-tick snapshot sent to every session.
type StateMsg struct {
	Type        string               `json:"type"`
	Tick        uint64               `json:"tick"`
	Players     map[string]EntityDTO `json:"players"`
	Foods       []FoodDTO            `json:"foods"`
	Portals     []PortalDTO          `json:"portals"`
	Leaderboard []LeaderboardEntry   `json:"leaderboard,omitempty"`
}

// WelcomeMsg confirms a join.
type WelcomeMsg struct {
	Type      string      `json:"type"`
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Color     [3]int      `json:"color"`
	MapWidth  float64     `json:"w"`
	MapHeight float64     `json:"h"`
	TickRate  int         `json:"tickRate"`
	Chat      []ChatEntry `json:"chat,omitempty"`
}

// RejectedMsg refuses a join; the client may retry.
type RejectedMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// DeathMsg is sent to a player when their blob is eaten.
type DeathMsg struct {
	Type   string `json:"type"`
	Killer string `json:"killer"`
}

// EatMsg is broadcast for every predation.
type EatMsg struct {
	Type  string `json:"type"`
	Eater string `json:"eater"`
	Eaten string `json:"eaten"`
}

// ErrorMsg precedes a forced disconnect.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChatMsg relays one chat line to every session.
type ChatMsg struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Message string `json:"message"`
	At      int64  `json:"at"` // unix millis
}

// BuildState converts a world snapshot into the update message.
// Bots and players share the players map, keyed by display name.
func BuildState(tick uint64, snap Snapshot, portalRadius float64, leaderboard []LeaderboardEntry) StateMsg {
	msg := StateMsg{
		Type:        MsgUpdate,
		Tick:        tick,
		Players:     make(map[string]EntityDTO, len(snap.Players)+len(snap.Bots)),
		Foods:       make([]FoodDTO, 0, len(snap.Food)),
		Portals:     make([]PortalDTO, 0, len(snap.Portals)),
		Leaderboard: leaderboard,
	}
	for i := range snap.Players {
		msg.Players[snap.Players[i].Name] = snap.Players[i].ToDTO()
	}
	for i := range snap.Bots {
		msg.Players[snap.Bots[i].Name] = snap.Bots[i].ToDTO()
	}
	for i := range snap.Food {
		msg.Foods = append(msg.Foods, snap.Food[i].ToDTO())
	}
	for i := range snap.Portals {
		msg.Portals = append(msg.Portals, snap.Portals[i].ToDTO(portalRadius))
	}
	return msg
}
