package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the server. DefaultConfig returns the
// canonical balance values; LoadConfig layers .env, BLOB_* env vars and flags on top.
type Config struct {
	// Server
	Addr          string
	StaticDir     string
	WebSocketPath string
	Codec         string // "json" or "msgpack"

	// World
	MapWidth  float64
	MapHeight float64

	// Game loop
	TickRate int // ticks per second

	// Player
	PlayerStartRadius float64
	MinRadius         float64
	MaxStep           float64 // max displacement per move intent before speed scaling
	MaxNameLen        int

	// Food
	MaxFood  int
	FoodGain float64

	// Predation
	EatMargin     float64
	PredationGain float64 // fraction of the victim's radius added to the eater

	// Portals
	MaxPortals         int
	MinPortalsPerType  int
	PortalRadius       float64
	PortalInterval     time.Duration
	PortalRespawnDelay time.Duration
	PortalMassBonus    float64
	MaxPortalMass      float64

	// Mass decay
	DecayThreshold float64
	DecayInterval  time.Duration
	DecayMinLoss   float64
	DecayMaxLoss   float64

	// Safety valve
	MaxMass float64

	// Bots
	BotCount          int
	BotSpeed          float64
	BotMinRadius      float64
	BotMaxRadius      float64
	BotInterval       time.Duration
	BotRespawnDelay   time.Duration
	BotFleeRadius     float64
	BotChaseRadius    float64
	BotFoodSeekRadius float64

	// Connections
	MaxConnections  int
	ConnsPerSecond  int // per remote IP
	SendBuffer      int
	LeaderboardSize int
	ChatMaxLen      int
	ChatLogSize     int
	GridCellSize    float64
	InboxSize       int
	MaxMessageSize  int64
	WriteWait       time.Duration
	PongWait        time.Duration
}

// DefaultConfig returns the canonical value set.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8000",
		WebSocketPath: "/ws",
		Codec:         CodecJSON,

		MapWidth:  3000,
		MapHeight: 3000,

		TickRate: 20,

		PlayerStartRadius: 10,
		MinRadius:         10,
		MaxStep:           10,
		MaxNameLen:        15,

		MaxFood:  150,
		FoodGain: 1,

		EatMargin:     5,
		PredationGain: 0.6,

		MaxPortals:         6,
		MinPortalsPerType:  1,
		PortalRadius:       20,
		PortalInterval:     500 * time.Millisecond,
		PortalRespawnDelay: 500 * time.Millisecond,
		PortalMassBonus:    10,
		MaxPortalMass:      150,

		DecayThreshold: 100,
		DecayInterval:  time.Second,
		DecayMinLoss:   1,
		DecayMaxLoss:   5,

		MaxMass: 500,

		BotCount:          10,
		BotSpeed:          5,
		BotMinRadius:      15,
		BotMaxRadius:      30,
		BotInterval:       100 * time.Millisecond,
		BotRespawnDelay:   9 * time.Second,
		BotFleeRadius:     250,
		BotChaseRadius:    300,
		BotFoodSeekRadius: 500,

		MaxConnections:  100,
		ConnsPerSecond:  5,
		SendBuffer:      64,
		LeaderboardSize: 10,
		ChatMaxLen:      120,
		ChatLogSize:     50,
		GridCellSize:    100,
		InboxSize:       1024,
		MaxMessageSize:  4096,
		WriteWait:       10 * time.Second,
		PongWait:        60 * time.Second,
	}
}

// TickInterval is the fixed period of one tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Validate rejects configurations the simulation cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.MapWidth <= 0 || c.MapHeight <= 0 {
		errs = append(errs, fmt.Errorf("map size must be positive, got %vx%v", c.MapWidth, c.MapHeight))
	}
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick rate must be positive, got %d", c.TickRate))
	}
	if c.MinRadius <= 0 || c.PlayerStartRadius < c.MinRadius {
		errs = append(errs, fmt.Errorf("player start radius %v below min radius %v", c.PlayerStartRadius, c.MinRadius))
	}
	if c.BotMinRadius < c.MinRadius || c.BotMaxRadius < c.BotMinRadius {
		errs = append(errs, fmt.Errorf("bot radius range [%v,%v] invalid", c.BotMinRadius, c.BotMaxRadius))
	}
	if c.MaxPortals < 0 || c.MinPortalsPerType < 0 || 2*c.MinPortalsPerType > c.MaxPortals {
		errs = append(errs, fmt.Errorf("portal counts min=%d/type max=%d invalid", c.MinPortalsPerType, c.MaxPortals))
	}
	if c.DecayMaxLoss < c.DecayMinLoss || c.DecayMinLoss < 0 {
		errs = append(errs, fmt.Errorf("decay loss range [%v,%v] invalid", c.DecayMinLoss, c.DecayMaxLoss))
	}
	if c.MaxMass <= c.DecayThreshold {
		errs = append(errs, fmt.Errorf("max mass %v must exceed decay threshold %v", c.MaxMass, c.DecayThreshold))
	}
	if c.MaxNameLen <= 0 {
		errs = append(errs, fmt.Errorf("max name length must be positive, got %d", c.MaxNameLen))
	}
	if c.Codec != CodecJSON && c.Codec != CodecMsgpack {
		errs = append(errs, fmt.Errorf("unknown codec %q", c.Codec))
	}
	if c.SendBuffer <= 0 || c.InboxSize <= 0 {
		errs = append(errs, errors.New("send buffer and inbox size must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, an optional .env file, BLOB_*
// environment variables and finally command-line flags.
func LoadConfig(args []string) (Config, error) {
	cfg := DefaultConfig()

	// .env is optional; only a malformed file is an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("blobarena", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory of static client files (empty disables)")
	fs.StringVar(&cfg.Codec, "codec", cfg.Codec, "outbound codec: json or msgpack")
	fs.Float64Var(&cfg.MapWidth, "map-width", cfg.MapWidth, "map width")
	fs.Float64Var(&cfg.MapHeight, "map-height", cfg.MapHeight, "map height")
	fs.IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "ticks per second")
	fs.IntVar(&cfg.MaxFood, "max-food", cfg.MaxFood, "food pool size")
	fs.IntVar(&cfg.MaxPortals, "max-portals", cfg.MaxPortals, "maximum live portals")
	fs.IntVar(&cfg.MinPortalsPerType, "min-portals", cfg.MinPortalsPerType, "minimum live portals of each type")
	fs.Float64Var(&cfg.DecayThreshold, "decay-threshold", cfg.DecayThreshold, "radius at which mass decay starts")
	fs.DurationVar(&cfg.DecayInterval, "decay-interval", cfg.DecayInterval, "time between decay steps")
	fs.Float64Var(&cfg.DecayMinLoss, "decay-min", cfg.DecayMinLoss, "decay loss at the threshold")
	fs.Float64Var(&cfg.DecayMaxLoss, "decay-max", cfg.DecayMaxLoss, "decay loss at max mass")
	fs.Float64Var(&cfg.PortalMassBonus, "portal-bonus", cfg.PortalMassBonus, "radius added by a mass portal")
	fs.Float64Var(&cfg.MaxPortalMass, "portal-max-mass", cfg.MaxPortalMass, "largest radius allowed to use portals")
	fs.Float64Var(&cfg.MaxMass, "max-mass", cfg.MaxMass, "radius at which a player is kicked")
	fs.IntVar(&cfg.BotCount, "bots", cfg.BotCount, "number of bots")
	fs.Float64Var(&cfg.BotSpeed, "bot-speed", cfg.BotSpeed, "bot step length before mass scaling")
	fs.DurationVar(&cfg.BotRespawnDelay, "bot-respawn", cfg.BotRespawnDelay, "delay before a dead bot respawns")
	fs.IntVar(&cfg.MaxConnections, "max-conns", cfg.MaxConnections, "maximum concurrent connections")
	fs.IntVar(&cfg.ConnsPerSecond, "conn-rate", cfg.ConnsPerSecond, "new connections per second per IP")
	fs.IntVar(&cfg.MaxNameLen, "max-name", cfg.MaxNameLen, "maximum display name length")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// applyEnv overrides fields from BLOB_* variables. lookup is os.LookupEnv in
// production and a map in tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("BLOB_ADDR", &c.Addr)
	str("BLOB_STATIC_DIR", &c.StaticDir)
	str("BLOB_CODEC", &c.Codec)
	num("BLOB_MAP_WIDTH", &c.MapWidth)
	num("BLOB_MAP_HEIGHT", &c.MapHeight)
	integer("BLOB_TICK_RATE", &c.TickRate)
	integer("BLOB_MAX_FOOD", &c.MaxFood)
	integer("BLOB_MAX_PORTALS", &c.MaxPortals)
	integer("BLOB_MIN_PORTALS", &c.MinPortalsPerType)
	num("BLOB_DECAY_THRESHOLD", &c.DecayThreshold)
	dur("BLOB_DECAY_INTERVAL", &c.DecayInterval)
	num("BLOB_DECAY_MIN", &c.DecayMinLoss)
	num("BLOB_DECAY_MAX", &c.DecayMaxLoss)
	num("BLOB_PORTAL_BONUS", &c.PortalMassBonus)
	num("BLOB_PORTAL_MAX_MASS", &c.MaxPortalMass)
	num("BLOB_MAX_MASS", &c.MaxMass)
	integer("BLOB_BOTS", &c.BotCount)
	num("BLOB_BOT_SPEED", &c.BotSpeed)
	dur("BLOB_BOT_RESPAWN", &c.BotRespawnDelay)
	integer("BLOB_MAX_CONNS", &c.MaxConnections)
	integer("BLOB_CONN_RATE", &c.ConnsPerSecond)
	integer("BLOB_MAX_NAME", &c.MaxNameLen)
	return errors.Join(errs...)
}

// PlayerColors is the palette used when a join carries no color and for bots.
var PlayerColors = [][3]int{
	{231, 76, 60}, {52, 152, 219}, {46, 204, 113}, {243, 156, 18}, {155, 89, 182},
	{26, 188, 156}, {230, 126, 34}, {233, 30, 99}, {0, 188, 212}, {139, 195, 74},
	{255, 87, 34}, {96, 125, 139}, {121, 85, 72}, {103, 58, 183}, {3, 169, 244},
	{76, 175, 80}, {255, 235, 59}, {255, 152, 0}, {244, 67, 54}, {156, 39, 176},
}
