package config

import "time"

// Store modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
	ModeMemory = "memory"
)

// Config holds runtime settings for the PairJournal CLI.
//
// Fields:
//   - Mode: where accounts and keys live (remote server, local SQLite file, memory).
//   - ServerEndpointAddr: host:port of the server's gRPC endpoint (remote mode).
//   - LocalDSN: SQLite file used in local mode.
//   - PendingTTL: how long an unaccepted invitation stays valid.
//   - RequestTimeout: upper bound for a single command.
//   - LogLevel: slog level name for the stderr logger.
type Config struct {
	Mode               string
	ServerEndpointAddr string
	LocalDSN           string
	PendingTTL         time.Duration
	RequestTimeout     time.Duration
	LogLevel           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Mode = ModeRemote
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.LocalDSN = "pairjournal.db"
	c.PendingTTL = 7 * 24 * time.Hour
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
