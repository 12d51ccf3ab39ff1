package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/pairjournal/internal/flagx"
)

var settingFlags = []string{"-m", "-a", "-d", "-ttl", "-l"}

// FlagNames lists every flag LoadConfig consumes, including the config file.
func FlagNames() []string {
	return append(append([]string{}, settingFlags...), flagx.ConfigFileFlags...)
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-m string     store mode: remote, local or memory
//	-a string     address and port of the server
//	-d string     SQLite file for local mode
//	-ttl duration invitation lifetime, e.g. 72h
//	-l string     log level
//
// Only these flags are parsed (flagx.FilterArgs), so cobra can own the rest.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], settingFlags)

	fs := flag.NewFlagSet("journal", flag.ContinueOnError)

	fs.StringVar(&cfg.Mode, "m", cfg.Mode, "store mode (remote, local, memory)")
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "server gRPC address")
	fs.StringVar(&cfg.LocalDSN, "d", cfg.LocalDSN, "sqlite file for local mode")
	fs.DurationVar(&cfg.PendingTTL, "ttl", cfg.PendingTTL, "invitation lifetime")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
