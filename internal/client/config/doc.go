// Package config loads runtime configuration for the PairJournal CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-m string     store mode: remote, local or memory
//	-a string     address:port of the server gRPC endpoint
//	-d string     SQLite file for local mode
//	-ttl duration invitation lifetime
//	-l string     log level
//
// # JSON schema
//
//	{
//	  "mode": "remote",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "local_dsn": "pairjournal.db",
//	  "pending_ttl": "168h",
//	  "request_timeout": "30s",
//	  "log_level": "warn"
//	}
//
// This package does not read environment variables; the server config does.
package config
