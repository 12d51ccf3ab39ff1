package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/flagx"
)

var serverFlags = []string{"-a", "-w", "-k", "-d", "-q", "-cu", "-cn", "-s", "-t", "-u", "-p", "-b", "-g", "-e", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-w string   HTTP health bind address (empty disables it)
//	-k string   key store backend: memory, sqlite, postgres, couch, s3
//	-d string   PostgreSQL DSN
//	-q string   SQLite file
//	-cu string  CouchDB URL
//	-cn string  CouchDB database
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//
// Duration flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("pairjournal-server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC listen address")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "health endpoint listen address, empty to disable")
	fs.StringVar(&config.Backend, "k", config.Backend, "key store backend (memory, sqlite, postgres, couch, s3)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "postgres DSN")
	fs.StringVar(&config.SQLiteDSN, "q", config.SQLiteDSN, "sqlite file")
	fs.StringVar(&config.CouchURL, "cu", config.CouchURL, "couchdb URL")
	fs.StringVar(&config.CouchDB, "cn", config.CouchDB, "couchdb database")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT signing secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token lifetime in minutes")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only an explicit -t overrides; sub-minute values from env or JSON survive
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		}
	})
}
