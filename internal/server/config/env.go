package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "PAIRJOURNAL_"

// parseEnv overlays Config with PAIRJOURNAL_* variables. A .env file in the
// working directory is loaded first if present; real environment variables
// win over it. Malformed durations are ignored.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&cfg.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&cfg.Backend, "BACKEND")
	setString(&cfg.DatabaseDSN, "DATABASE_DSN")
	setString(&cfg.SQLiteDSN, "SQLITE_DSN")
	setString(&cfg.CouchURL, "COUCH_URL")
	setString(&cfg.CouchDB, "COUCH_DB")
	setString(&cfg.SecretKey, "SECRET_KEY")
	setDuration(&cfg.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	setString(&cfg.S3RootUser, "S3_ROOT_USER")
	setString(&cfg.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&cfg.S3Bucket, "S3_BUCKET")
	setString(&cfg.S3Region, "S3_REGION")
	setString(&cfg.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&cfg.S3Prefix, "S3_PREFIX")
	setString(&cfg.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
