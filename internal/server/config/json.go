package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pairjournal/internal/flagx"
	"github.com/dmitrijs2005/pairjournal/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Durations use timex.Duration, so both "15m" and integer nanoseconds
// parse. Pointer fields distinguish "absent" from "empty": absent fields keep
// the value from defaults and environment.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	Backend                     *string         `json:"backend"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SQLiteDSN                   *string         `json:"sqlite_dsn"`
	CouchURL                    *string         `json:"couch_url"`
	CouchDB                     *string         `json:"couch_db"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	S3Prefix                    *string         `json:"s3_prefix"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag. Without the flag nothing is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.Backend, c.Backend)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SQLiteDSN, c.SQLiteDSN)
	overlay(&config.CouchURL, c.CouchURL)
	overlay(&config.CouchDB, c.CouchDB)
	overlay(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlay(&config.S3Prefix, c.S3Prefix)
	overlay(&config.LogLevel, c.LogLevel)
}

func overlay[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
