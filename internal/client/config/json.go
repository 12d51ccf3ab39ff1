package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pairjournal/internal/flagx"
	"github.com/dmitrijs2005/pairjournal/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so they can be strings like "72h" or integer nanoseconds.
// Absent fields keep their current value.
type JsonConfig struct {
	Mode               *string         `json:"mode"`
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	LocalDSN           *string         `json:"local_dsn"`
	PendingTTL         *timex.Duration `json:"pending_ttl"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	LogLevel           *string         `json:"log_level"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Without either flag it does nothing. Read or decode errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Mode != nil {
		cfg.Mode = *jc.Mode
	}
	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.LocalDSN != nil {
		cfg.LocalDSN = *jc.LocalDSN
	}
	if jc.PendingTTL != nil {
		cfg.PendingTTL = jc.PendingTTL.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
}
