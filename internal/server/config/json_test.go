package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigFile(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"pairjournal-server", "-c", path}
}

func TestParseJson_CouchBackend(t *testing.T) {
	withConfigFile(t, `{
		"endpoint_addr_grpc": "0.0.0.0:7000",
		"endpoint_addr_http": "",
		"backend": "couch",
		"couch_url": "http://journal:pw@couch:5984",
		"couch_db": "journal_keys",
		"access_token_validity_duration": "90s",
		"log_level": "debug"
	}`)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "0.0.0.0:7000", cfg.EndpointAddrGRPC)
	assert.Empty(t, cfg.EndpointAddrHTTP, "an explicit empty value disables the health endpoint")
	assert.Equal(t, BackendCouch, cfg.Backend)
	assert.Equal(t, "http://journal:pw@couch:5984", cfg.CouchURL)
	assert.Equal(t, "journal_keys", cfg.CouchDB)
	assert.Equal(t, 90*time.Second, cfg.AccessTokenValidityDuration)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestParseJson_S3Settings(t *testing.T) {
	withConfigFile(t, `{
		"backend": "s3",
		"s3_root_user": "minio",
		"s3_root_password": "minio-pw",
		"s3_bucket": "journal",
		"s3_region": "eu-west-1",
		"s3_base_endpoint": "http://minio:9000",
		"s3_prefix": "kv/",
		"access_token_validity_duration": 60000000000
	}`)

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, BackendS3, cfg.Backend)
	assert.Equal(t, "minio", cfg.S3RootUser)
	assert.Equal(t, "minio-pw", cfg.S3RootPassword)
	assert.Equal(t, "journal", cfg.S3Bucket)
	assert.Equal(t, "eu-west-1", cfg.S3Region)
	assert.Equal(t, "http://minio:9000", cfg.S3BaseEndpoint)
	assert.Equal(t, "kv/", cfg.S3Prefix)
	assert.Equal(t, time.Minute, cfg.AccessTokenValidityDuration)
}

func TestParseJson_AbsentFieldsKeepValues(t *testing.T) {
	withConfigFile(t, `{"secret_key": "from-file-secret"}`)

	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.SQLiteDSN = "from-env.db"
	parseJson(cfg)

	assert.Equal(t, "from-file-secret", cfg.SecretKey)
	assert.Equal(t, "from-env.db", cfg.SQLiteDSN)
	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
	assert.Equal(t, BackendSQLite, cfg.Backend)
}

func TestParseJson_NoFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"pairjournal-server"}

	cfg := &Config{SecretKey: "untouched"}
	parseJson(cfg)
	assert.Equal(t, &Config{SecretKey: "untouched"}, cfg)
}

func TestParseJson_Panics(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		withConfigFile(t, `{ "backend": `)
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file", func(t *testing.T) {
		origArgs := os.Args
		t.Cleanup(func() { os.Args = origArgs })
		os.Args = []string{"pairjournal-server", "-config", filepath.Join(t.TempDir(), "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
