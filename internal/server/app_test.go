package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func TestOpenStore_Memory(t *testing.T) {
	c := defaults()
	c.Backend = config.BackendMemory

	s, closer, err := OpenStore(context.Background(), c)
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	_, ok := s.(*keystore.MemoryStore)
	assert.True(t, ok)
}

func TestOpenStore_SQLite(t *testing.T) {
	ctx := context.Background()
	c := defaults()
	c.SQLiteDSN = filepath.Join(t.TempDir(), "keys.db")

	s, closer, err := OpenStore(ctx, c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })

	_, err = s.Get(ctx, keystore.ProfilePath("a"))
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, s.Put(ctx, keystore.ProfilePath("a"), []byte("v")))
	got, err := s.Get(ctx, keystore.ProfilePath("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	c := defaults()
	c.Backend = "redis"

	_, _, err := OpenStore(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_BadLogLevel(t *testing.T) {
	c := defaults()
	c.Backend = config.BackendMemory
	c.LogLevel = "loud"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	c := defaults()
	c.Backend = config.BackendMemory
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.LogLevel = "error"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
