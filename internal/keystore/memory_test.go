package keystore

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "accounts/a/profile")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, s.Put(ctx, "accounts/a/profile", []byte("v1")))
	got, err := s.Get(ctx, "accounts/a/profile")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Put(ctx, "accounts/a/profile", []byte("v2")))
	got, err = s.Get(ctx, "accounts/a/profile")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Delete(ctx, "accounts/a/profile"))
	require.NoError(t, s.Delete(ctx, "accounts/a/profile"))
	_, err = s.Get(ctx, "accounts/a/profile")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.Equal(t, 0, s.Len())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v := []byte("secret")
	require.NoError(t, s.Put(ctx, "k/1", v))
	v[0] = 'X'

	got, err := s.Get(ctx, "k/1")
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), got)

	got[0] = 'Y'
	again, err := s.Get(ctx, "k/1")
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), again)
	require.Equal(t, []byte("secret"), s.Snapshot()["k/1"])
}

func TestMemoryStore_RejectsBadPaths(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, p := range []string{"", "/a", "a//b", "a/../b", "a/."} {
		require.ErrorIs(t, s.Put(ctx, p, []byte("x")), common.ErrInvalidInput, p)
		_, err := s.Get(ctx, p)
		require.ErrorIs(t, err, common.ErrInvalidInput, p)
		require.ErrorIs(t, s.Delete(ctx, p), common.ErrInvalidInput, p)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Put(ctx, "shared/key", []byte("v"))
			_, _ = s.Get(ctx, "shared/key")
		}()
	}
	wg.Wait()
	require.Equal(t, 1, s.Len())
}
