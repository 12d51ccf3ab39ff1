package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/cryptox"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/models"
	"github.com/stretchr/testify/require"
)

func wrapped(t *testing.T) cryptox.WrappedKey {
	t.Helper()
	w, err := cryptox.WrapKey(cryptox.GenerateKey(), cryptox.GenerateKey())
	require.NoError(t, err)
	return w
}

func TestProfile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(keystore.NewMemoryStore())

	_, err := repo.GetProfile(ctx, "a")
	require.ErrorIs(t, err, common.ErrorNotFound)

	p := &models.Profile{ID: "a", Email: "a@example.com", WrappedPersonalKey: wrapped(t), CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.PutProfile(ctx, p))

	got, err := repo.GetProfile(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, p.Email, got.Email)
	require.Equal(t, p.WrappedPersonalKey, got.WrappedPersonalKey)
}

func TestPartnerLink_AbsentIsNil(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(keystore.NewMemoryStore())

	l, err := repo.GetPartnerLink(ctx, "a")
	require.NoError(t, err)
	require.Nil(t, l)

	w := wrapped(t)
	require.NoError(t, repo.PutPartnerLink(ctx, "a", &models.PartnerLink{PartnerAccountID: "b", WrappedSharedKey: &w}))
	l, err = repo.GetPartnerLink(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "b", l.PartnerAccountID)
	require.False(t, l.HalfFormed())

	require.NoError(t, repo.RestorePartnerLink(ctx, "a", nil))
	l, err = repo.GetPartnerLink(ctx, "a")
	require.NoError(t, err)
	require.Nil(t, l)

	require.NoError(t, repo.RestorePartnerLink(ctx, "a", &models.PartnerLink{PartnerAccountID: "c"}))
	l, err = repo.GetPartnerLink(ctx, "a")
	require.NoError(t, err)
	require.True(t, l.HalfFormed())
}

func TestPending_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(keystore.NewMemoryStore())

	p, err := repo.GetPending(ctx, "b")
	require.NoError(t, err)
	require.Nil(t, p)

	raw := cryptox.GenerateKey()
	require.NoError(t, repo.PutPending(ctx, "b", &models.PendingSharedKey{RawSharedKey: raw, InviterAccountID: "a"}))

	p, err = repo.GetPending(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, raw, p.RawSharedKey)
	require.Equal(t, "a", p.InviterAccountID)

	require.NoError(t, repo.DeletePending(ctx, "b"))
	p, err = repo.GetPending(ctx, "b")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestEmailIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(keystore.NewMemoryStore())

	_, err := repo.LookupEmail(ctx, "a@example.com")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.PutEmail(ctx, "A@Example.com", "a"))
	id, err := repo.LookupEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "a", id)
}

type brokenStore struct{ keystore.Store }

func (brokenStore) Get(context.Context, string) ([]byte, error) { return []byte("{not json"), nil }
func (brokenStore) Put(context.Context, string, []byte) error   { return errors.New("disk full") }

func TestRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(brokenStore{keystore.NewMemoryStore()})

	_, err := repo.GetProfile(ctx, "a")
	require.ErrorContains(t, err, "decode accounts/a/profile")

	err = repo.PutPartnerLink(ctx, "a", &models.PartnerLink{PartnerAccountID: "b"})
	require.ErrorContains(t, err, "disk full")
}
