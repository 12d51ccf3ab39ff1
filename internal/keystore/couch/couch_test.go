package couch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/stretchr/testify/require"
)

type statusError int

func (e statusError) Error() string   { return "couch: " + http.StatusText(int(e)) }
func (e statusError) HTTPStatus() int { return int(e) }

// fakeCollection mimics CouchDB revision checks.
type fakeCollection struct {
	mu        sync.Mutex
	docs      map[string]document
	revs      int
	conflicts int // Save calls that report 409 before succeeding
	saveErr   error
}

func newFake() *fakeCollection {
	return &fakeCollection{docs: map[string]document{}}
}

func (f *fakeCollection) Load(ctx context.Context, id string) (*document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, statusError(http.StatusNotFound)
	}
	return &d, nil
}

func (f *fakeCollection) Save(ctx context.Context, doc *document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.conflicts > 0 {
		f.conflicts--
		return statusError(http.StatusConflict)
	}
	if cur, ok := f.docs[doc.ID]; ok && cur.Rev != doc.Rev {
		return statusError(http.StatusConflict)
	}
	if _, ok := f.docs[doc.ID]; !ok && doc.Rev != "" {
		return statusError(http.StatusConflict)
	}
	f.revs++
	d := *doc
	d.Rev = strconv.Itoa(f.revs)
	f.docs[doc.ID] = d
	return nil
}

func (f *fakeCollection) Remove(ctx context.Context, id, rev string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.docs[id]
	if !ok {
		return statusError(http.StatusNotFound)
	}
	if cur.Rev != rev {
		return statusError(http.StatusConflict)
	}
	delete(f.docs, id)
	return nil
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	s := newStore(f)

	_, err := s.Get(ctx, "accounts/a/profile")
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, s.Put(ctx, "accounts/a/profile", []byte("v1")))
	require.NoError(t, s.Put(ctx, "accounts/a/profile", []byte("v2")))

	got, err := s.Get(ctx, "accounts/a/profile")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
	require.Contains(t, f.docs, "kv:accounts/a/profile")

	require.NoError(t, s.Delete(ctx, "accounts/a/profile"))
	require.NoError(t, s.Delete(ctx, "accounts/a/profile"))
	_, err = s.Get(ctx, "accounts/a/profile")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_EmptyValue(t *testing.T) {
	ctx := context.Background()
	s := newStore(newFake())

	require.NoError(t, s.Put(ctx, "k/empty", nil))
	got, err := s.Get(ctx, "k/empty")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestStore_RetriesConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	f.conflicts = 2
	s := newStore(f)

	require.NoError(t, s.Put(ctx, "k/1", []byte("v")))
	got, err := s.Get(ctx, "k/1")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}

func TestStore_GivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	f.conflicts = maxRetries
	s := newStore(f)

	err := s.Put(ctx, "k/1", []byte("v"))
	require.ErrorIs(t, err, errConflict)
}

func TestStore_SaveError(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	f.saveErr = statusError(http.StatusInternalServerError)
	s := newStore(f)

	err := s.Put(ctx, "k/1", []byte("v"))
	require.Error(t, err)
	var se statusError
	require.True(t, errors.As(err, &se))
	require.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_RejectsBadPaths(t *testing.T) {
	ctx := context.Background()
	s := newStore(newFake())

	for _, p := range []string{"", "a//b", "a/../b"} {
		require.ErrorIs(t, s.Put(ctx, p, []byte("x")), common.ErrInvalidInput, p)
		_, err := s.Get(ctx, p)
		require.ErrorIs(t, err, common.ErrInvalidInput, p)
		require.ErrorIs(t, s.Delete(ctx, p), common.ErrInvalidInput, p)
	}
}

func TestStore_ConcurrentPuts(t *testing.T) {
	ctx := context.Background()
	s := newStore(newFake())

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Put(ctx, "shared/key", []byte(fmt.Sprint(i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
