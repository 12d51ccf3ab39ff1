package keystore

import "context"

// Scoped wraps a Store and enforces Authorize for a single account.
// The server applies it per request; in-process deployments use it to keep
// the same permission boundary as a remote store.
type Scoped struct {
	inner     Store
	accountID string
}

func NewScoped(inner Store, accountID string) *Scoped {
	return &Scoped{inner: inner, accountID: accountID}
}

func (s *Scoped) AccountID() string { return s.accountID }

func (s *Scoped) Get(ctx context.Context, path string) ([]byte, error) {
	if err := Authorize(s.accountID, OpGet, path); err != nil {
		return nil, err
	}
	return s.inner.Get(ctx, path)
}

func (s *Scoped) Put(ctx context.Context, path string, value []byte) error {
	if err := Authorize(s.accountID, OpPut, path); err != nil {
		return err
	}
	return s.inner.Put(ctx, path, value)
}

func (s *Scoped) Delete(ctx context.Context, path string) error {
	if err := Authorize(s.accountID, OpDelete, path); err != nil {
		return err
	}
	return s.inner.Delete(ctx, path)
}
