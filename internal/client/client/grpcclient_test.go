package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/identity"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/logging"
	"github.com/dmitrijs2005/pairjournal/internal/rpc"
	servergrpc "github.com/dmitrijs2005/pairjournal/internal/server/grpc"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

/*************
 * accessTokenInterceptor tests
 *************/

func tokenOf(t *testing.T, ctx context.Context) string {
	t.Helper()
	md, _ := metadata.FromOutgoingContext(ctx)
	toks := md.Get(common.AccessTokenHeaderName)
	require.Len(t, toks, 1)
	return toks[0]
}

func TestInterceptor_InjectsToken(t *testing.T) {
	c := &GRPCClient{accessToken: "A1"}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		require.Equal(t, "A1", tokenOf(t, ctx))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), rpc.MethodGet, nil, nil, nil, invoker))
}

func TestInterceptor_PublicMethodsCarryNoToken(t *testing.T) {
	c := &GRPCClient{accessToken: "A1"}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return nil
	}
	require.NoError(t, c.accessTokenInterceptor(context.Background(), rpc.MethodSignIn, nil, nil, nil, invoker))
}

func TestInterceptor_RenewsExpiredTokenAndRetries(t *testing.T) {
	c := &GRPCClient{accessToken: "A1", email: "alice@example.com", password: "pw"}

	var calls []string
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls = append(calls, method)
		switch {
		case method == rpc.MethodSignIn:
			email, password, err := rpc.ParseCredentials(req.(*structpb.Struct))
			require.NoError(t, err)
			require.Equal(t, "alice@example.com", email)
			require.Equal(t, "pw", password)
			reply.(*structpb.Struct).Fields = rpc.NewStruct(map[string]string{rpc.FieldAccessToken: "A2"}).Fields
			return nil
		case len(calls) == 1:
			require.Equal(t, "A1", tokenOf(t, ctx))
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		default:
			require.Equal(t, "A2", tokenOf(t, ctx))
			return nil
		}
	}

	err := c.accessTokenInterceptor(context.Background(), rpc.MethodPut, nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, []string{rpc.MethodPut, rpc.MethodSignIn, rpc.MethodPut}, calls)
	require.Equal(t, "A2", c.token())
}

func TestInterceptor_NoRenewWithoutCredentials(t *testing.T) {
	c := &GRPCClient{accessToken: "A1"}

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), rpc.MethodGet, nil, nil, nil, invoker)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestInterceptor_IgnoresOtherErrors(t *testing.T) {
	c := &GRPCClient{accessToken: "X", email: "a@b.c", password: "p"}

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		return status.Error(codes.Unauthenticated, "some other reason")
	}
	err := c.accessTokenInterceptor(context.Background(), rpc.MethodGet, nil, nil, nil, invoker)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

/*************
 * fake connection tests
 *************/

type fakeConn struct {
	err error
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	return f.err
}

func (f *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, status.Error(codes.Unimplemented, "no streams")
}

func TestErrorsAreMapped(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		code codes.Code
		want error
	}{
		{codes.NotFound, common.ErrorNotFound},
		{codes.PermissionDenied, common.ErrForbidden},
		{codes.Unauthenticated, common.ErrUnauthorized},
		{codes.AlreadyExists, common.ErrAlreadyExists},
		{codes.Unavailable, common.ErrUnavailable},
		{codes.InvalidArgument, common.ErrInvalidInput},
	}
	for _, tc := range cases {
		c := &GRPCClient{cc: &fakeConn{err: status.Error(tc.code, "x")}}

		_, err := c.Get(ctx, "k/1")
		require.ErrorIs(t, err, tc.want, tc.code.String())
		require.ErrorIs(t, c.Put(ctx, "k/1", nil), tc.want, tc.code.String())
		require.ErrorIs(t, c.Delete(ctx, "k/1"), tc.want, tc.code.String())
		_, err = c.Register(ctx, "a@b.c", "p")
		require.ErrorIs(t, err, tc.want, tc.code.String())
		_, err = c.SignIn(ctx, "a@b.c", "p")
		require.ErrorIs(t, err, tc.want, tc.code.String())
	}
}

func TestSignIn_MalformedResponse(t *testing.T) {
	c := &GRPCClient{cc: &fakeConn{}}
	_, err := c.SignIn(context.Background(), "a@b.c", "p")
	require.ErrorIs(t, err, common.ErrInvalidInput)
	require.Empty(t, c.token())
}

/*************
 * end to end over bufconn
 *************/

func startServer(t *testing.T) *GRPCClient {
	t.Helper()

	store := keystore.NewMemoryStore()
	provider := identity.NewLocalProvider(store, []byte("test-secret"), time.Hour, nopLogger{}, identity.WithBcryptCost(bcrypt.MinCost))
	srv, err := servergrpc.NewGRPCServer("bufnet", nopLogger{}, store, provider)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, lis)
	}()

	c, err := NewGRPCClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		<-done
	})
	return c
}

func TestGRPCClient_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c := startServer(t)

	// key store calls need a token
	_, err := c.Get(ctx, keystore.ProfilePath("nobody"))
	require.ErrorIs(t, err, common.ErrUnauthorized)

	id, err := c.Register(ctx, "Alice@Example.com", "pw-1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = c.Register(ctx, "alice@example.com", "other")
	require.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = c.SignIn(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	p, err := c.SignIn(ctx, "alice@example.com", "pw-1")
	require.NoError(t, err)
	require.Equal(t, id, p.AccountID)
	require.Equal(t, "alice@example.com", p.Email)
	require.NotEmpty(t, p.AccessToken)

	store := c.StoreFor(p)
	_, err = store.Get(ctx, keystore.ProfilePath(id))
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, store.Put(ctx, keystore.ProfilePath(id), []byte(`{"id":"x"}`)))
	got, err := store.Get(ctx, keystore.ProfilePath(id))
	require.NoError(t, err)
	require.Equal(t, []byte(`{"id":"x"}`), got)

	require.NoError(t, store.Put(ctx, keystore.PartnerLinkPath(id), []byte{}))
	got, err = store.Get(ctx, keystore.PartnerLinkPath(id))
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, store.Delete(ctx, keystore.PartnerLinkPath(id)))
	_, err = store.Get(ctx, keystore.PartnerLinkPath(id))
	require.ErrorIs(t, err, common.ErrorNotFound)

	// the server enforces the policy even without the local Scoped check
	_, err = c.Get(ctx, keystore.CredentialPath(id))
	require.ErrorIs(t, err, common.ErrForbidden)
	require.ErrorIs(t, c.Put(ctx, keystore.ProfilePath("someone-else"), []byte("x")), common.ErrForbidden)

	require.NoError(t, c.ChangePassword(ctx, id, "pw-1", "pw-2"))
	_, err = c.SignIn(ctx, "alice@example.com", "pw-1")
	require.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = c.SignIn(ctx, "alice@example.com", "pw-2")
	require.NoError(t, err)

	c.SignOut()
	_, err = c.Get(ctx, keystore.ProfilePath(id))
	require.ErrorIs(t, err, common.ErrUnauthorized)
}
