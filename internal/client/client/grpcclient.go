package client

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/identity"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCClient talks to a PairJournal server. It is a keystore.Store and an
// identity.Provider; key-store calls run as the account that signed in last.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	cc          grpc.ClientConnInterface

	mu          sync.Mutex
	accessToken string
	// remembered so an expired token can be renewed transparently
	email, password string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if rpc.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	err := invoker(withAccessToken(ctx, s.token()), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	s.mu.Lock()
	email, password := s.email, s.password
	s.mu.Unlock()
	if email == "" {
		return err
	}

	out := &structpb.Struct{}
	if rerr := invoker(ctx, rpc.MethodSignIn, rpc.NewCredentials(email, password), out, cc, opts...); rerr != nil {
		return err
	}
	token, rerr := rpc.StringField(out, rpc.FieldAccessToken)
	if rerr != nil {
		return err
	}
	s.setToken(token)

	// token renewed, retrying with the new one
	return invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
}

func (s *GRPCClient) setToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

// NewGRPCClient connects to endpointURL. Extra dial options are appended to
// the defaults (insecure transport, token interceptor).
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.init(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) init(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.cc = conn
	return nil
}

func (s *GRPCClient) Close() error {
	s.SignOut()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// SignOut forgets the access token and the remembered credentials.
func (s *GRPCClient) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.email, s.password = "", "", ""
}

// StoreFor returns the key store as seen by p. The server applies the
// access policy; the local Scoped check only fails fast.
func (s *GRPCClient) StoreFor(p *identity.Principal) keystore.Store {
	return keystore.NewScoped(s, p.AccountID)
}

func (s *GRPCClient) Get(ctx context.Context, path string) ([]byte, error) {
	out := &wrapperspb.BytesValue{}
	if err := s.cc.Invoke(ctx, rpc.MethodGet, wrapperspb.String(path), out); err != nil {
		return nil, rpc.FromStatus(err)
	}
	if out.GetValue() == nil {
		return []byte{}, nil
	}
	return out.GetValue(), nil
}

func (s *GRPCClient) Put(ctx context.Context, path string, value []byte) error {
	if err := s.cc.Invoke(ctx, rpc.MethodPut, rpc.NewPutRequest(path, value), &emptypb.Empty{}); err != nil {
		return rpc.FromStatus(err)
	}
	return nil
}

func (s *GRPCClient) Delete(ctx context.Context, path string) error {
	if err := s.cc.Invoke(ctx, rpc.MethodDelete, wrapperspb.String(path), &emptypb.Empty{}); err != nil {
		return rpc.FromStatus(err)
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, password string) (string, error) {
	out := &structpb.Struct{}
	if err := s.cc.Invoke(ctx, rpc.MethodRegister, rpc.NewCredentials(email, password), out); err != nil {
		return "", rpc.FromStatus(err)
	}
	return rpc.StringField(out, rpc.FieldAccountID)
}

func (s *GRPCClient) SignIn(ctx context.Context, email, password string) (*identity.Principal, error) {
	out := &structpb.Struct{}
	if err := s.cc.Invoke(ctx, rpc.MethodSignIn, rpc.NewCredentials(email, password), out); err != nil {
		return nil, rpc.FromStatus(err)
	}

	p := &identity.Principal{}
	var err error
	if p.AccountID, err = rpc.StringField(out, rpc.FieldAccountID); err != nil {
		return nil, err
	}
	if p.Email, err = rpc.StringField(out, rpc.FieldEmail); err != nil {
		return nil, err
	}
	if p.AccessToken, err = rpc.StringField(out, rpc.FieldAccessToken); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.accessToken, s.email, s.password = p.AccessToken, email, password
	s.mu.Unlock()
	return p, nil
}

// ChangePassword acts on the signed-in account. The server takes the account
// from the access token, so accountID is not sent.
func (s *GRPCClient) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if err := s.cc.Invoke(ctx, rpc.MethodChangePassword, rpc.NewPasswordChange(oldPassword, newPassword), &emptypb.Empty{}); err != nil {
		return rpc.FromStatus(err)
	}

	s.mu.Lock()
	if s.password == oldPassword {
		s.password = newPassword
	}
	s.mu.Unlock()
	return nil
}
