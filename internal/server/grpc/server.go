// Package grpc serves the PairJournal key store and identity services.
//
// Every key-store call runs as the account named by the request's access
// token and goes through keystore.Scoped, so the server enforces the same
// access policy the in-process client does.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/pairjournal/internal/identity"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/logging"
	"github.com/dmitrijs2005/pairjournal/internal/rpc"
	"google.golang.org/grpc"
)

// Identity is the identity provider as the server needs it.
type Identity interface {
	identity.Provider
	VerifyToken(token string) (string, error)
}

type GRPCServer struct {
	address  string
	store    keystore.Store
	identity Identity
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, store keystore.Store, id Identity) (*GRPCServer, error) {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		store:    store,
		identity: id,
	}, nil
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	rpc.RegisterKeyStoreServer(srv, s)
	rpc.RegisterIdentityServer(srv, s)

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-done:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
