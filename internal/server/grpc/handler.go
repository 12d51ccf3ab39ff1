package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) scoped(ctx context.Context) (*keystore.Scoped, error) {
	id, ok := accountIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return keystore.NewScoped(s.store, id), nil
}

// fail logs err as its severity deserves and converts it to a status.
func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
	case errors.Is(err, common.ErrForbidden), errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrAlreadyExists):
		s.logger.Warn(ctx, "request rejected", "op", op, "error", err)
	default:
		s.logger.Error(ctx, "request failed", "op", op, "error", err)
	}
	return rpc.ToStatus(err)
}

func (s *GRPCServer) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	store, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	v, err := store.Get(ctx, in.GetValue())
	if err != nil {
		return nil, s.fail(ctx, "get", err)
	}
	return wrapperspb.Bytes(v), nil
}

func (s *GRPCServer) Put(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	store, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	path, value, err := rpc.ParsePutRequest(in)
	if err != nil {
		return nil, s.fail(ctx, "put", err)
	}
	if err := store.Put(ctx, path, value); err != nil {
		return nil, s.fail(ctx, "put", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	store, err := s.scoped(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Delete(ctx, in.GetValue()); err != nil {
		return nil, s.fail(ctx, "delete", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	email, password, err := rpc.ParseCredentials(in)
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}
	id, err := s.identity.Register(ctx, email, password)
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}
	s.logger.Info(ctx, "Registered", "account_id", id)
	return rpc.NewStruct(map[string]string{rpc.FieldAccountID: id}), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	email, password, err := rpc.ParseCredentials(in)
	if err != nil {
		return nil, s.fail(ctx, "sign_in", err)
	}
	p, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, s.fail(ctx, "sign_in", err)
	}
	return rpc.NewStruct(map[string]string{
		rpc.FieldAccountID:   p.AccountID,
		rpc.FieldEmail:       p.Email,
		rpc.FieldAccessToken: p.AccessToken,
	}), nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	id, ok := accountIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	oldPassword, newPassword, err := rpc.ParsePasswordChange(in)
	if err != nil {
		return nil, s.fail(ctx, "change_password", err)
	}
	if err := s.identity.ChangePassword(ctx, id, oldPassword, newPassword); err != nil {
		return nil, s.fail(ctx, "change_password", err)
	}
	return &emptypb.Empty{}, nil
}
