package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	KeyStoreServiceName = "pairjournal.v1.KeyStore"
	IdentityServiceName = "pairjournal.v1.Identity"

	MethodGet    = "/" + KeyStoreServiceName + "/Get"
	MethodPut    = "/" + KeyStoreServiceName + "/Put"
	MethodDelete = "/" + KeyStoreServiceName + "/Delete"

	MethodRegister       = "/" + IdentityServiceName + "/Register"
	MethodSignIn         = "/" + IdentityServiceName + "/SignIn"
	MethodChangePassword = "/" + IdentityServiceName + "/ChangePassword"
)

// PublicMethods may be called without an access token.
var PublicMethods = map[string]bool{
	MethodRegister: true,
	MethodSignIn:   true,
}

type KeyStoreServer interface {
	Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Put(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error)
	Delete(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error)
}

type IdentityServer interface {
	Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SignIn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error)
}

// unary builds a method handler the way protoc-gen-go-grpc would for a
// request of type T.
func unary[T any, PT interface {
	*T
	proto.Message
}](fullMethod string, call func(srv any, ctx context.Context, in PT) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PT(new(T))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(PT))
		})
	}
}

var KeyStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: KeyStoreServiceName,
	HandlerType: (*KeyStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Get",
			Handler: unary[wrapperspb.StringValue](MethodGet, func(srv any, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return srv.(KeyStoreServer).Get(ctx, in)
			}),
		},
		{
			MethodName: "Put",
			Handler: unary[structpb.Struct](MethodPut, func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.(KeyStoreServer).Put(ctx, in)
			}),
		},
		{
			MethodName: "Delete",
			Handler: unary[wrapperspb.StringValue](MethodDelete, func(srv any, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return srv.(KeyStoreServer).Delete(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pairjournal/v1/keystore",
}

var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: IdentityServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Register",
			Handler: unary[structpb.Struct](MethodRegister, func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.(IdentityServer).Register(ctx, in)
			}),
		},
		{
			MethodName: "SignIn",
			Handler: unary[structpb.Struct](MethodSignIn, func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.(IdentityServer).SignIn(ctx, in)
			}),
		},
		{
			MethodName: "ChangePassword",
			Handler: unary[structpb.Struct](MethodChangePassword, func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
				return srv.(IdentityServer).ChangePassword(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pairjournal/v1/identity",
}

func RegisterKeyStoreServer(s grpc.ServiceRegistrar, srv KeyStoreServer) {
	s.RegisterService(&KeyStoreServiceDesc, srv)
}

func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(&IdentityServiceDesc, srv)
}
