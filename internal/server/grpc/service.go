package grpc

import (
	"context"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	SessionServiceName = "shopauth.session.v1.SessionService"
	IntrospectMethod   = "/" + SessionServiceName + "/Introspect"
)

// SessionServiceServer is implemented by GRPCServer. The messages are
// well-known protobuf types, so no generated code is needed.
type SessionServiceServer interface {
	Introspect(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Introspect",
			Handler:    introspectHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shopauth/session/v1/session.proto",
}

func introspectHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).Introspect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: IntrospectMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionServiceServer).Introspect(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Introspect is the client side of the session service: it resolves token
// through the server behind cc.
func Introspect(ctx context.Context, cc grpc.ClientConnInterface, token string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, IntrospectMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
