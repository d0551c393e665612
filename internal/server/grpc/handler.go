package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Introspect returns the account bound to the caller's session token.
func (s *GRPCServer) Introspect(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	account, ok := accountFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	result, err := structpb.NewStruct(map[string]any{
		"id":    account.ID,
		"email": account.Email,
		"name":  account.Name,
		"role":  string(account.Role),
	})
	if err != nil {
		s.logger.Error(ctx, err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	return result, nil
}
