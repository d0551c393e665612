package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accountKey ctxKey = "account"

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if info.FullMethod == IntrospectMethod {

		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AccessTokenHeaderName)
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		account, err := s.sessions.Authenticate(ctx, accessToken)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, "token expired")
			}
			if errors.Is(err, common.ErrInvalidToken) {
				return nil, status.Error(codes.Unauthenticated, "invalid token")
			}
			s.logger.Error(ctx, "session lookup failed", "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}

		ctx = context.WithValue(ctx, accountKey, account)

	}

	return handler(ctx, req)
}

func accountFromContext(ctx context.Context) (*models.Account, bool) {
	a, ok := ctx.Value(accountKey).(*models.Account)
	return a, ok && a != nil
}
