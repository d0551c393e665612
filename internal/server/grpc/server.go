// Package grpc serves session introspection to other storefront services,
// together with the standard gRPC health service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Authenticator resolves a session token to its account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

type GRPCServer struct {
	address  string
	sessions Authenticator
	logger   logging.Logger
	health   *health.Server
}

func NewGRPCServer(a string, l logging.Logger, sessions Authenticator) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		health:   health.NewServer(),
	}
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	srv.RegisterService(&sessionServiceDesc, s)
	healthpb.RegisterHealthServer(srv, s.health)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(SessionServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}
