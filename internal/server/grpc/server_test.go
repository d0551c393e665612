package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// startBufconn serves s over an in-memory listener and returns a client connection.
func startBufconn(t *testing.T, s *GRPCServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
	})
	return conn
}

func TestIntrospect_OverBufconn(t *testing.T) {
	account := &models.Account{ID: "acc-1", Name: "Ann", Email: "ann@x.com", Role: models.RoleUser}
	s := newTestServer(stubSessions{accounts: map[string]*models.Account{"good": account}})
	conn := startBufconn(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := Introspect(ctx, conn, "good")
	if err != nil {
		t.Fatalf("Introspect error: %v", err)
	}
	fields := out.AsMap()
	if fields["id"] != "acc-1" || fields["email"] != "ann@x.com" || fields["name"] != "Ann" || fields["role"] != "user" {
		t.Fatalf("unexpected introspection result: %v", fields)
	}

	_, err = Introspect(ctx, conn, "bad")
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestHealth_OverBufconn(t *testing.T) {
	conn := startBufconn(t, newTestServer(stubSessions{}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := healthpb.NewHealthClient(conn)
	for _, svc := range []string{"", SessionServiceName} {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("health check %q error: %v", svc, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("health check %q: got %v", svc, resp.GetStatus())
		}
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Discard(), stubSessions{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Discard(), stubSessions{})

	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected error for bad address")
	}
}
