package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/lifelog/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func newTestServer(accounts AccountService, profiles ProfileService, resolver Resolver) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.NewNopLogger(), accounts, profiles, resolver, nil)
}

// startBufconn serves s over an in-memory listener and returns a client
// connection to it. Both are torn down with the test.
func startBufconn(t *testing.T, s *GRPCServer) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Errorf("server did not stop")
		}
	})
	return conn
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := newTestServer(newFakeAccounts(), newFakeProfiles(), &fakeResolver{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	s := NewGRPCServer("bad::addr", logging.NewNopLogger(), newFakeAccounts(), newFakeProfiles(), &fakeResolver{}, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestHealthCheck_IsPublic(t *testing.T) {
	res := &fakeResolver{}
	conn := startBufconn(t, newTestServer(newFakeAccounts(), newFakeProfiles(), res))

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
	if n := res.calls.Load(); n != 0 {
		t.Fatalf("resolver called %d times for a public method", n)
	}
}
