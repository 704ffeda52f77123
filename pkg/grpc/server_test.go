package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/config"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/discovery"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startBufServer(t *testing.T) (*HealthServer, *bufconn.Listener) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewHealthServer(&config.ServerConfig{Name: "kafe-kiosk"}, nil)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)
	return s, lis
}

func bufDialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestHealthServingStatus(t *testing.T) {
	s, lis := startBufServer(t)
	m := NewClientManager(nil, "kiosk", 0, nil, bufDialer(lis))

	status, err := m.Probe(context.Background(), "passthrough:///bufnet")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING before stores load, got %s", status)
	}

	s.SetServing(true)
	status, err = m.Probe(context.Background(), "passthrough:///bufnet")
	if err != nil || status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s %v", status, err)
	}
}

type fakeDiscoverer struct {
	instances []*discovery.ServiceInstance
	err       error
}

func (f fakeDiscoverer) Discover(context.Context, string) ([]*discovery.ServiceInstance, error) {
	return f.instances, f.err
}

func TestPeers(t *testing.T) {
	s, lis := startBufServer(t)
	s.SetServing(true)

	disc := fakeDiscoverer{instances: []*discovery.ServiceInstance{{ID: "k1", Name: "kiosk", Host: "bufnet", Port: 1}}}
	peers, err := NewClientManager(disc, "kiosk", 0, nil, bufDialer(lis)).Peers(context.Background())
	if err != nil {
		t.Fatalf("peers: %v", err)
	}
	if len(peers) != 1 || peers[0].ID != "k1" || peers[0].Status != "SERVING" || peers[0].Error != "" {
		t.Fatalf("unexpected peers %+v", peers)
	}

	if _, err := NewClientManager(nil, "kiosk", 0, nil).Peers(context.Background()); err == nil {
		t.Fatalf("expected error without discovery")
	}
	boom := errors.New("etcd down")
	if _, err := NewClientManager(fakeDiscoverer{err: boom}, "kiosk", 0, nil).Peers(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected discovery error, got %v", err)
	}
}
