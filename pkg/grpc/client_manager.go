package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/discovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Discoverer lists registered instances of a service.
type Discoverer interface {
	Discover(ctx context.Context, serviceName string) ([]*discovery.ServiceInstance, error)
}

type PeerStatus struct {
	ID     string `json:"id"`
	Addr   string `json:"addr"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ClientManager probes the health of peer kiosks found through discovery.
type ClientManager struct {
	discovery Discoverer
	service   string
	timeout   time.Duration
	dialOpts  []grpc.DialOption
	logger    *zap.Logger
}

func NewClientManager(disc Discoverer, service string, timeout time.Duration, logger *zap.Logger, opts ...grpc.DialOption) *ClientManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return &ClientManager{
		discovery: disc,
		service:   service,
		timeout:   timeout,
		dialOpts:  dialOpts,
		logger:    logger.Named("peers"),
	}
}

// Probe asks target for the kiosk health status.
func (m *ClientManager) Probe(ctx context.Context, target string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(target, m.dialOpts...)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("failed to create client for %s: %w", target, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check %s: %w", target, err)
	}
	return resp.GetStatus(), nil
}

// Peers discovers the registered kiosks and probes each one.
func (m *ClientManager) Peers(ctx context.Context) ([]PeerStatus, error) {
	if m.discovery == nil {
		return nil, errors.New("discovery is not configured")
	}
	instances, err := m.discovery.Discover(ctx, m.service)
	if err != nil {
		return nil, err
	}

	peers := make([]PeerStatus, 0, len(instances))
	for _, instance := range instances {
		peer := PeerStatus{ID: instance.ID, Addr: instance.Addr()}
		status, err := m.Probe(ctx, "passthrough:///"+peer.Addr)
		peer.Status = status.String()
		if err != nil {
			m.logger.Warn("Peer unreachable", zap.String("addr", peer.Addr), zap.Error(err))
			peer.Error = err.Error()
		}
		peers = append(peers, peer)
	}
	return peers, nil
}
