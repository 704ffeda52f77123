// Package grpc exposes the kiosk's gRPC health endpoint and probes the
// health of peer kiosks.
package grpc

import (
	"fmt"
	"net"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name the kiosk reports under.
const ServiceName = "kafe.Kiosk"

type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	config *config.ServerConfig
	logger *zap.Logger
}

// NewHealthServer builds a server that reports NOT_SERVING until
// SetServing(true) is called.
func NewHealthServer(cfg *config.ServerConfig, logger *zap.Logger) *HealthServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &HealthServer{srv: srv, health: hs, config: cfg, logger: logger.Named("grpc")}
	s.SetServing(false)
	return s
}

func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Start listens on the configured address and serves until Stop.
func (s *HealthServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.logger.Info("Health service started", zap.String("address", addr))
	return s.Serve(lis)
}

func (s *HealthServer) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Stop marks the service NOT_SERVING and drains in-flight calls.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
