package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/maktabati/pkg/config"
)

const probeTimeout = 3 * time.Second

// Check is one backing dependency reported as its own health service.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthServer serves the standard gRPC health protocol. The overall status
// ("" service) is SERVING only while every check passes.
type HealthServer struct {
	cfg    config.GRPCConfig
	name   string
	checks []Check
	health *health.Server
	srv    *grpc.Server
	logger *zap.Logger
}

func NewHealthServer(cfg config.GRPCConfig, name string, logger *zap.Logger, checks ...Check) *HealthServer {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &HealthServer{
		cfg:    cfg,
		name:   name,
		checks: checks,
		health: hs,
		srv:    srv,
		logger: logger,
	}
}

func (s *HealthServer) Start() error {
	lis, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.logger.Info("Health server started", zap.String("address", s.cfg.Addr()))
	return s.srv.Serve(lis)
}

// Probe pings every dependency once and publishes the result.
func (s *HealthServer) Probe(ctx context.Context) bool {
	healthy := true
	for _, c := range s.checks {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := c.Ping(pctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			status = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn("Dependency unhealthy", zap.String("check", c.Name), zap.Error(err))
		}
		s.health.SetServingStatus(c.Name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)
	s.health.SetServingStatus(s.name, overall)
	return healthy
}

// Run probes immediately and then every CheckInterval until ctx ends.
func (s *HealthServer) Run(ctx context.Context) {
	s.Probe(ctx)
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

// Check answers a health query in process.
func (s *HealthServer) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.Status, nil
}
