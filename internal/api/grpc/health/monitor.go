package health

import (
	"context"
	"time"

	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/community-board-server/internal/logger"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "community.Board"

const pingTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor polls the user store and mirrors its state into a gRPC health server.
type Monitor struct {
	pinger   Pinger
	server   *grpchealth.Server
	interval time.Duration
	logger   *logger.Logger
	serving  bool
}

// NewMonitor creates a Monitor. The health server starts as NOT_SERVING until the first check.
func NewMonitor(pinger Pinger, interval time.Duration, logger *logger.Logger) *Monitor {
	server := grpchealth.NewServer()
	server.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	server.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return &Monitor{
		pinger:   pinger,
		server:   server,
		interval: interval,
		logger:   logger,
	}
}

// Server returns the health server to register on the ops gRPC server.
func (m *Monitor) Server() *grpchealth.Server {
	return m.server
}

// Check pings once and updates the serving status.
func (m *Monitor) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	err := m.pinger.Ping(ctx)
	if err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	switch {
	case err != nil && m.serving:
		m.logger.Error("Health: database unreachable", "error", err.Error())
	case err == nil && !m.serving:
		m.logger.Info("Health: serving")
	}
	m.serving = err == nil

	m.server.SetServingStatus("", status)
	m.server.SetServingStatus(ServiceName, status)
}

// Run checks immediately and then on every tick until ctx is done.
// On exit every service is marked NOT_SERVING.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.server.Shutdown()
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
