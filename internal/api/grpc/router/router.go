package router

import (
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/community-board-server/internal/api/grpc/middleware"
	"github.com/dtroode/community-board-server/internal/logger"
)

// Router builds the ops gRPC server: health checking and reflection.
type Router struct {
	health *grpchealth.Server
	logger *logger.Logger
}

// New creates new gRPC Router instance.
func New(health *grpchealth.Server, logger *logger.Logger) *Router {
	return &Router{health: health, logger: logger}
}

// Register returns a gRPC server with the health service, reflection and
// recovery plus logging interceptors installed.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recoveryOpt := middleware.RecoveryOption(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(recoveryOpt),
			logging.HandleGRPC,
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoveryOpt),
			logging.HandleStream,
		),
	)

	grpc_health_v1.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}
