package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/community-board-server/internal/logger"
)

// Logging logs every ops call with its outcome.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

func codeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Internal
}

// HandleGRPC logs method, duration and status of a unary call.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := codeOf(err)
	args := []any{
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String(),
	}
	if err != nil {
		l.logger.Error("gRPC: request failed", append(args, "error", err.Error())...)
		return resp, err
	}
	l.logger.Debug("gRPC: request completed", args...)
	return resp, nil
}

// HandleStream logs method, duration and status of a streaming call such as health Watch.
func (l *Logging) HandleStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)

	l.logger.Debug("gRPC: stream closed",
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", codeOf(err).String())
	return err
}
