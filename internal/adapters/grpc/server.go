package grpc

import (
	"context"
	"net"
	"runtime/debug"
	"time"

	"github.com/viralforge/invoicing-service/internal/platform/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// Server is the internal gRPC listener. It only carries grpc.health.v1 today.
type Server struct {
	server      *grpc.Server
	health      *health.Server
	serviceName string
	logger      *zap.Logger
}

func NewServer(log *zap.Logger, serviceName string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	log = logger.Component(log, "grpc", "adapter")
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		recoverInterceptor(log),
		loggingInterceptor(log),
	))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)
	s := &Server{server: srv, health: healthSrv, serviceName: serviceName, logger: log}
	s.SetServing(true)
	return s
}

func (s *Server) SetServing(serving bool) {
	state := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		state = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", state)
	if s.serviceName != "" {
		s.health.SetServingStatus(s.serviceName, state)
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// GracefulStop flips every health status to NOT_SERVING before draining.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{
			zap.String("operation", info.FullMethod),
			zap.String("grpc_code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil && code != codes.NotFound && code != codes.InvalidArgument {
			logger.Warn("grpc call failed", append(fields, zap.String("outcome", "failure"), zap.Error(err))...)
			return resp, err
		}
		logger.Debug("grpc call served", append(fields, zap.String("outcome", "success"))...)
		return resp, err
	}
}

func recoverInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("grpc panic recovered",
					zap.String("operation", info.FullMethod),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
