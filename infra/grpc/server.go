package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is the readiness probe backing the health status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the standard gRPC health service for the inventory service.
// The overall status ("") and the named service follow the record store.
type Server struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	service  string
}

func NewServer(port, service string) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return NewServerWithListener(lis, service), nil
}

// NewServerWithListener serves on an existing listener. Status starts as
// NOT_SERVING until SetServing or Watch reports otherwise.
func NewServerWithListener(lis net.Listener, service string) *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor,
			recoveryInterceptor,
		),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		server:   grpcServer,
		health:   healthServer,
		listener: lis,
		service:  service,
	}
	s.SetServing(false)
	return s
}

func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
}

// Watch pings p every interval and updates the serving status until ctx is
// done.
func (s *Server) Watch(ctx context.Context, p Pinger, interval time.Duration) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := p.Ping(pingCtx)
		if err != nil && ctx.Err() == nil {
			zap.L().Warn("Readiness probe failed", zap.Error(err))
		}
		s.SetServing(err == nil)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func (s *Server) Start() error {
	zap.L().Info("gRPC health server started",
		zap.String("address", s.listener.Addr().String()))
	return s.server.Serve(s.listener)
}

func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
