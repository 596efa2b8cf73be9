// Package grpc runs the archive server's gRPC health endpoint. The reported
// status follows a periodic storage ping.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall ("")
// status.
const ServiceName = "crossland.archive.Archive"

const defaultProbeInterval = 10 * time.Second

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	address  string
	logger   logging.Logger
	storage  Pinger
	health   *health.Server
	interval time.Duration
}

func NewGRPCServer(a string, l logging.Logger, p Pinger) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		storage:  p,
		health:   health.NewServer(),
		interval: defaultProbeInterval,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

// probe pings storage and publishes the result for both service names.
func (s *GRPCServer) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING

	pingCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()
	if err := s.storage.Ping(pingCtx); err != nil {
		s.logger.Warn(ctx, "storage ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
