// Package grpc runs the Auth API's gRPC health service. Clients use it as a
// cheap online probe.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall "".
const ServiceName = "sessionkeeper.Auth"

const defaultCheckInterval = 5 * time.Second

type GRPCServer struct {
	address       string
	logger        logging.Logger
	health        *health.Server
	pinger        Pinger
	checkInterval time.Duration
}

// NewGRPCServer creates a health server. A nil pinger reports SERVING
// unconditionally.
func NewGRPCServer(a string, l logging.Logger, p Pinger) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		health:        health.NewServer(),
		pinger:        p,
		checkInterval: defaultCheckInterval,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	// registers service
	healthpb.RegisterHealthServer(srv, s.health)

	s.refresh(ctx)
	go s.monitor(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
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
