package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports whether a backing dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func (s *GRPCServer) monitor(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh pings the dependency and publishes the result for both the overall
// server and ServiceName.
func (s *GRPCServer) refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING

	if s.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, s.checkInterval)
		err := s.pinger.PingContext(pingCtx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "dependency ping failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
