package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// healthCheckClient is the part of healthpb.HealthClient the probe uses.
type healthCheckClient interface {
	Check(ctx context.Context, in *healthpb.HealthCheckRequest, opts ...grpc.CallOption) (*healthpb.HealthCheckResponse, error)
}

// GRPCHealthChecker queries the standard grpc.health.v1 service exposed next
// to the Auth API.
type GRPCHealthChecker struct {
	conn    *grpc.ClientConn
	client  healthCheckClient
	service string
}

// NewGRPCHealthChecker creates a lazily-connecting probe for addr. The
// connection is only dialed on the first Check.
func NewGRPCHealthChecker(addr string, opts ...grpc.DialOption) (*GRPCHealthChecker, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCHealthChecker{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

func (h *GRPCHealthChecker) Check(ctx context.Context) error {
	resp, err := h.client.Check(ctx, &healthpb.HealthCheckRequest{Service: h.service})
	if err != nil {
		return mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: health status %s", ErrUnavailable, resp.GetStatus())
	}
	return nil
}

func (h *GRPCHealthChecker) Close() error {
	if h.conn == nil {
		return nil
	}
	return h.conn.Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
