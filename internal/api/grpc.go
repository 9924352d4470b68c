package api

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/yourusername/ipl-winprob/internal/ml"
)

// GRPCServer serves the Predictor service so other instances can use this one as
// their remote backend.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	logger *logrus.Logger
}

// NewGRPCServer registers p and a health service. The predictor reports NOT_SERVING
// until SetServing(true).
func NewGRPCServer(p ml.Predictor, logger *logrus.Logger) *GRPCServer {
	g := &GRPCServer{logger: logger, health: health.NewServer()}
	g.server = grpc.NewServer(grpc.ChainUnaryInterceptor(g.recoverInterceptor, g.logInterceptor))

	ml.RegisterPredictorServer(g.server, p)
	healthpb.RegisterHealthServer(g.server, g.health)
	g.SetServing(false)
	return g
}

// SetServing flips the health status of the predictor service
func (g *GRPCServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus(ml.PredictorServiceName, st)
	g.health.SetServingStatus("", st)
}

// Serve blocks serving lis until Stop
func (g *GRPCServer) Serve(lis net.Listener) error {
	g.logger.WithField("addr", lis.Addr().String()).Info("gRPC predictor starting")
	return g.server.Serve(lis)
}

// Stop drains in-flight calls, forcing a stop once ctx is done
func (g *GRPCServer) Stop(ctx context.Context) {
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		g.server.Stop()
	}
}

func (g *GRPCServer) logInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	entry := g.logger.WithFields(logrus.Fields{
		"method":      info.FullMethod,
		"code":        status.Code(err).String(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil && status.Code(err) != codes.InvalidArgument {
		entry.WithError(err).Warn("gRPC call failed")
	} else {
		entry.Debug("gRPC call served")
	}
	return resp, err
}

func (g *GRPCServer) recoverInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.WithFields(logrus.Fields{"method": info.FullMethod, "panic": r}).Error("gRPC handler panicked")
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}
