package ml

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// GRPCPredictor delegates scoring to a remote gRPC model service
type GRPCPredictor struct {
	conn    *grpc.ClientConn
	address string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger

	mu   sync.RWMutex
	info ModelInfo
}

// DialGRPCPredictor connects to a remote model service. The connection is lazy;
// call Refresh to verify it and fetch model info.
func DialGRPCPredictor(address string, timeout time.Duration, breakerFailures uint32, logger *logrus.Logger) (*GRPCPredictor, error) {
	creds := grpc.WithTransportCredentials(insecure.NewCredentials())
	if strings.HasPrefix(address, "https://") {
		address = strings.TrimPrefix(address, "https://")
		creds = grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, ""))
	}

	connectParams := grpc.ConnectParams{
		Backoff: backoff.Config{
			BaseDelay:  1 * time.Second,
			Multiplier: 1.6,
			Jitter:     0.2,
			MaxDelay:   5 * time.Second,
		},
		MinConnectTimeout: 10 * time.Second,
	}

	keepAlive := keepalive.ClientParameters{
		Time:                30 * time.Second,
		Timeout:             10 * time.Second,
		PermitWithoutStream: true,
	}

	conn, err := grpc.NewClient(address,
		creds,
		grpc.WithConnectParams(connectParams),
		grpc.WithKeepaliveParams(keepAlive),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return NewGRPCPredictor(conn, address, timeout, breakerFailures, logger), nil
}

// NewGRPCPredictor wraps an existing connection
func NewGRPCPredictor(conn *grpc.ClientConn, address string, timeout time.Duration, breakerFailures uint32, logger *logrus.Logger) *GRPCPredictor {
	if breakerFailures == 0 {
		breakerFailures = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "ml_remote_grpc",
		IsSuccessful: func(err error) bool {
			return err == nil || status.Code(err) == codes.InvalidArgument
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
	})

	return &GRPCPredictor{
		conn:    conn,
		address: address,
		timeout: timeout,
		breaker: breaker,
		logger:  logger,
		info:    ModelInfo{Source: address},
	}
}

func (p *GRPCPredictor) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		resp := new(structpb.Struct)
		if err := p.conn.Invoke(ctx, method, in, resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			RemoteErrorsTotal.WithLabelValues(BackendRemoteGRPC, "invalid_argument").Inc()
			return nil, fmt.Errorf("%w: %s", ErrFeatureMismatch, status.Convert(err).Message())
		}
		RemoteErrorsTotal.WithLabelValues(BackendRemoteGRPC, "transport").Inc()
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return out.(*structpb.Struct), nil
}

// PredictProba implements Predictor
func (p *GRPCPredictor) PredictProba(ctx context.Context, rec models.FeatureRecord) (Probability, error) {
	start := time.Now()
	defer func() {
		PredictionLatency.WithLabelValues(BackendRemoteGRPC).Observe(time.Since(start).Seconds())
	}()

	in, err := recordToStruct(rec)
	if err != nil {
		return Probability{}, fmt.Errorf("failed to encode feature record: %w", err)
	}

	out, err := p.invoke(ctx, predictProbaMethod, in)
	if err != nil {
		return Probability{}, err
	}

	prob, err := structToProbability(out)
	if err != nil {
		RemoteErrorsTotal.WithLabelValues(BackendRemoteGRPC, "decode").Inc()
		return Probability{}, err
	}
	return prob, nil
}

// Refresh fetches model info from the remote service
func (p *GRPCPredictor) Refresh(ctx context.Context) error {
	out, err := p.invoke(ctx, modelInfoMethod, &structpb.Struct{})
	if err != nil {
		return err
	}

	info, err := structToModelInfo(out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	info.Source = p.address

	p.mu.Lock()
	p.info = info
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"address":       p.address,
		"model_version": info.Version,
	}).Info("Remote model info refreshed")
	return nil
}

// HealthCheck asks the remote gRPC health service about the predictor
func (p *GRPCPredictor) HealthCheck(ctx context.Context) error {
	resp, err := healthpb.NewHealthClient(p.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: PredictorServiceName})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: status %s", ErrRemoteUnavailable, resp.GetStatus())
	}
	return nil
}

// Info implements Predictor
func (p *GRPCPredictor) Info() ModelInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info
}

// Close closes the connection
func (p *GRPCPredictor) Close() error {
	return p.conn.Close()
}
