// Package api exposes the prediction service over HTTP, websocket and gRPC.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/ipl-winprob/internal/config"
	"github.com/yourusername/ipl-winprob/internal/metrics"
	"github.com/yourusername/ipl-winprob/internal/ml"
	"github.com/yourusername/ipl-winprob/internal/service"
	"github.com/yourusername/ipl-winprob/internal/tracing"
)

// Dependencies are the services the HTTP API serves
type Dependencies struct {
	Predictions *service.PredictionService
	Stats       *service.StatsService
	// Predictor scores raw feature records on /api/v1/score
	Predictor ml.Predictor
}

// Server is the REST and websocket API
type Server struct {
	cfg         *config.Config
	predictions *service.PredictionService
	stats       *service.StatsService
	predictor   ml.Predictor
	validate    *validator.Validate
	limiter     *rate.Limiter
	upgrader    websocket.Upgrader
	logger      *logrus.Logger
	httpServer  *http.Server
}

// NewServer creates the API server
func NewServer(cfg *config.Config, deps Dependencies, logger *logrus.Logger) (*Server, error) {
	if deps.Predictions == nil {
		return nil, fmt.Errorf("prediction service is required")
	}
	if deps.Predictor == nil {
		return nil, fmt.Errorf("predictor is required")
	}
	if deps.Stats == nil {
		deps.Stats = service.NewStatsService("", nil, logger)
	}

	s := &Server{
		cfg:         cfg,
		predictions: deps.Predictions,
		stats:       deps.Stats,
		predictor:   deps.Predictor,
		validate:    newRequestValidator(),
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.Server.AllowedOrigins),
		},
	}
	if cfg.Server.RateLimitPerSecond > 0 {
		burst := cfg.Server.RateLimitBurst
		if burst <= 0 {
			burst = int(cfg.Server.RateLimitPerSecond) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimitPerSecond), burst)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Router builds the full handler chain: routes, CORS and tracing
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.recoverMiddleware, s.metricsMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	api.HandleFunc("/features", s.handleFeatures).Methods(http.MethodPost)
	api.Handle("/score", s.requireAPIKey(http.HandlerFunc(s.handleScore))).Methods(http.MethodPost)
	api.HandleFunc("/teams", s.handleTeams).Methods(http.MethodGet)
	api.HandleFunc("/venues", s.handleVenues).Methods(http.MethodGet)
	api.HandleFunc("/model", s.handleModel).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/predictions", s.handleRecentPredictions).Methods(http.MethodGet)

	if s.cfg.Server.EnableWebsocket {
		router.HandleFunc("/ws/predict", s.handleWebSocket)
	}
	if s.cfg.Metrics.Enabled {
		router.Handle(s.cfg.Metrics.Path, metrics.Handler()).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-API-Key"},
	})

	return tracing.Handler(s.cfg.Tracing, c.Handler(router))
}

// Start serves until Shutdown is called. It returns nil at once if Shutdown already ran.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Prediction API starting")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Prediction API shutting down")
	return s.httpServer.Shutdown(ctx)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
