package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/bookingadmin/config"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 5 * time.Second

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	log        *logrus.Entry
}

func NewServers(cfg *config.Config, handler http.Handler, log *logrus.Entry) *Servers {
	s := &Servers{
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}

	if cfg.GRPC.Address != "" {
		s.grpcServer = grpc.NewServer()
		s.health = health.NewServer()
		healthpb.RegisterHealthServer(s.grpcServer, s.health)
	}
	return s
}

// Run starts the HTTP console and, when configured, the gRPC health server.
// It blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, log *logrus.Entry) error {
	s := NewServers(cfg, handler, log)

	errCh := make(chan error, 2)

	if s.grpcServer != nil {
		lis, err := net.Listen("tcp", cfg.GRPC.Address)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
		}
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		log.WithField("address", cfg.GRPC.Address).Info("gRPC health server listening")
		go func() { errCh <- s.grpcServer.Serve(lis) }()
	}

	lis, err := net.Listen("tcp", cfg.HTTP.Address)
	if err != nil {
		s.stopGRPC()
		return fmt.Errorf("listen HTTP %s: %w", cfg.HTTP.Address, err)
	}
	log.WithField("address", cfg.HTTP.Address).Info("HTTP server listening")
	go func() { errCh <- s.httpServer.Serve(lis) }()

	select {
	case err := <-errCh:
		s.stopGRPC()
		_ = s.httpServer.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown reports NOT_SERVING, drains gRPC and gives in-flight HTTP requests
// shutdownTimeout to finish.
func (s *Servers) Shutdown() error {
	s.log.Info("shutting down servers")
	s.stopGRPC()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Servers) stopGRPC() {
	if s.grpcServer == nil {
		return
	}
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
