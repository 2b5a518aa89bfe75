// Package grpcserver exposes the standard gRPC health service so
// orchestrators can check the record store without going through HTTP.
package grpcserver

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"fintrack/internal/gateway"
	applog "fintrack/internal/log"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "fintrack.Transactions"

const checkTimeout = 5 * time.Second

type Server struct {
	addr     string
	lis      net.Listener
	Server   *grpc.Server
	health   *health.Server
	store    gateway.Pinger
	interval time.Duration
	logger   *applog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// New builds a server whose health status follows store.Ping, re-checked
// every interval.
func New(addr string, store gateway.Pinger, interval time.Duration, logger *applog.Logger) *Server {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{
		addr:     addr,
		Server:   s,
		health:   hs,
		store:    store,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentGRPC),
		done:     make(chan struct{}),
	}
}

// CheckStore pings the store once and updates the serving status.
func (s *Server) CheckStore(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("Store health check failed", applog.FieldError, err)
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

func (s *Server) checkLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.CheckStore(context.Background())
		}
	}
}

// Start listens on addr and serves until Stop. It blocks.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.lis = lis
	s.CheckStore(context.Background())
	go s.checkLoop()
	s.logger.Info("gRPC health server listening", "addr", lis.Addr().String())
	return s.Server.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight RPCs.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.health.Shutdown()
		s.Server.GracefulStop()
		if s.lis != nil {
			_ = s.lis.Close()
		}
	})
}
