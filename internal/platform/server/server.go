// Package server は HTTP と gRPC のリスナーをまとめて起動・停止します。
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpchandler "github.com/ogurasousui/nomina/internal/adapters/grpc/handler"
	"github.com/ogurasousui/nomina/internal/platform/config"
)

// Probe はストアへの疎通確認です。nil の場合は常に正常とみなします。
type Probe func(ctx context.Context) error

// Server は HTTP API と gRPC ヘルスチェックのライフサイクルを管理します。
type Server struct {
	httpAddr        string
	grpcAddr        string
	shutdownTimeout time.Duration
	probeInterval   time.Duration

	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
	probe      Probe
	logger     zerolog.Logger
}

// New はサーバーを構築します。gRPC にはヘルスチェックとリフレクションに加えて register で渡したサービスを登録します。
func New(cfg config.ServerConfig, handler http.Handler, probe Probe, logger zerolog.Logger, register ...func(grpc.ServiceRegistrar)) *Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpchandler.UnaryServerInterceptor(logger)))
	for _, r := range register {
		r(srv)
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	interval := cfg.HealthProbeInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &Server{
		httpAddr:        cfg.HTTPListenAddr,
		grpcAddr:        cfg.GRPCListenAddr,
		shutdownTimeout: timeout,
		probeInterval:   interval,
		httpServer: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpcServer: srv,
		health:     hs,
		probe:      probe,
		logger:     logger,
	}
}

// Run は設定されたアドレスで待ち受け、コンテキストがキャンセルされるまでブロックします。
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}
	grpcLis, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("listen on %s: %w", s.grpcAddr, err)
	}
	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve は与えられたリスナーで両サーバーを起動します。
// どちらかが失敗するかコンテキストがキャンセルされると、ShutdownTimeout の範囲で両方を停止します。
// ストアの疎通確認は停止まで probeInterval ごとに繰り返し、結果をヘルスチェックに反映します。
func (s *Server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	serving := s.updateHealth(ctx, false)
	if !serving {
		s.logger.Warn().Msg("store is not reachable; health stays NOT_SERVING until it is")
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.probe != nil {
		g.Go(func() error {
			ticker := time.NewTicker(s.probeInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					serving = s.updateHealth(gctx, serving)
				}
			}
		})
	}

	g.Go(func() error {
		s.logger.Info().Str("addr", httpLis.Addr().String()).Msg("http server listening")
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.logger.Info().Str("addr", grpcLis.Addr().String()).Msg("grpc server listening")
		if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

// updateHealth はストアを確認してヘルスチェックの状態を更新し、SERVING かどうかを返します。
// 状態が変わったときだけログを出力します。
func (s *Server) updateHealth(ctx context.Context, wasServing bool) bool {
	if s.probe == nil {
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return true
	}

	if err := s.probe(ctx); err != nil {
		if ctx.Err() != nil {
			return wasServing
		}
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		if wasServing {
			s.logger.Warn().Err(err).Msg("store became unreachable")
		} else {
			s.logger.Debug().Err(err).Msg("store is still unreachable")
		}
		return false
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	if !wasServing {
		s.logger.Info().Msg("store is reachable")
	}
	return true
}

func (s *Server) shutdown() error {
	s.logger.Info().Dur("timeout", s.shutdownTimeout).Msg("shutting down")
	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	httpErr := s.httpServer.Shutdown(ctx)

	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
		<-stopped
	}

	if httpErr != nil {
		return fmt.Errorf("shutdown http: %w", httpErr)
	}
	return nil
}
