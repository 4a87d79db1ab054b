package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/ogurasousui/nomina/internal/platform/config"
)

type running struct {
	httpURL string
	health  healthpb.HealthClient
	cancel  context.CancelFunc
	done    chan error
}

func start(t *testing.T, probe Probe) *running {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	srv := New(config.ServerConfig{ShutdownTimeout: time.Second, HealthProbeInterval: 10 * time.Millisecond}, mux, probe, zerolog.Nop())

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, httpLis, grpcLis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return grpcLis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	r := &running{
		httpURL: "http://" + httpLis.Addr().String(),
		health:  healthpb.NewHealthClient(conn),
		cancel:  cancel,
		done:    done,
	}
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	})
	return r
}

func (r *running) check(t *testing.T) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := r.health.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	return resp.GetStatus()
}

// current は Eventually の中から呼ぶため、失敗時はテストを止めずに UNKNOWN を返します。
func (r *running) current() healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := r.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN
	}
	return resp.GetStatus()
}

func TestServer_ServesHTTPAndHealth(t *testing.T) {
	t.Parallel()

	r := start(t, func(context.Context) error { return nil })

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, r.check(t))

	resp, err := http.Get(r.httpURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	r.cancel()
	select {
	case err := <-r.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop after cancel")
	}
}

func TestServer_UnreachableStoreIsNotServing(t *testing.T) {
	t.Parallel()

	r := start(t, func(context.Context) error { return errors.New("connection refused") })

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, r.check(t))
}

func TestServer_HealthFollowsStore(t *testing.T) {
	t.Parallel()

	var down atomic.Bool
	down.Store(true)
	r := start(t, func(context.Context) error {
		if down.Load() {
			return errors.New("connection refused")
		}
		return nil
	})

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, r.check(t))

	down.Store(false)
	require.Eventually(t, func() bool {
		return r.current() == healthpb.HealthCheckResponse_SERVING
	}, 5*time.Second, 10*time.Millisecond)

	down.Store(true)
	require.Eventually(t, func() bool {
		return r.current() == healthpb.HealthCheckResponse_NOT_SERVING
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServer_RunFailsOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := New(config.ServerConfig{HTTPListenAddr: "bad-address", GRPCListenAddr: "127.0.0.1:0"}, http.NewServeMux(), nil, zerolog.Nop())
	err := srv.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on bad-address")
}

func TestServer_RegistersServices(t *testing.T) {
	t.Parallel()

	var names []string
	srv := New(config.ServerConfig{}, http.NewServeMux(), nil, zerolog.Nop(), func(r grpc.ServiceRegistrar) {
		names = append(names, "division")
	})
	require.Equal(t, []string{"division"}, names)

	info := srv.grpcServer.GetServiceInfo()
	assert.Contains(t, info, "grpc.health.v1.Health")
}
