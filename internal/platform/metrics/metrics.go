// Package metrics は Prometheus のメトリクスを専用レジストリで公開します。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nomina"

// Metrics はアプリケーションが記録するメトリクスをまとめます。
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	domainErrors    *prometheus.CounterVec
}

// New はメトリクスを生成し、専用レジストリに登録します。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		domainErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_errors_total",
			Help:      "Errors returned to clients, by domain error kind.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.domainErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler は /metrics 用のハンドラを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// PoolStats はコネクションプールの使用状況です。
type PoolStats struct {
	Total    int32
	Idle     int32
	Acquired int32
}

// RegisterPoolStats はスクレイプのたびに read を呼び出してプールの状態を公開します。
func (m *Metrics) RegisterPoolStats(read func() PoolStats) {
	gauge := func(name, help string, pick func(PoolStats) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(pick(read())) })
	}
	m.registry.MustRegister(
		gauge("total_conns", "Connections currently open.", func(s PoolStats) int32 { return s.Total }),
		gauge("idle_conns", "Idle connections.", func(s PoolStats) int32 { return s.Idle }),
		gauge("acquired_conns", "Connections checked out by queries.", func(s PoolStats) int32 { return s.Acquired }),
	)
}

// ObserveDomainError はクライアントに返したエラーの種類を数えます。
func (m *Metrics) ObserveDomainError(kind string) {
	if m == nil {
		return
	}
	m.domainErrors.WithLabelValues(kind).Inc()
}

// Middleware はリクエスト数とレイテンシを記録します。
// ラベルには実パスではなく chi のルートパターンを使い、カーディナリティを抑えます。
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
