package observability

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	itemsGenerated  prometheus.Counter
	categorySkipped prometheus.Counter
	decodeFailures  prometheus.Counter
	quotaShortfalls prometheus.Counter
	runDuration     prometheus.Histogram
	runsActive      prometheus.Gauge
	runOutcomes     *prometheus.CounterVec

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

// Init returns nil when METRICS_ENABLED is off. Every method is nil-safe.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tf_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tf_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tf_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		itemsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tf_generation_items_total",
			Help: "Generated items across all runs.",
		}),
		categorySkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tf_generation_category_skipped_total",
			Help: "Categories left empty because no trait was admissible.",
		}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tf_generation_decode_failures_total",
			Help: "Trait layers skipped because their image failed to decode.",
		}),
		quotaShortfalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tf_generation_quota_shortfalls_total",
			Help: "Minimum quotas left unsatisfied at the end of a run.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tf_generation_run_duration_seconds",
			Help:    "Wall time of a generation run.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tf_generation_runs_active",
			Help: "Generation runs currently executing.",
		}),
		runOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tf_generation_runs_total",
			Help: "Finished generation runs by outcome.",
		}, []string{"outcome"}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tf_db_pool",
			Help: "database/sql pool stats.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tf_redis_up",
			Help: "1 when the last redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tf_redis_ping_seconds",
			Help: "Latency of the last redis ping.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.itemsGenerated, m.categorySkipped, m.decodeFailures, m.quotaShortfalls,
		m.runDuration, m.runsActive, m.runOutcomes,
		m.dbStats, m.redisUp, m.redisPing,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ItemGenerated() {
	if m == nil {
		return
	}
	m.itemsGenerated.Inc()
}

// CategorySkipped and DecodeFailed count without labels: ids come from
// client uploads. The ids themselves are in the generator's logs.
func (m *Metrics) CategorySkipped(_ string) {
	if m == nil {
		return
	}
	m.categorySkipped.Inc()
}

func (m *Metrics) DecodeFailed(_ string) {
	if m == nil {
		return
	}
	m.decodeFailures.Inc()
}

func (m *Metrics) RunCompleted(items, shortfalls int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.quotaShortfalls.Add(float64(shortfalls))
	m.runDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsActive.Inc()
}

// RunFinished records the terminal state: done, cancelled or failed.
func (m *Metrics) RunFinished(outcome string) {
	if m == nil {
		return
	}
	m.runsActive.Dec()
	m.runOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
