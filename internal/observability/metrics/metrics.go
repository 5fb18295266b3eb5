package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                         sync.Once
	metricsRouter                *chi.Mux
	transferProcessingDuration   *prometheus.HistogramVec
	feesCollectedCounter         *prometheus.CounterVec
	flaggedTransfersCounter      *prometheus.CounterVec
	refundClaimsCounter          *prometheus.CounterVec
	distributionsCounter         prometheus.Counter
	heldDistributionsGauge       prometheus.Gauge
	eligibleSupplyGauge          prometheus.Gauge
	pollerDurationHistogram      *prometheus.HistogramVec
	queueConsumeErrorCounter     prometheus.Counter
	dbLatency                    *prometheus.HistogramVec
	httpRequestDurationHistogram *prometheus.HistogramVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	transferProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transfer_processing_duration_seconds",
			Help:    "Transfer event processing duration in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"direction", "status"},
	)

	feesCollectedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fees_assessed_total",
			Help: "The total number of transfer fees assessed",
		},
		[]string{"direction"},
	)

	flaggedTransfersCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flagged_transfers_total",
			Help: "The total number of transfers flagged by the same-round activity monitor",
		},
		[]string{"mode"},
	)

	refundClaimsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refund_claims_total",
			Help: "The total number of fee refund claims",
		},
		[]string{"status"},
	)

	distributionsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dividend_distributions_total",
			Help: "The total number of dividend distributions applied",
		},
	)

	heldDistributionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "held_distributions_count",
			Help: "Number of distributions parked waiting for eligible supply",
		},
	)

	eligibleSupplyGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dividend_eligible_supply",
			Help: "Last value of the dividend eligible supply",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	// add a counter for the number of errors from the fail to consume message from queue
	queueConsumeErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_consume_error_count",
			Help: "The total number of errors when consuming messages from the queue",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	httpRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of incoming http request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "path", "status"},
	)

	prometheus.MustRegister(
		transferProcessingDuration,
		feesCollectedCounter,
		flaggedTransfersCounter,
		refundClaimsCounter,
		distributionsCounter,
		heldDistributionsGauge,
		eligibleSupplyGauge,
		pollerDurationHistogram,
		queueConsumeErrorCounter,
		dbLatency,
		httpRequestDurationHistogram,
	)
}

func RecordTransferProcessingDuration(d time.Duration, direction string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	transferProcessingDuration.WithLabelValues(direction, status.String()).Observe(d.Seconds())
}

func IncFeesAssessed(direction string) {
	feesCollectedCounter.WithLabelValues(direction).Inc()
}

func IncFlaggedTransfers(mode string) {
	flaggedTransfersCounter.WithLabelValues(mode).Inc()
}

func RecordRefundClaim(failure bool) {
	status := Success
	if failure {
		status = Error
	}

	refundClaimsCounter.WithLabelValues(status.String()).Inc()
}

func IncDistributionsApplied() {
	distributionsCounter.Inc()
}

func RecordHeldDistributionsCount(count int) {
	heldDistributionsGauge.Set(float64(count))
}

func RecordEligibleSupply(supply float64) {
	eligibleSupplyGauge.Set(supply)
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordQueueConsumeError() {
	queueConsumeErrorCounter.Inc()
}

// StartHttpRequestDurationTimer starts a timer to measure incoming http request duration.
func StartHttpRequestDurationTimer(method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		httpRequestDurationHistogram.WithLabelValues(
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}
