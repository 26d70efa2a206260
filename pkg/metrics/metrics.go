package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spotplacement"

var (
	Registry = prometheus.NewRegistry()

	armRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "arm_requests_total",
		Help:      "Azure Resource Manager requests grouped by operation and status code.",
	}, []string{"operation", "code"})

	armDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "arm_request_duration_seconds",
		Help:      "Duration of Azure Resource Manager requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	placementRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "placement_results_total",
		Help:      "Placement score rows returned to callers grouped by score.",
	}, []string{"score"})
)

func init() {
	Registry.MustRegister(
		armRequests,
		armDuration,
		placementRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveARMRequest records one upstream call. code 0 means the call never got a response.
func ObserveARMRequest(operation string, code int, elapsed time.Duration) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	armRequests.WithLabelValues(operation, label).Inc()
	armDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func ObservePlacementRow(score string) {
	placementRows.WithLabelValues(score).Inc()
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	hlog.Infof("metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "metrics listener")
	}
	return nil
}
