package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/armadaproject/jointester/internal/common/logging"
)

const shutdownTimeout = 5 * time.Second

// MetricsHandler serves the metrics collected by gatherer in the Prometheus exposition format.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// ServeMetrics starts serving /metrics on port in the background. The returned function stops the server.
func ServeMetrics(port uint16, gatherer prometheus.Gatherer) func() {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           MetricsHandler(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Serving metrics on :%d/metrics", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithStacktrace(errors.WithStack(err)).Error("Metrics server failed")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Failed to stop metrics server")
		}
	}
}
