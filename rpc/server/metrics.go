package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/pool"
	"github.com/ValentinKolb/rFS/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"net/http"
	"time"
)

// serverMetrics groups the prometheus metrics of one server instance. Every server
// owns its own set, so several servers (e.g. in tests) can live in one process.
//
// In process-pool mode the worker processes record no request metrics, the parent only
// counts dispatched connections and exports the queue length and pool size.
type serverMetrics struct {
	set        *metrics.Set
	dispatched *metrics.Counter
	bytesIn    *metrics.Counter
	bytesOut   *metrics.Counter
}

func newServerMetrics() *serverMetrics {
	set := metrics.NewSet()
	return &serverMetrics{
		set:        set,
		dispatched: set.NewCounter("rfs_connections_dispatched_total"),
		bytesIn:    set.NewCounter("rfs_bytes_in_total"),
		bytesOut:   set.NewCounter("rfs_bytes_out_total"),
	}
}

// observeRequest records one handled request
func (m *serverMetrics) observeRequest(verb common.Verb, status common.Status, start time.Time, in, out int) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`rfs_requests_total{verb=%q,status=%q}`, verb.String(), status)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`rfs_request_duration_seconds{verb=%q}`, verb.String())).UpdateDuration(start)
	m.bytesIn.Add(in)
	m.bytesOut.Add(out)
}

// observePool exports the queue length and size of the worker pool
func (m *serverMetrics) observePool(p pool.IWorkerPool) {
	m.set.NewGauge("rfs_pool_queue_length", func() float64 {
		return float64(p.Len())
	})
	m.set.NewGauge("rfs_pool_size", func() float64 {
		return float64(p.Size())
	})
}

// serve exposes the metrics (plus go runtime and process metrics) on /metrics until ctx is done
func (m *serverMetrics) serve(ctx context.Context, endpoint string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		m.set.WritePrometheus(w)
		metrics.WritePrometheus(w, true)
	})

	srv := &http.Server{
		Addr:              endpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	Logger.Infof("Serving metrics on http://%s/metrics", endpoint)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics endpoint failed: %v", err)
	}
	return nil
}
