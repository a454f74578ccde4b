package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCounter reports the number of open sessions at scrape time.
type SessionCounter interface {
	Len() int
}

// Recorder counts executed statements by kind and outcome. It implements
// simplesql.Observer.
type Recorder struct {
	registry   *prometheus.Registry
	statements *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func New(sessions SessionCounter) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simplesql_statements_total",
			Help: "Statements executed, by kind and result",
		}, []string{"kind", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simplesql_statement_duration_seconds",
			Help:    "Statement execution time, by kind",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	r.registry.MustRegister(r.statements, r.duration)
	if sessions != nil {
		r.registry.MustRegister(&sessionCollector{
			sessions: sessions,
			open: prometheus.NewDesc(
				"simplesql_open_sessions",
				"Number of open MCP sessions",
				nil, nil,
			),
		})
	}
	return r
}

func (r *Recorder) ObserveStatement(kind string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.statements.WithLabelValues(kind, result).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// sessionCollector reads the session count at scrape time.
type sessionCollector struct {
	sessions SessionCounter
	open     *prometheus.Desc
}

func (c *sessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
}

func (c *sessionCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(c.sessions.Len()))
}
