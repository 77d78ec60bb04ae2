package api

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	kindOK    = "ok"
	kindParse = "parse"
)

type metrics struct {
	checks      *prometheus.CounterVec
	duration    prometheus.Histogram
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relcheck_checks_total",
			Help: "Checked scripts by outcome: ok, parse, or the type error kind",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relcheck_check_duration_seconds",
			Help:    "Time spent parsing and type-checking a script",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relcheck_parse_cache_hits_total",
			Help: "Scripts served from the parse cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relcheck_parse_cache_misses_total",
			Help: "Scripts that had to be parsed",
		}),
	}
	collectors := []prometheus.Collector{m.checks, m.duration, m.cacheHits, m.cacheMisses}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			// Leave the registry as it was.
			for _, done := range collectors[:i] {
				reg.Unregister(done)
			}
			var dup prometheus.AlreadyRegisteredError
			if errors.As(err, &dup) {
				return nil, errors.Wrap(err, "api: metrics already registered")
			}
			return nil, errors.Wrap(err, "api: register metrics")
		}
	}
	return m, nil
}
