package deepinfra

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics is nil when no registerer was configured, all its methods accept a
// nil receiver.
type metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	cache    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "textgen",
		Subsystem: "deepinfra",
		Name:      "requests_total",
		Help:      "Requests sent to the inference endpoint, by HTTP status code.",
	}, []string{"code"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "textgen",
		Subsystem: "deepinfra",
		Name:      "request_duration_seconds",
		Help:      "Duration of requests to the inference endpoint.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}))
	if err != nil {
		return nil, err
	}

	cache, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "textgen",
		Subsystem: "deepinfra",
		Name:      "cache_total",
		Help:      "Response cache lookups, by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}

	return &metrics{
		requests: requests,
		duration: duration,
		cache:    cache,
	}, nil
}

// register reuses an identical collector registered by another instance.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError

		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, errors.Wrap(err, "could not register metrics")
	}

	return c, nil
}

func (m *metrics) observeRequest(code int, start time.Time) {
	if m == nil {
		return
	}

	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}

	m.requests.WithLabelValues(label).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}

func (m *metrics) observeCache(result string) {
	if m == nil {
		return
	}

	m.cache.WithLabelValues(result).Inc()
}
