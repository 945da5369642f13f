package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Calls observes Spreedly round trips. It satisfies spreedly.Observer.
type Calls struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCalls builds the call collectors and registers them on reg when it is non-nil.
func NewCalls(reg prometheus.Registerer) (*Calls, error) {
	c := &Calls{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spreedly_requests_total",
				Help: "Spreedly API calls by method and status code (0 for transport failures).",
			}, []string{"method", "code"}),
		// Buckets grow by 50% from 5ms, covering slow gateway round trips.
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spreedly_request_duration_milliseconds",
				Help:    "Spreedly API call duration distribution",
				Buckets: prometheus.ExponentialBuckets(5, 1.5, 20),
			}, []string{"method"}),
	}
	if reg != nil {
		for _, col := range []prometheus.Collector{c.requests, c.duration} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// ObserveCall records one completed call.
func (c *Calls) ObserveCall(method string, statusCode int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.duration.WithLabelValues(method).Observe(float64(elapsed) / float64(time.Millisecond))
}
