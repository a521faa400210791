// Package metrics exposes Prometheus collectors for evaluations and detections.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the service metrics. A nil *Collectors is valid and records nothing.
type Collectors struct {
	Evaluations       *prometheus.CounterVec
	DetectionDuration *prometheus.HistogramVec
	DetectionErrors   *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
}

// New creates collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photo_framer",
			Name:      "evaluations_total",
			Help:      "Face acceptance evaluations by face count, centering and size status.",
		}, []string{"face_count", "centered", "size"}),
		DetectionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "photo_framer",
			Name:      "detection_duration_seconds",
			Help:      "Face detection latency per backend.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"backend"}),
		DetectionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photo_framer",
			Name:      "detection_errors_total",
			Help:      "Failed model loads and detections per backend.",
		}, []string{"backend"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "photo_framer",
			Name:      "active_sessions",
			Help:      "Open editing sessions.",
		}),
	}
	reg.MustRegister(c.Evaluations, c.DetectionDuration, c.DetectionErrors, c.ActiveSessions)
	return c
}

// ObserveEvaluation counts a verdict.
func (c *Collectors) ObserveEvaluation(faceCount, centered, size string) {
	if c == nil {
		return
	}
	c.Evaluations.WithLabelValues(faceCount, centered, size).Inc()
}

// ObserveDetection records a detection call.
func (c *Collectors) ObserveDetection(backend string, took time.Duration, err error) {
	if c == nil {
		return
	}
	c.DetectionDuration.WithLabelValues(backend).Observe(took.Seconds())
	if err != nil {
		c.DetectionErrors.WithLabelValues(backend).Inc()
	}
}

// SessionOpened increments the active session gauge.
func (c *Collectors) SessionOpened() {
	if c == nil {
		return
	}
	c.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (c *Collectors) SessionClosed() {
	if c == nil {
		return
	}
	c.ActiveSessions.Dec()
}
