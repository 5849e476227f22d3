// Package metrics exposes broadcast progress and delivery counters to
// Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matchcast"

// Metrics holds every collector the broadcaster updates. A nil *Metrics is
// valid and discards all updates, which keeps tests free of registries.
type Metrics struct {
	registry *prometheus.Registry

	currentStep   prometheus.Gauge
	stepCount     prometheus.Gauge
	state         prometheus.Gauge
	subscribers   prometheus.Gauge
	attaches      prometheus.Counter
	framesSent    *prometheus.CounterVec
	deliveryFails prometheus.Counter
}

// New creates the collectors on a dedicated registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		currentStep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_step",
			Help:      "Step currently being broadcast.",
		}),
		stepCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "step_count",
			Help:      "Number of steps in the loaded match.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playback_state",
			Help:      "Pacer state: 0 idle, 1 running, 2 done.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Currently attached viewers.",
		}),
		attaches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attaches_total",
			Help:      "Viewers attached since start.",
		}),
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Frames delivered to viewers, by kind.",
		}, []string{"kind"}),
		deliveryFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Viewers dropped because a send failed.",
		}),
	}

	m.registry.MustRegister(
		m.currentStep,
		m.stepCount,
		m.state,
		m.subscribers,
		m.attaches,
		m.framesSent,
		m.deliveryFails,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SetStep(step int) {
	if m == nil {
		return
	}
	m.currentStep.Set(float64(step))
}

func (m *Metrics) SetStepCount(n int) {
	if m == nil {
		return
	}
	m.stepCount.Set(float64(n))
}

func (m *Metrics) SetState(state int) {
	if m == nil {
		return
	}
	m.state.Set(float64(state))
}

// SubscriberAttached counts an attach and bumps the live gauge.
func (m *Metrics) SubscriberAttached() {
	if m == nil {
		return
	}
	m.attaches.Inc()
	m.subscribers.Inc()
}

func (m *Metrics) SubscriberDetached() {
	if m == nil {
		return
	}
	m.subscribers.Dec()
}

func (m *Metrics) FrameSent(kind string) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) DeliveryFailed() {
	if m == nil {
		return
	}
	m.deliveryFails.Inc()
}
