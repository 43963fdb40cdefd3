// Package metrics exposes Prometheus metrics for command processing and the frame loop.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bling"

// Metrics owns a private registry so several instances can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	commands      *prometheus.CounterVec
	frames        prometheus.Counter
	renderErrors  prometheus.Counter
	activePattern *prometheus.GaugeVec
	brightness    prometheus.Gauge

	mu      sync.Mutex
	current string
}

// New registers the bling metrics plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands processed, by resulting status",
		}, []string{"status"}),
		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Animation frames flushed to the strip",
		}),
		renderErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Frames the LED transport failed to render",
		}),
		activePattern: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_pattern",
			Help:      "1 for the pattern currently driving the strip",
		}, []string{"pattern"}),
		brightness: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "brightness",
			Help:      "Current strip brightness (0-255)",
		}),
	}
}

// CommandProcessed counts one command with its status.
func (m *Metrics) CommandProcessed(status string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(status).Inc()
}

// FrameRendered counts one flushed frame.
func (m *Metrics) FrameRendered() {
	if m == nil {
		return
	}
	m.frames.Inc()
}

// RenderFailed counts one transport failure.
func (m *Metrics) RenderFailed() {
	if m == nil {
		return
	}
	m.renderErrors.Inc()
}

// SetActivePattern moves the active marker to name. An empty name clears it.
func (m *Metrics) SetActivePattern(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != "" {
		m.activePattern.DeleteLabelValues(m.current)
	}
	m.current = name
	if name != "" {
		m.activePattern.WithLabelValues(name).Set(1)
	}
}

// SetBrightness records the strip brightness.
func (m *Metrics) SetBrightness(level uint8) {
	if m == nil {
		return
	}
	m.brightness.Set(float64(level))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
