// Package metrics holds the store's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Mutations  *prometheus.CounterVec
	TreeLen    prometheus.Gauge
	TreeHeight prometheus.Gauge
	Snapshots  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rbkv",
			Name:      "mutations_total",
			Help:      "Applied mutations by operation.",
		}, []string{"op"}),
		TreeLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rbkv",
			Name:      "tree_len",
			Help:      "Number of keys in the tree.",
		}),
		TreeHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rbkv",
			Name:      "tree_height",
			Help:      "Nodes on the longest root-to-leaf path.",
		}),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rbkv",
			Name:      "snapshots_total",
			Help:      "Snapshots written.",
		}),
	}
	m.registry.MustRegister(m.Mutations, m.TreeLen, m.TreeHeight, m.Snapshots)
	return m
}

// Observe records one applied mutation and the resulting tree shape.
func (m *Metrics) Observe(op string, length, height int) {
	m.Mutations.WithLabelValues(op).Inc()
	m.TreeLen.Set(float64(length))
	m.TreeHeight.Set(float64(height))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
