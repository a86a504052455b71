// Package metrics exposes Prometheus counters for ledger activity and runs
// the standalone metrics server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application counters, registered on a dedicated
// registry so tests can create independent instances.
type Collector struct {
	registry *prometheus.Registry

	// Operations counts every ledger and access-registry operation by name
	// and outcome (ok or error).
	Operations *prometheus.CounterVec

	// TokensMinted, TokensBurned and TokensTransferred track token churn.
	TokensMinted      prometheus.Counter
	TokensBurned      prometheus.Counter
	TokensTransferred prometheus.Counter

	// RoleGrants and RoleRevokes track access-registry churn.
	RoleGrants  prometheus.Counter
	RoleRevokes prometheus.Counter
}

// NewCollector creates and registers the application counters under the
// given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{
		registry: registry,
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome.",
		}, []string{"op", "outcome"}),
		TokensMinted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_minted_total",
			Help:      "Tokens minted.",
		}),
		TokensBurned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_burned_total",
			Help:      "Tokens burned.",
		}),
		TokensTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_transferred_total",
			Help:      "Token ownership transfers.",
		}),
		RoleGrants: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_grants_total",
			Help:      "Role grants.",
		}),
		RoleRevokes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_revokes_total",
			Help:      "Role revocations.",
		}),
	}

	registry.MustRegister(c.Operations, c.TokensMinted, c.TokensBurned,
		c.TokensTransferred, c.RoleGrants, c.RoleRevokes)
	return c
}

// RecordOperation increments the operation counter with the outcome derived
// from err.
func (c *Collector) RecordOperation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.Operations.WithLabelValues(op, outcome).Inc()
}

// MetricsServer serves /metrics on its own listen address.
type MetricsServer struct {
	srv       *http.Server
	collector *Collector
}

// New creates a metrics server for the given namespace and listen address.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	collector := NewCollector(namespace)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(collector.registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		collector: collector,
	}, nil
}

// Collector returns the application counters served by this server.
func (m *MetricsServer) Collector() *Collector {
	return m.collector
}

// ListenAndServe blocks serving /metrics until Shutdown.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
