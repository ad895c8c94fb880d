// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package metric implements Prometheus metrics
// for the calls to the external services.
package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the metrics of the resolver.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests    *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Submissions *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new set of metrics
// registered in its own registry.
func New() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "otresolver",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of requests to external services",
			},
			[]string{"service", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "otresolver",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Duration of requests to external services in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "otresolver",
				Subsystem: "reasoner",
				Name:      "submissions_total",
				Help:      "Total number of reasoning submissions by outcome",
			},
			[]string{"outcome"},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.Requests, m.Duration, m.Submissions)
	return m
}

// RecordRequest records a request to an external service.
// A status of 0 indicates a transport error.
func (m *Metrics) RecordRequest(service string, status int, d time.Duration) {
	if m == nil {
		return
	}
	st := "error"
	if status > 0 {
		st = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(service, st).Inc()
	m.Duration.WithLabelValues(service).Observe(d.Seconds())
}

// RecordSubmission records the outcome of a reasoning submission.
func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// Handler returns an HTTP handler
// that exposes the metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry of the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
