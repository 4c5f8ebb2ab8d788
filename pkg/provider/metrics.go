// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments the fallback Chain updates
// as it dispatches batches, exposed by cmd/translittr/serve.go over
// promhttp.HandlerFor on the app's own registry.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	cooldownTotal *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
}

// NewMetrics registers the Chain's instruments against reg. Passing
// prometheus.NewRegistry() keeps instruments scoped to one process's
// test run; passing prometheus.DefaultRegisterer wires them into the
// global /metrics endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "translittr_provider_requests_total",
			Help: "Translation provider batch calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		cooldownTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "translittr_provider_cooldowns_total",
			Help: "Times a provider entered its rate-limit cooldown window.",
		}, []string{"provider"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "translittr_cache_hits_total",
			Help: "Translation cache lookups resolved without calling a provider.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "translittr_cache_misses_total",
			Help: "Translation cache lookups that required a provider call.",
		}),
	}
}
