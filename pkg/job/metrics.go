// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package job

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments the runner updates,
// exposed by cmd/translittr/serve.go over promhttp.HandlerFor on the
// app's own registry, per the
// --metrics-addr pattern the teacher's indexer exposes.
type Metrics struct {
	jobsInFlight      prometheus.Gauge
	filesTranslated   prometheus.Counter
	stringsTranslated prometheus.Counter
}

// NewMetrics registers the runner's instruments against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		jobsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "translittr_jobs_in_flight",
			Help: "Translation jobs currently running.",
		}),
		filesTranslated: f.NewCounter(prometheus.CounterOpts{
			Name: "translittr_files_translated_total",
			Help: "Files in which the job runner translated at least one string.",
		}),
		stringsTranslated: f.NewCounter(prometheus.CounterOpts{
			Name: "translittr_strings_translated_total",
			Help: "Strings successfully translated across all jobs.",
		}),
	}
}

func (r *Runner) incJobsInFlight(delta int) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.jobsInFlight.Add(float64(delta))
}

func (r *Runner) incStringsTranslated(n int) {
	if r.Metrics == nil || n == 0 {
		return
	}
	r.Metrics.filesTranslated.Inc()
	r.Metrics.stringsTranslated.Add(float64(n))
}
