/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package metrics holds the Prometheus collectors for export runs and the photo server.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fanzine"

var (
	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export runs by format and result (ok, failed)",
		},
		[]string{"format", "result"},
	)

	exportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Duration of export runs by format",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"format"},
	)

	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Uploaded photos by result (stored, rejected)",
		},
		[]string{"result"},
	)

	cleanupRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_cleanup_removed_total",
			Help:      "Photos removed by the retention cleanup",
		},
	)

	registerOnce sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(exportsTotal, exportDuration, uploadsTotal, cleanupRemoved)
	})
}

// Handler returns the http.Handler for /metrics.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveExport records one finished export.
func ObserveExport(format string, err error, dur time.Duration) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	exportsTotal.WithLabelValues(format, result).Inc()
	exportDuration.WithLabelValues(format).Observe(dur.Seconds())
}

func IncUpload(stored bool) {
	if stored {
		uploadsTotal.WithLabelValues("stored").Inc()
		return
	}
	uploadsTotal.WithLabelValues("rejected").Inc()
}

func AddCleanupRemoved(n int) {
	if n > 0 {
		cleanupRemoved.Add(float64(n))
	}
}
