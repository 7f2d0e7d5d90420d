package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	IngestRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "seed_records_total",
		Help: "Количество обработанных записей фикстур",
	}, []string{"domain", "outcome"})

	IngestRunSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seed_run_duration_seconds",
		Help:    "Длительность запуска загрузки",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"status"})

	IngestLastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "seed_last_success_timestamp_seconds",
		Help: "Время последнего успешного запуска загрузки",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		IngestRecordsTotal,
		IngestRunSeconds,
		IngestLastSuccess,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveRecord учитывает результат обработки записи фикстуры.
func ObserveRecord(domain, outcome string) {
	IngestRecordsTotal.WithLabelValues(domain, outcome).Inc()
}

// ObserveRun записывает длительность запуска.
func ObserveRun(start time.Time, err error) {
	status := "committed"
	if err != nil {
		status = "failed"
	}
	IngestRunSeconds.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if err == nil {
		IngestLastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile сохраняет метрики в формате textfile-коллектора node_exporter.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, gatherer)
}
