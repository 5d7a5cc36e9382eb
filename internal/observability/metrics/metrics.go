package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "odcv_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	datasetRecords   prometheus.Counter
	datasetUploads   *prometheus.CounterVec
	analysisRuns     *prometheus.CounterVec
	analysisLatency  *prometheus.HistogramVec
	violationsTotal  *prometheus.CounterVec
	reportExports    *prometheus.CounterVec
	reportExportsLat *prometheus.HistogramVec
)

// Init registers engine metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		datasetRecords = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "dataset_records_total",
				Help: "Total raw records accepted into datasets",
			},
		)
		datasetUploads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dataset_uploads_total",
				Help: "Total dataset uploads by result",
			},
			[]string{"result"},
		)
		analysisRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analysis_runs_total",
				Help: "Total analysis runs by result",
			},
			[]string{"result"},
		)
		analysisLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "analysis_run_latency_seconds",
				Help:    "Analysis run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		violationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "violations_detected_total",
				Help: "Total timing violations detected by kind",
			},
			[]string{"kind"},
		)
		reportExports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_exports_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportsLat = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			datasetRecords,
			datasetUploads,
			analysisRuns,
			analysisLatency,
			violationsTotal,
			reportExports,
			reportExportsLat,
		)
	})
}

// AddDatasetRecords counts accepted raw records.
func AddDatasetRecords(n int) {
	if datasetRecords != nil && n > 0 {
		datasetRecords.Add(float64(n))
	}
}

// IncDatasetUpload counts one upload by result.
func IncDatasetUpload(result string) {
	if datasetUploads != nil {
		datasetUploads.WithLabelValues(result).Inc()
	}
}

// ObserveAnalysisRun records one run's result and latency.
func ObserveAnalysisRun(result string, elapsed time.Duration) {
	if analysisRuns != nil {
		analysisRuns.WithLabelValues(result).Inc()
	}
	if analysisLatency != nil {
		analysisLatency.WithLabelValues(result).Observe(elapsed.Seconds())
	}
}

// AddViolations counts detected violations by kind.
func AddViolations(kind string, n int) {
	if violationsTotal != nil && n > 0 {
		violationsTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveReportExport records one export by format and result.
func ObserveReportExport(format, result string, elapsed time.Duration) {
	if reportExports != nil {
		reportExports.WithLabelValues(format, result).Inc()
	}
	if reportExportsLat != nil {
		reportExportsLat.WithLabelValues(format, result).Observe(elapsed.Seconds())
	}
}
