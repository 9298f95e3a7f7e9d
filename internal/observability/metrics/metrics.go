package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "battflex_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	importRuns    *prometheus.CounterVec
	importErrors  *prometheus.CounterVec
	importLatency *prometheus.HistogramVec
	importedFiles *prometheus.CounterVec

	queryRequests *prometheus.CounterVec
	queryLatency  *prometheus.HistogramVec

	benefitRecalcTotal   *prometheus.CounterVec
	benefitRecalcLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	profilePoints prometheus.Gauge
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		importRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_runs_total",
				Help: "Total import scans by result",
			},
			[]string{"result"},
		)
		importErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_errors_total",
				Help: "Total import errors by reason",
			},
			[]string{"reason"},
		)
		importLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "import_latency_seconds",
				Help:    "Import scan latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		importedFiles = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "imported_files_total",
				Help: "Total imported result files by kind",
			},
			[]string{"kind"},
		)

		queryRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_requests_total",
				Help: "Total query endpoint requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Query endpoint latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "result"},
		)

		benefitRecalcTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "benefit_recalc_total",
				Help: "Total benefit recalculations by result",
			},
			[]string{"result"},
		)
		benefitRecalcLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "benefit_recalc_latency_seconds",
				Help:    "Benefit recalculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		profilePoints = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "profile_points",
				Help: "Points in the last computed week profile",
			},
		)

		prometheus.MustRegister(
			importRuns,
			importErrors,
			importLatency,
			importedFiles,
			queryRequests,
			queryLatency,
			benefitRecalcTotal,
			benefitRecalcLatency,
			exportTotal,
			exportLatency,
			profilePoints,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveImport records import scan duration and result.
func ObserveImport(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if importRuns != nil {
		importRuns.WithLabelValues(result).Inc()
	}
	if importLatency != nil {
		importLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncImportError increments import error counter.
func IncImportError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if importErrors != nil {
		importErrors.WithLabelValues(reason).Inc()
	}
}

// AddImportedFiles increments imported-file counters by count.
func AddImportedFiles(kind string, count int) {
	if count <= 0 {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	if importedFiles != nil {
		importedFiles.WithLabelValues(kind).Add(float64(count))
	}
}

// ObserveQuery records query endpoint latency and result.
func ObserveQuery(endpoint, result string, duration time.Duration) {
	if endpoint == "" {
		endpoint = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if queryRequests != nil {
		queryRequests.WithLabelValues(endpoint, result).Inc()
	}
	if queryLatency != nil {
		queryLatency.WithLabelValues(endpoint, result).Observe(duration.Seconds())
	}
}

// ObserveBenefitRecalc records benefit recalculation latency and result.
func ObserveBenefitRecalc(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if benefitRecalcTotal != nil {
		benefitRecalcTotal.WithLabelValues(result).Inc()
	}
	if benefitRecalcLatency != nil {
		benefitRecalcLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records report export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// SetProfilePoints records the size of the last computed week profile.
func SetProfilePoints(count int) {
	if count < 0 {
		count = 0
	}
	if profilePoints != nil {
		profilePoints.Set(float64(count))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
