package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "catalog_clients",
			Help: "Cataloged clients",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM clients")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "catalog_runs",
			Help: "Cataloged simulation runs",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM runs")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "catalog_configs",
			Help: "Cataloged battery configurations",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM battery_configs")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "kpi_values",
			Help: "Stored KPI values",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM kpi_summary")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
