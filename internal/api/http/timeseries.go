package apihttp

import (
	"errors"
	"net/http"
	"time"

	"battflex-cloud/internal/catalog/infrastructure/postgres"
	"battflex-cloud/internal/observability/metrics"
	"battflex-cloud/internal/timeseries"
)

// TimeseriesHandler serves raw timeseries rows for one configuration.
type TimeseriesHandler struct {
	catalog *postgres.Repository
	reader  *timeseries.Reader
}

// NewTimeseriesHandler constructs a TimeseriesHandler.
func NewTimeseriesHandler(catalog *postgres.Repository, reader *timeseries.Reader) *TimeseriesHandler {
	return &TimeseriesHandler{catalog: catalog, reader: reader}
}

// ServeHTTP handles GET /api/v1/timeseries.
func (h *TimeseriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.catalog == nil || h.reader == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	clientName := query.Get("client_name")
	runName := query.Get("run_name")
	configName := query.Get("config_name")
	if clientName == "" || runName == "" || configName == "" {
		http.Error(w, "client_name, run_name and config_name are required", http.StatusBadRequest)
		return
	}

	started := time.Now()
	config, err := h.catalog.GetConfig(r.Context(), clientName, runName, configName)
	if err != nil {
		metrics.ObserveQuery("timeseries", metrics.ResultError, time.Since(started))
		http.Error(w, "query config error", http.StatusInternalServerError)
		return
	}
	if config == nil {
		http.Error(w, "config not found", http.StatusNotFound)
		return
	}
	if config.TimeseriesFilePath == "" {
		http.Error(w, "config has no timeseries file", http.StatusNotFound)
		return
	}

	rows, err := h.reader.ReadRows(config.TimeseriesFilePath)
	if err != nil {
		metrics.ObserveQuery("timeseries", metrics.ResultError, time.Since(started))
		if errors.Is(err, timeseries.ErrPathOutsideRoot) {
			http.Error(w, "invalid timeseries path", http.StatusBadRequest)
			return
		}
		http.Error(w, "read timeseries error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveQuery("timeseries", metrics.ResultSuccess, time.Since(started))
	respondJSON(w, rows)
}
