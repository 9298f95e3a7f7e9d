package apihttp

import (
	"errors"
	"io"
	"net/http"
	"time"

	"battflex-cloud/internal/catalog/infrastructure/postgres"
	"battflex-cloud/internal/observability/metrics"
	"battflex-cloud/internal/profile"
	"battflex-cloud/internal/timeseries"
)

const maxPreviewBody = 32 << 20

// ProfilePreviewHandler folds an uploaded raw CSV body into an average
// week without touching the catalog.
type ProfilePreviewHandler struct{}

// NewProfilePreviewHandler constructs a ProfilePreviewHandler.
func NewProfilePreviewHandler() *ProfilePreviewHandler {
	return &ProfilePreviewHandler{}
}

// ServeHTTP handles POST /api/v1/profile/preview.
func (h *ProfilePreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPreviewBody+1))
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	if len(body) > maxPreviewBody {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}

	started := time.Now()
	points := profile.ParseRawSeries(string(body))
	metrics.ObserveQuery("profile_preview", metrics.ResultSuccess, time.Since(started))
	metrics.SetProfilePoints(len(points))
	respondJSON(w, points)
}

// ProfileWeekHandler folds a registered timeseries file into an average
// week for one configuration.
type ProfileWeekHandler struct {
	catalog *postgres.Repository
	reader  *timeseries.Reader
}

// NewProfileWeekHandler constructs a ProfileWeekHandler.
func NewProfileWeekHandler(catalog *postgres.Repository, reader *timeseries.Reader) *ProfileWeekHandler {
	return &ProfileWeekHandler{catalog: catalog, reader: reader}
}

// ServeHTTP handles GET /api/v1/profile/week.
func (h *ProfileWeekHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
		metrics.ObserveQuery("profile_week", metrics.ResultError, time.Since(started))
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
		metrics.ObserveQuery("profile_week", metrics.ResultError, time.Since(started))
		if errors.Is(err, timeseries.ErrPathOutsideRoot) {
			http.Error(w, "invalid timeseries path", http.StatusBadRequest)
			return
		}
		http.Error(w, "read timeseries error", http.StatusInternalServerError)
		return
	}

	points := profile.ParseStructuredSeries(rows)
	metrics.ObserveQuery("profile_week", metrics.ResultSuccess, time.Since(started))
	metrics.SetProfilePoints(len(points))
	respondJSON(w, points)
}
