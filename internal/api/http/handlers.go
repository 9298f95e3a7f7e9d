package apihttp

import (
	"encoding/json"
	"net/http"
	"time"

	"battflex-cloud/internal/catalog/infrastructure/postgres"
	kpidomain "battflex-cloud/internal/kpi/domain"
	kpipg "battflex-cloud/internal/kpi/infrastructure/postgres"
	"battflex-cloud/internal/observability/metrics"
)

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// ClientsHandler serves the client catalog.
type ClientsHandler struct {
	repo *postgres.Repository
}

// NewClientsHandler constructs a ClientsHandler.
func NewClientsHandler(repo *postgres.Repository) *ClientsHandler {
	return &ClientsHandler{repo: repo}
}

// ServeHTTP handles GET /api/v1/clients.
func (h *ClientsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.repo == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	started := time.Now()
	clients, err := h.repo.ListClients(r.Context())
	if err != nil {
		metrics.ObserveQuery("clients", metrics.ResultError, time.Since(started))
		http.Error(w, "query clients error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveQuery("clients", metrics.ResultSuccess, time.Since(started))
	respondJSON(w, clients)
}

// RunsHandler serves simulation runs, optionally filtered by client.
type RunsHandler struct {
	repo *postgres.Repository
}

// NewRunsHandler constructs a RunsHandler.
func NewRunsHandler(repo *postgres.Repository) *RunsHandler {
	return &RunsHandler{repo: repo}
}

// ServeHTTP handles GET /api/v1/runs.
func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.repo == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	started := time.Now()
	clientName := r.URL.Query().Get("client_name")
	runs, err := h.repo.ListRuns(r.Context(), clientName)
	if err != nil {
		metrics.ObserveQuery("runs", metrics.ResultError, time.Since(started))
		http.Error(w, "query runs error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveQuery("runs", metrics.ResultSuccess, time.Since(started))
	respondJSON(w, runs)
}

// ConfigsHandler serves battery configurations for a run.
type ConfigsHandler struct {
	repo *postgres.Repository
}

// NewConfigsHandler constructs a ConfigsHandler.
func NewConfigsHandler(repo *postgres.Repository) *ConfigsHandler {
	return &ConfigsHandler{repo: repo}
}

// ServeHTTP handles GET /api/v1/configs.
func (h *ConfigsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.repo == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	clientName := r.URL.Query().Get("client_name")
	runName := r.URL.Query().Get("run_name")
	if clientName == "" || runName == "" {
		http.Error(w, "client_name and run_name are required", http.StatusBadRequest)
		return
	}

	started := time.Now()
	configs, err := h.repo.ListConfigs(r.Context(), clientName, runName)
	if err != nil {
		metrics.ObserveQuery("configs", metrics.ResultError, time.Since(started))
		http.Error(w, "query configs error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveQuery("configs", metrics.ResultSuccess, time.Since(started))
	respondJSON(w, configs)
}

// KPIsHandler serves KPI values filtered by catalog context.
type KPIsHandler struct {
	repo *kpipg.Repository
}

// NewKPIsHandler constructs a KPIsHandler.
func NewKPIsHandler(repo *kpipg.Repository) *KPIsHandler {
	return &KPIsHandler{repo: repo}
}

// ServeHTTP handles GET /api/v1/kpis.
func (h *KPIsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.repo == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	filter := kpidomain.Filter{
		ClientName: query.Get("client_name"),
		RunName:    query.Get("run_name"),
		ConfigName: query.Get("config_name"),
		KPIName:    query.Get("kpi_name"),
	}
	if filter.ClientName == "" || filter.RunName == "" {
		http.Error(w, "client_name and run_name are required", http.StatusBadRequest)
		return
	}

	started := time.Now()
	records, err := h.repo.Query(r.Context(), filter)
	if err != nil {
		metrics.ObserveQuery("kpis", metrics.ResultError, time.Since(started))
		http.Error(w, "query kpis error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveQuery("kpis", metrics.ResultSuccess, time.Since(started))
	respondJSON(w, records)
}

// CompareHandler serves one KPI across configurations of one run.
type CompareHandler struct {
	repo *kpipg.Repository
}

// NewCompareHandler constructs a CompareHandler.
func NewCompareHandler(repo *kpipg.Repository) *CompareHandler {
	return &CompareHandler{repo: repo}
}

// ServeHTTP handles GET /api/v1/compare.
func (h *CompareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.repo == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	clientName := query.Get("client_name")
	runName := query.Get("run_name")
	kpiName := query.Get("kpi_name")
	if clientName == "" || runName == "" {
		http.Error(w, "client_name and run_name are required", http.StatusBadRequest)
		return
	}

	started := time.Now()
	rows, err := h.repo.Compare(r.Context(), clientName, runName, kpiName)
	if err != nil {
		metrics.ObserveQuery("compare", metrics.ResultError, time.Since(started))
		http.Error(w, "query compare error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveQuery("compare", metrics.ResultSuccess, time.Since(started))
	respondJSON(w, rows)
}
