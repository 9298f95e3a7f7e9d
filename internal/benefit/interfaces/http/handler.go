package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"battflex-cloud/internal/audit"
	"battflex-cloud/internal/auth"
	benefitapp "battflex-cloud/internal/benefit/application"
	benefit "battflex-cloud/internal/benefit/domain"
	"battflex-cloud/internal/observability/metrics"
)

// Handler provides benefit HTTP endpoints.
type Handler struct {
	calculator  *benefitapp.Calculator
	kpiWriter   benefitapp.KPIWriter
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewHandler constructs a benefit handler.
func NewHandler(calculator *benefitapp.Calculator, kpiWriter benefitapp.KPIWriter, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if calculator == nil {
		return nil, errors.New("benefit handler: nil calculator")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{calculator: calculator, kpiWriter: kpiWriter, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP routes benefit endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/benefits":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleBenefits(w, r)
	case "/api/v1/benefit-summary":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleSummary(w, r)
	case "/api/v1/recalculate-benefits":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleRecalculate(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleBenefits(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	clientName := r.URL.Query().Get("client_name")
	runName := r.URL.Query().Get("run_name")

	var benefits []benefit.Benefit
	var err error
	if runName != "" {
		if clientName == "" {
			http.Error(w, "client_name is required with run_name", http.StatusBadRequest)
			return
		}
		benefits, err = h.calculator.CalculateForRun(r.Context(), clientName, runName)
	} else {
		benefits, err = h.calculator.CalculateAll(r.Context(), clientName)
	}
	if err != nil {
		metrics.ObserveQuery("benefits", metrics.ResultError, time.Since(started))
		http.Error(w, "calculate benefits error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveQuery("benefits", metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(benefits)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	clientName := r.URL.Query().Get("client_name")
	benefits, err := h.calculator.CalculateAll(r.Context(), clientName)
	if err != nil {
		metrics.ObserveQuery("benefit_summary", metrics.ResultError, time.Since(started))
		http.Error(w, "calculate benefits error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveQuery("benefit_summary", metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(benefit.Summarize(benefits))
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	if h.kpiWriter == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	started := time.Now()
	clientName := r.URL.Query().Get("client_name")
	saved, err := h.calculator.SaveAsKPIs(r.Context(), clientName, h.kpiWriter)
	if err != nil {
		metrics.ObserveBenefitRecalc(metrics.ResultError, time.Since(started))
		http.Error(w, "recalculate benefits error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveBenefitRecalc(metrics.ResultSuccess, time.Since(started))

	if h.auditLogger != nil {
		meta, _ := json.Marshal(map[string]any{"client_name": clientName, "saved": saved})
		entry := audit.Entry{
			Actor:        auth.SubjectFromContext(r.Context()),
			Role:         string(auth.RoleFromContext(r.Context())),
			Action:       "benefits.recalculate",
			ResourceType: "client",
			ResourceID:   clientName,
			Metadata:     meta,
			IP:           r.RemoteAddr,
			UserAgent:    r.UserAgent(),
		}
		if err := h.auditLogger.Log(r.Context(), entry); err != nil {
			h.logger.Printf("audit log failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"saved": saved})
}
