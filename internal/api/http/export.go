package apihttp

import (
	"fmt"
	"net/http"
	"time"

	"battflex-cloud/internal/benefit/application"
	benefit "battflex-cloud/internal/benefit/domain"
	"battflex-cloud/internal/export"
	"battflex-cloud/internal/observability/metrics"
)

// ExportBenefitsHandler renders the benefit report in one format.
type ExportBenefitsHandler struct {
	calculator *application.Calculator
	format     string
}

// NewExportBenefitsHandler constructs an ExportBenefitsHandler for
// format "xlsx" or "pdf".
func NewExportBenefitsHandler(calculator *application.Calculator, format string) (*ExportBenefitsHandler, error) {
	if calculator == nil {
		return nil, fmt.Errorf("export handler: nil calculator")
	}
	if format != "xlsx" && format != "pdf" {
		return nil, fmt.Errorf("export handler: unsupported format %q", format)
	}
	return &ExportBenefitsHandler{calculator: calculator, format: format}, nil
}

// ServeHTTP handles GET /api/v1/exports/benefits.{xlsx,pdf}.
func (h *ExportBenefitsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.calculator == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	started := time.Now()
	clientName := r.URL.Query().Get("client_name")
	benefits, err := h.calculator.CalculateAll(r.Context(), clientName)
	if err != nil {
		metrics.ObserveExport(h.format, metrics.ResultError, time.Since(started))
		http.Error(w, "calculate benefits error", http.StatusInternalServerError)
		return
	}
	summaries := benefit.Summarize(benefits)

	var payload []byte
	var contentType string
	now := time.Now().UTC()
	switch h.format {
	case "xlsx":
		payload, err = export.BuildBenefitsXLSX(benefits, summaries, now)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = export.BuildBenefitsPDF(benefits, summaries, now)
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.ObserveExport(h.format, metrics.ResultError, time.Since(started))
		http.Error(w, "render report error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(h.format, metrics.ResultSuccess, time.Since(started))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=benefits.%s", h.format))
	_, _ = w.Write(payload)
}
