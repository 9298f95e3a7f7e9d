package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"battflex-cloud/internal/audit"
	"battflex-cloud/internal/auth"
	importer "battflex-cloud/internal/importer/application"
	"battflex-cloud/internal/observability/metrics"
)

// Handler provides the import HTTP endpoint.
type Handler struct {
	service     *importer.Service
	dataRoot    string
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewHandler constructs an import handler.
func NewHandler(service *importer.Service, dataRoot string, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("import handler: nil service")
	}
	if dataRoot == "" {
		return nil, errors.New("import handler: empty data root")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, dataRoot: dataRoot, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP handles POST /api/v1/import. The preview query flag scans
// without writing to the catalog.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	preview := r.URL.Query().Get("preview") == "true"
	started := time.Now()

	var report importer.Report
	var err error
	if preview {
		report, err = h.service.Preview(h.dataRoot)
	} else {
		report, err = h.service.Scan(r.Context(), h.dataRoot)
	}
	if err != nil {
		metrics.ObserveImport(metrics.ResultError, time.Since(started))
		metrics.IncImportError("scan")
		http.Error(w, "import scan error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveImport(metrics.ResultSuccess, time.Since(started))
	for kind, count := range report.FileCounts {
		metrics.AddImportedFiles(kind, count)
	}

	if !preview && h.auditLogger != nil {
		meta, _ := json.Marshal(report)
		entry := audit.Entry{
			Actor:        auth.SubjectFromContext(r.Context()),
			Role:         string(auth.RoleFromContext(r.Context())),
			Action:       "catalog.import",
			ResourceType: "data_root",
			ResourceID:   h.dataRoot,
			Metadata:     meta,
			IP:           r.RemoteAddr,
			UserAgent:    r.UserAgent(),
		}
		if err := h.auditLogger.Log(r.Context(), entry); err != nil {
			h.logger.Printf("audit log failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
