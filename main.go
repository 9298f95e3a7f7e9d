package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	apihttp "battflex-cloud/internal/api/http"
	"battflex-cloud/internal/audit"
	"battflex-cloud/internal/auth"
	benefitapp "battflex-cloud/internal/benefit/application"
	benefithttp "battflex-cloud/internal/benefit/interfaces/http"
	catalogrepo "battflex-cloud/internal/catalog/infrastructure/postgres"
	importer "battflex-cloud/internal/importer/application"
	importerhttp "battflex-cloud/internal/importer/interfaces/http"
	kpirepo "battflex-cloud/internal/kpi/infrastructure/postgres"
	"battflex-cloud/internal/observability/metrics"
	"battflex-cloud/internal/timeseries"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	catalogRepo := catalogrepo.NewRepository(db)
	kpiRepo := kpirepo.NewRepository(db)
	reader := timeseries.NewReader(cfg.Importer.DataRoot)

	importService, err := importer.NewService(catalogRepo, kpiRepo, cfg.Importer, logger)
	if err != nil {
		logger.Fatalf("import service error: %v", err)
	}
	importHandler, err := importerhttp.NewHandler(importService, cfg.Importer.DataRoot, auditRepo, logger)
	if err != nil {
		logger.Fatalf("import handler error: %v", err)
	}

	calculator, err := benefitapp.NewCalculator(catalogRepo, kpiRepo, logger)
	if err != nil {
		logger.Fatalf("benefit calculator error: %v", err)
	}
	benefitHandler, err := benefithttp.NewHandler(calculator, kpiRepo, auditRepo, logger)
	if err != nil {
		logger.Fatalf("benefit handler error: %v", err)
	}
	exportXLSX, err := apihttp.NewExportBenefitsHandler(calculator, "xlsx")
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}
	exportPDF, err := apihttp.NewExportBenefitsHandler(calculator, "pdf")
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}

	if interval := cfg.Importer.Rescan(); interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				started := time.Now()
				report, err := importService.Scan(context.Background(), cfg.Importer.DataRoot)
				if err != nil {
					metrics.ObserveImport(metrics.ResultError, time.Since(started))
					metrics.IncImportError("rescan")
					logger.Printf("rescan error: %v", err)
					continue
				}
				metrics.ObserveImport(metrics.ResultSuccess, time.Since(started))
				logger.Printf("rescan done: clients=%d runs=%d configs=%d kpis=%d",
					report.Clients, report.Runs, report.Configs, report.KPIValues)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/clients", apihttp.NewClientsHandler(catalogRepo))
	mux.Handle("/api/v1/runs", apihttp.NewRunsHandler(catalogRepo))
	mux.Handle("/api/v1/configs", apihttp.NewConfigsHandler(catalogRepo))
	mux.Handle("/api/v1/kpis", apihttp.NewKPIsHandler(kpiRepo))
	mux.Handle("/api/v1/compare", apihttp.NewCompareHandler(kpiRepo))
	mux.Handle("/api/v1/timeseries", apihttp.NewTimeseriesHandler(catalogRepo, reader))
	mux.Handle("/api/v1/profile/week", apihttp.NewProfileWeekHandler(catalogRepo, reader))
	mux.Handle("/api/v1/profile/preview", apihttp.NewProfilePreviewHandler())
	mux.Handle("/api/v1/benefits", benefitHandler)
	mux.Handle("/api/v1/benefit-summary", benefitHandler)
	mux.Handle("/api/v1/recalculate-benefits", benefitHandler)
	mux.Handle("/api/v1/import", importHandler)
	mux.Handle("/api/v1/exports/benefits.xlsx", exportXLSX)
	mux.Handle("/api/v1/exports/benefits.pdf", exportPDF)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var handler http.Handler = mux
	if cfg.JWTSecret != "" {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
		handler = auth.NewMiddleware([]byte(cfg.JWTSecret), policy).Wrap(mux)
	} else {
		logger.Printf("AUTH_JWT_SECRET not set, serving without auth")
	}

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(handler, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	Importer    importer.Config
}

func loadConfig() config {
	importerCfg, err := importer.LoadConfig()
	if err != nil {
		log.Fatalf("importer config error: %v", err)
	}
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		Importer:    importerCfg,
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
