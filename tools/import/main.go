package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	catalogrepo "battflex-cloud/internal/catalog/infrastructure/postgres"
	importer "battflex-cloud/internal/importer/application"
	kpirepo "battflex-cloud/internal/kpi/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	dbURL := pflag.String("db", os.Getenv("DATABASE_URL"), "postgres connection string")
	root := pflag.String("root", "", "data root to scan (defaults to importer config)")
	flexSubfolder := pflag.String("flex-subfolder", "", "flex offer subfolder name override")
	preview := pflag.Bool("preview", false, "scan without writing to the catalog")
	flexCases := pflag.Bool("flex-cases", false, "list clients keeping runs under the flex subfolder")
	pflag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := importer.LoadConfig()
	if err != nil {
		logger.Fatalf("importer config error: %v", err)
	}
	if *root != "" {
		cfg.DataRoot = *root
	}
	if *flexSubfolder != "" {
		cfg.FlexSubfolder = *flexSubfolder
	}

	if *dbURL == "" {
		logger.Fatal("--db or DATABASE_URL is required")
	}
	db, err := sql.Open("pgx", *dbURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	service, err := importer.NewService(catalogrepo.NewRepository(db), kpirepo.NewRepository(db), cfg, logger)
	if err != nil {
		logger.Fatalf("import service error: %v", err)
	}

	if *flexCases {
		cases, err := service.FindFlexCases(cfg.DataRoot)
		if err != nil {
			logger.Fatalf("flex case discovery error: %v", err)
		}
		out, err := json.MarshalIndent(cases, "", "  ")
		if err != nil {
			logger.Fatalf("encode flex cases error: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	var report importer.Report
	if *preview {
		report, err = service.Preview(cfg.DataRoot)
		if err != nil {
			logger.Fatalf("preview error: %v", err)
		}
	} else {
		report, err = service.Scan(context.Background(), cfg.DataRoot)
		if err != nil {
			logger.Fatalf("scan error: %v", err)
		}
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatalf("encode report error: %v", err)
	}
	fmt.Println(string(out))
}
