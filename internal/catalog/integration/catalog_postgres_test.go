package integration_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	catalog "battflex-cloud/internal/catalog/domain"
	catalogrepo "battflex-cloud/internal/catalog/infrastructure/postgres"
	kpidomain "battflex-cloud/internal/kpi/domain"
	kpirepo "battflex-cloud/internal/kpi/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestCatalog_EnsureQueryCompare(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := applyMigrations(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	ctx := context.Background()
	clientName := "Client Integration"

	_, _ = db.ExecContext(ctx, "DELETE FROM clients WHERE client_name = $1", clientName)

	repo := catalogrepo.NewRepository(db)
	kpis := kpirepo.NewRepository(db)

	clientID, err := repo.EnsureClient(ctx, clientName, "integration fixture")
	if err != nil {
		t.Fatalf("ensure client: %v", err)
	}
	again, err := repo.EnsureClient(ctx, clientName, "")
	if err != nil {
		t.Fatalf("ensure client twice: %v", err)
	}
	if again != clientID {
		t.Fatalf("client id changed on re-ensure: %d vs %d", again, clientID)
	}

	params := json.RawMessage(`{"horizon_days": 365}`)
	runID, err := repo.EnsureRun(ctx, clientID, "Run_1", clientName+"/Run_1", params)
	if err != nil {
		t.Fatalf("ensure run: %v", err)
	}

	capacity := 100.0
	power := 50.0
	baselineID, err := repo.EnsureConfig(ctx, &catalog.BatteryConfig{
		RunID:       runID,
		Name:        "0kWh",
		IsBaseline:  true,
		KPIFilePath: clientName + "/Run_1/Output/kpi_summary_0kWh.csv",
	})
	if err != nil {
		t.Fatalf("ensure baseline: %v", err)
	}
	batteryID, err := repo.EnsureConfig(ctx, &catalog.BatteryConfig{
		RunID:              runID,
		Name:               "100kWh_50kW",
		CapacityKWh:        &capacity,
		PowerKW:            &power,
		KPIFilePath:        clientName + "/Run_1/Output/kpi_summary_100kWh_50kW.csv",
		TimeseriesFilePath: clientName + "/Run_1/Output/flex_timeseries_100kWh_50kW.csv",
	})
	if err != nil {
		t.Fatalf("ensure battery config: %v", err)
	}

	for _, record := range []kpidomain.Record{
		{ConfigID: baselineID, Name: "annual_total_grid_fee_cost_ic", Value: 1000, Unit: "EUR"},
		{ConfigID: batteryID, Name: "annual_total_grid_fee_cost_ic", Value: 700, Unit: "EUR"},
		{ConfigID: batteryID, Name: "annual_battery_cycles", Value: 210},
	} {
		if err := kpis.Upsert(ctx, record); err != nil {
			t.Fatalf("upsert kpi: %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx, clientName)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Name != "Run_1" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	configs, err := repo.ListConfigs(ctx, clientName, "Run_1")
	if err != nil {
		t.Fatalf("list configs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
	if !configs[0].IsBaseline {
		t.Fatalf("expected baseline ordered first, got %+v", configs[0])
	}

	got, err := repo.GetConfig(ctx, clientName, "Run_1", "100kWh_50kW")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if got == nil || got.CapacityKWh == nil || *got.CapacityKWh != 100 {
		t.Fatalf("unexpected config: %+v", got)
	}
	missing, err := repo.GetConfig(ctx, clientName, "Run_1", "nope")
	if err != nil {
		t.Fatalf("get missing config: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing config, got %+v", missing)
	}

	records, err := kpis.Query(ctx, kpidomain.Filter{ClientName: clientName, RunName: "Run_1", KPIName: "annual_total_grid_fee_cost_ic"})
	if err != nil {
		t.Fatalf("query kpis: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 kpi rows, got %d", len(records))
	}

	comparisons, err := kpis.Compare(ctx, clientName, "Run_1", "annual_total_grid_fee_cost_ic")
	if err != nil {
		t.Fatalf("compare kpis: %v", err)
	}
	if len(comparisons) != 2 {
		t.Fatalf("expected 2 comparison rows, got %d", len(comparisons))
	}

	values, err := kpis.ValuesByConfig(ctx, batteryID)
	if err != nil {
		t.Fatalf("values by config: %v", err)
	}
	if values["annual_total_grid_fee_cost_ic"] != 700 || values["annual_battery_cycles"] != 210 {
		t.Fatalf("unexpected kpi values: %+v", values)
	}

	// Re-ensure with empty paths must not wipe the stored ones.
	if _, err := repo.EnsureConfig(ctx, &catalog.BatteryConfig{RunID: runID, Name: "100kWh_50kW"}); err != nil {
		t.Fatalf("re-ensure config: %v", err)
	}
	kept, err := repo.GetConfig(ctx, clientName, "Run_1", "100kWh_50kW")
	if err != nil {
		t.Fatalf("get config after re-ensure: %v", err)
	}
	if kept.TimeseriesFilePath == "" {
		t.Fatalf("timeseries path lost on re-ensure")
	}

	_, _ = db.ExecContext(ctx, "DELETE FROM clients WHERE client_name = $1", clientName)
}

func applyMigrations(db *sql.DB) error {
	root := projectRoot()
	files := []string{
		filepath.Join(root, "migrations", "001_catalog.sql"),
		filepath.Join(root, "migrations", "002_kpi.sql"),
		filepath.Join(root, "migrations", "003_audit.sql"),
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(content)); err != nil {
			return err
		}
	}
	return nil
}

func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Clean(filepath.Join(dir, "..", "..", ".."))
}
