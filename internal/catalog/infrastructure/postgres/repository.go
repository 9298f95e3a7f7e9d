package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	catalog "battflex-cloud/internal/catalog/domain"
)

// Repository is the Postgres implementation of the catalog store.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a catalog repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureClient inserts the client if missing and returns its id.
func (r *Repository) EnsureClient(ctx context.Context, name, description string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("catalog repo: nil db")
	}
	if name == "" {
		return 0, errors.New("catalog repo: empty client name")
	}

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO clients (client_name, description)
VALUES ($1, $2)
ON CONFLICT (client_name) DO NOTHING`, name, nullString(description)); err != nil {
		return 0, err
	}

	var id int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT client_id FROM clients WHERE client_name = $1`, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// EnsureRun inserts the run if missing, keyed by (client, run name), and
// returns its id. The folder path records where the run lives on disk.
func (r *Repository) EnsureRun(ctx context.Context, clientID int64, name, folderPath string, inputParameters json.RawMessage) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("catalog repo: nil db")
	}
	if clientID == 0 || name == "" {
		return 0, errors.New("catalog repo: invalid run")
	}

	params := any(nil)
	if len(inputParameters) > 0 {
		params = []byte(inputParameters)
	}
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO runs (client_id, run_name, input_parameters, folder_path)
VALUES ($1, $2, $3, $4)
ON CONFLICT (client_id, run_name) DO UPDATE SET
	input_parameters = COALESCE(EXCLUDED.input_parameters, runs.input_parameters),
	folder_path = EXCLUDED.folder_path`, clientID, name, params, folderPath); err != nil {
		return 0, err
	}

	var id int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT run_id FROM runs WHERE client_id = $1 AND run_name = $2`, clientID, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// EnsureConfig upserts a battery configuration and returns its id.
func (r *Repository) EnsureConfig(ctx context.Context, config *catalog.BatteryConfig) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("catalog repo: nil db")
	}
	if err := config.Validate(); err != nil {
		return 0, err
	}

	otherParams := any(nil)
	if len(config.OtherParams) > 0 {
		otherParams = []byte(config.OtherParams)
	}
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO battery_configs (
	run_id, config_name, is_baseline, battery_capacity_kwh,
	battery_power_kw, battery_efficiency, other_params,
	kpi_file_path, timeseries_file_path
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9
)
ON CONFLICT (run_id, config_name) DO UPDATE SET
	is_baseline = EXCLUDED.is_baseline,
	battery_capacity_kwh = EXCLUDED.battery_capacity_kwh,
	battery_power_kw = EXCLUDED.battery_power_kw,
	kpi_file_path = COALESCE(EXCLUDED.kpi_file_path, battery_configs.kpi_file_path),
	timeseries_file_path = COALESCE(EXCLUDED.timeseries_file_path, battery_configs.timeseries_file_path)`,
		config.RunID,
		config.Name,
		config.IsBaseline,
		nullFloat(config.CapacityKWh),
		nullFloat(config.PowerKW),
		nullFloat(config.Efficiency),
		otherParams,
		nullString(config.KPIFilePath),
		nullString(config.TimeseriesFilePath),
	); err != nil {
		return 0, err
	}

	var id int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT config_id FROM battery_configs WHERE run_id = $1 AND config_name = $2`,
		config.RunID, config.Name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ListClients returns all clients ordered by name.
func (r *Repository) ListClients(ctx context.Context) ([]catalog.Client, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("catalog repo: nil db")
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT client_id, client_name, COALESCE(description, ''), created_at
FROM clients
ORDER BY client_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []catalog.Client{}
	for rows.Next() {
		var client catalog.Client
		if err := rows.Scan(&client.ID, &client.Name, &client.Description, &client.CreatedAt); err != nil {
			return nil, err
		}
		client.CreatedAt = client.CreatedAt.UTC()
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// ListRuns returns runs joined with their client, optionally filtered by
// client name.
func (r *Repository) ListRuns(ctx context.Context, clientName string) ([]catalog.Run, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("catalog repo: nil db")
	}

	query := `
SELECT r.run_id, r.client_id, c.client_name, r.run_name,
	COALESCE(r.run_description, ''), r.run_date, r.input_parameters,
	COALESCE(r.folder_path, ''), r.created_at
FROM runs r
JOIN clients c ON r.client_id = c.client_id`
	args := []any{}
	if clientName != "" {
		query += ` WHERE c.client_name = $1`
		args = append(args, clientName)
	}
	query += ` ORDER BY c.client_name, r.run_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []catalog.Run{}
	for rows.Next() {
		var run catalog.Run
		var runDate sql.NullTime
		var params []byte
		if err := rows.Scan(&run.ID, &run.ClientID, &run.ClientName, &run.Name,
			&run.Description, &runDate, &params, &run.FolderPath, &run.CreatedAt); err != nil {
			return nil, err
		}
		if runDate.Valid {
			t := runDate.Time.UTC()
			run.RunDate = &t
		}
		if len(params) > 0 {
			run.InputParameters = json.RawMessage(params)
		}
		run.CreatedAt = run.CreatedAt.UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListConfigs returns battery configurations for a run, baseline first,
// then by ascending capacity.
func (r *Repository) ListConfigs(ctx context.Context, clientName, runName string) ([]catalog.BatteryConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("catalog repo: nil db")
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT bc.config_id, bc.run_id, c.client_name, r.run_name, bc.config_name,
	bc.is_baseline, bc.battery_capacity_kwh, bc.battery_power_kw,
	bc.battery_efficiency, COALESCE(bc.kpi_file_path, ''),
	COALESCE(bc.timeseries_file_path, ''), bc.created_at
FROM battery_configs bc
JOIN runs r ON bc.run_id = r.run_id
JOIN clients c ON r.client_id = c.client_id
WHERE c.client_name = $1 AND r.run_name = $2
ORDER BY bc.is_baseline DESC, bc.battery_capacity_kwh NULLS FIRST, bc.config_name`,
		clientName, runName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := []catalog.BatteryConfig{}
	for rows.Next() {
		config, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *config)
	}
	return configs, rows.Err()
}

// GetConfig loads one battery configuration by client, run, and config
// name. Returns nil when not found.
func (r *Repository) GetConfig(ctx context.Context, clientName, runName, configName string) (*catalog.BatteryConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("catalog repo: nil db")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT bc.config_id, bc.run_id, c.client_name, r.run_name, bc.config_name,
	bc.is_baseline, bc.battery_capacity_kwh, bc.battery_power_kw,
	bc.battery_efficiency, COALESCE(bc.kpi_file_path, ''),
	COALESCE(bc.timeseries_file_path, ''), bc.created_at
FROM battery_configs bc
JOIN runs r ON bc.run_id = r.run_id
JOIN clients c ON r.client_id = c.client_id
WHERE c.client_name = $1 AND r.run_name = $2 AND bc.config_name = $3
LIMIT 1`, clientName, runName, configName)

	config, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return config, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*catalog.BatteryConfig, error) {
	var config catalog.BatteryConfig
	var capacity, power, efficiency sql.NullFloat64
	if err := row.Scan(&config.ID, &config.RunID, &config.ClientName, &config.RunName,
		&config.Name, &config.IsBaseline, &capacity, &power, &efficiency,
		&config.KPIFilePath, &config.TimeseriesFilePath, &config.CreatedAt); err != nil {
		return nil, err
	}
	if capacity.Valid {
		config.CapacityKWh = &capacity.Float64
	}
	if power.Valid {
		config.PowerKW = &power.Float64
	}
	if efficiency.Valid {
		config.Efficiency = &efficiency.Float64
	}
	config.CreatedAt = config.CreatedAt.UTC()
	return &config, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}
