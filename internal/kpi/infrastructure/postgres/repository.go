package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	kpi "battflex-cloud/internal/kpi/domain"
)

// Repository is the Postgres implementation of the KPI store.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a KPI repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes one KPI value, replacing any existing value for the same
// configuration and name.
func (r *Repository) Upsert(ctx context.Context, record kpi.Record) error {
	if r == nil || r.db == nil {
		return errors.New("kpi repo: nil db")
	}
	if record.ConfigID == 0 || !kpi.ValidName(record.Name) {
		return errors.New("kpi repo: invalid record")
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO kpi_summary (config_id, kpi_name, kpi_value, kpi_unit)
VALUES ($1, $2, $3, $4)
ON CONFLICT (config_id, kpi_name) DO UPDATE SET
	kpi_value = EXCLUDED.kpi_value,
	kpi_unit = EXCLUDED.kpi_unit`,
		record.ConfigID, record.Name, record.Value, sql.NullString{String: record.Unit, Valid: record.Unit != ""})
	return err
}

// Query returns KPI rows joined with catalog context, narrowed by the
// filter's non-empty fields.
func (r *Repository) Query(ctx context.Context, filter kpi.Filter) ([]kpi.JoinedRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("kpi repo: nil db")
	}

	query := `
SELECT c.client_name, r.run_name, bc.config_name, bc.battery_capacity_kwh,
	k.kpi_name, k.kpi_value, COALESCE(k.kpi_unit, '')
FROM kpi_summary k
JOIN battery_configs bc ON k.config_id = bc.config_id
JOIN runs r ON bc.run_id = r.run_id
JOIN clients c ON r.client_id = c.client_id
WHERE 1=1`
	args := []any{}
	if filter.ClientName != "" {
		args = append(args, filter.ClientName)
		query += fmt.Sprintf(" AND c.client_name = $%d", len(args))
	}
	if filter.RunName != "" {
		args = append(args, filter.RunName)
		query += fmt.Sprintf(" AND r.run_name = $%d", len(args))
	}
	if filter.ConfigName != "" {
		args = append(args, filter.ConfigName)
		query += fmt.Sprintf(" AND bc.config_name = $%d", len(args))
	}
	if filter.KPIName != "" {
		args = append(args, filter.KPIName)
		query += fmt.Sprintf(" AND k.kpi_name = $%d", len(args))
	}
	query += " ORDER BY c.client_name, r.run_name, k.kpi_name, bc.battery_capacity_kwh NULLS FIRST"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []kpi.JoinedRecord{}
	for rows.Next() {
		var record kpi.JoinedRecord
		var capacity sql.NullFloat64
		if err := rows.Scan(&record.ClientName, &record.RunName, &record.ConfigName,
			&capacity, &record.Name, &record.Value, &record.Unit); err != nil {
			return nil, err
		}
		if capacity.Valid {
			record.CapacityKWh = &capacity.Float64
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Compare returns KPI values across all configurations of one run,
// optionally narrowed to a single KPI name.
func (r *Repository) Compare(ctx context.Context, clientName, runName, kpiName string) ([]kpi.Comparison, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("kpi repo: nil db")
	}
	if clientName == "" || runName == "" {
		return nil, errors.New("kpi repo: client and run required")
	}

	query := `
SELECT bc.config_name, bc.battery_capacity_kwh, bc.battery_power_kw,
	k.kpi_name, k.kpi_value, COALESCE(k.kpi_unit, '')
FROM kpi_summary k
JOIN battery_configs bc ON k.config_id = bc.config_id
JOIN runs r ON bc.run_id = r.run_id
JOIN clients c ON r.client_id = c.client_id
WHERE c.client_name = $1 AND r.run_name = $2`
	args := []any{clientName, runName}
	if kpiName != "" {
		args = append(args, kpiName)
		query += fmt.Sprintf(" AND k.kpi_name = $%d", len(args))
	}
	query += " ORDER BY k.kpi_name, bc.battery_capacity_kwh NULLS FIRST"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comparisons := []kpi.Comparison{}
	for rows.Next() {
		var comparison kpi.Comparison
		var capacity, power sql.NullFloat64
		if err := rows.Scan(&comparison.ConfigName, &capacity, &power,
			&comparison.Name, &comparison.Value, &comparison.Unit); err != nil {
			return nil, err
		}
		if capacity.Valid {
			comparison.CapacityKWh = &capacity.Float64
		}
		if power.Valid {
			comparison.PowerKW = &power.Float64
		}
		comparisons = append(comparisons, comparison)
	}
	return comparisons, rows.Err()
}

// ValuesByConfig returns kpi name -> value for one configuration.
func (r *Repository) ValuesByConfig(ctx context.Context, configID int64) (map[string]float64, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("kpi repo: nil db")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT kpi_name, kpi_value FROM kpi_summary WHERE config_id = $1`, configID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := map[string]float64{}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		values[name] = value
	}
	return values, rows.Err()
}
