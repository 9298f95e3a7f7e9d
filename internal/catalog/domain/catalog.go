// Package catalog holds the master data of the results store: clients,
// their simulation runs, and the battery configurations within each run.
package catalog

import (
	"encoding/json"
	"errors"
	"time"
)

// Client owns a set of simulation runs.
type Client struct {
	ID          int64     `json:"client_id"`
	Name        string    `json:"client_name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Run is one simulation run for a client, mapped to a folder on disk.
type Run struct {
	ID              int64           `json:"run_id"`
	ClientID        int64           `json:"client_id"`
	ClientName      string          `json:"client_name"`
	Name            string          `json:"run_name"`
	Description     string          `json:"run_description,omitempty"`
	RunDate         *time.Time      `json:"run_date,omitempty"`
	InputParameters json.RawMessage `json:"input_parameters,omitempty"`
	FolderPath      string          `json:"folder_path"`
	CreatedAt       time.Time       `json:"created_at"`
}

// BatteryConfig is one sizing variant within a run. File paths are
// relative to the data root and point at the run's Output folder.
type BatteryConfig struct {
	ID                 int64           `json:"config_id"`
	RunID              int64           `json:"run_id"`
	ClientName         string          `json:"client_name,omitempty"`
	RunName            string          `json:"run_name,omitempty"`
	Name               string          `json:"config_name"`
	IsBaseline         bool            `json:"is_baseline"`
	CapacityKWh        *float64        `json:"battery_capacity_kwh,omitempty"`
	PowerKW            *float64        `json:"battery_power_kw,omitempty"`
	Efficiency         *float64        `json:"battery_efficiency,omitempty"`
	OtherParams        json.RawMessage `json:"other_params,omitempty"`
	KPIFilePath        string          `json:"kpi_file_path,omitempty"`
	TimeseriesFilePath string          `json:"timeseries_file_path,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Validate checks required fields before persistence.
func (c *BatteryConfig) Validate() error {
	if c == nil {
		return errors.New("catalog: nil config")
	}
	if c.RunID == 0 {
		return errors.New("catalog: config missing run id")
	}
	if c.Name == "" {
		return errors.New("catalog: config missing name")
	}
	return nil
}
