// Package kpi holds KPI summary records attached to battery
// configurations and the loose-value rules used when importing them.
package kpi

import (
	"math"
	"strconv"
	"strings"
)

// Record is one KPI value for a configuration.
type Record struct {
	ConfigID int64   `json:"config_id"`
	Name     string  `json:"kpi_name"`
	Value    float64 `json:"kpi_value"`
	Unit     string  `json:"kpi_unit,omitempty"`
}

// JoinedRecord is a KPI row joined with its catalog context for queries.
type JoinedRecord struct {
	ClientName  string   `json:"client_name"`
	RunName     string   `json:"run_name"`
	ConfigName  string   `json:"config_name"`
	CapacityKWh *float64 `json:"battery_capacity_kwh,omitempty"`
	Name        string   `json:"kpi_name"`
	Value       float64  `json:"kpi_value"`
	Unit        string   `json:"kpi_unit,omitempty"`
}

// Filter narrows KPI queries. Empty fields match everything.
type Filter struct {
	ClientName string
	RunName    string
	ConfigName string
	KPIName    string
}

// Comparison is one KPI value for one configuration, used to compare
// configurations within a run side by side.
type Comparison struct {
	ConfigName  string   `json:"config_name"`
	CapacityKWh *float64 `json:"battery_capacity_kwh,omitempty"`
	PowerKW     *float64 `json:"battery_power_kw,omitempty"`
	Name        string   `json:"kpi_name"`
	Value       float64  `json:"kpi_value"`
	Unit        string   `json:"kpi_unit,omitempty"`
}

// ParseValue applies the import filtering rules to a raw cell: booleans,
// nones, list/dict dumps, and non-numeric strings are rejected rather
// than imported as garbage.
func ParseValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	switch strings.ToLower(raw) {
	case "false", "true", "none", "nan":
		return 0, false
	}
	if strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "{") {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// ValidName rejects empty or placeholder KPI names.
func ValidName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && !strings.EqualFold(name, "nan")
}
