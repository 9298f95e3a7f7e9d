// Package timeseries reads the simulator's flex timeseries CSVs that the
// importer registered by path, mapping their columns onto the structured
// row shape the API serves and the profile aggregation consumes.
package timeseries

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"battflex-cloud/internal/profile"
)

// ErrPathOutsideRoot is returned when a registered path escapes the data root.
var ErrPathOutsideRoot = errors.New("timeseries: path escapes data root")

// Column aliases the simulator has emitted over time, all lowercased.
var (
	timestampColumns   = []string{"timestamp", "timestamp_utc", "datetime", "time", "date"}
	consumptionColumns = []string{"calculated_consumption", "consumption_kwh", "consumption", "net_load_kwh", "net_load"}
	gridLoadColumns    = []string{"grid_load_kwh", "grid_load", "raw_grid_load", "load_kwh", "load"}
	pvColumns          = []string{"pv_load_kwh", "pv_load", "generation_kwh", "generation", "pv"}
)

// Reader resolves registered timeseries paths under the data root.
type Reader struct {
	dataRoot string
}

// NewReader constructs a Reader rooted at the importer's data root.
func NewReader(dataRoot string) *Reader {
	return &Reader{dataRoot: dataRoot}
}

// ReadRows loads one registered timeseries file and maps its rows.
// Columns the file does not have come out as absent fields; rows whose
// cells fail to parse keep whatever fields did parse. The registered
// path is relative to the data root and must stay inside it.
func (r *Reader) ReadRows(registeredPath string) ([]profile.Record, error) {
	if r == nil || r.dataRoot == "" {
		return nil, errors.New("timeseries: no data root")
	}
	if registeredPath == "" {
		return nil, errors.New("timeseries: empty path")
	}

	cleaned := filepath.Clean(filepath.FromSlash(registeredPath))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return nil, ErrPathOutsideRoot
	}

	file, err := os.Open(filepath.Join(r.dataRoot, cleaned))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readCSV(file)
}

func readCSV(source io.Reader) ([]profile.Record, error) {
	reader := csv.NewReader(source)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []profile.Record{}, nil
	}
	if err != nil {
		return nil, err
	}

	tsCol := findColumn(header, timestampColumns)
	consumptionCol := findColumn(header, consumptionColumns)
	gridCol := findColumn(header, gridLoadColumns)
	pvCol := findColumn(header, pvColumns)
	if tsCol < 0 {
		return nil, errors.New("timeseries: no timestamp column")
	}

	records := []profile.Record{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged or mangled lines are skipped, not fatal.
			continue
		}
		if tsCol >= len(row) {
			continue
		}
		record := profile.Record{TimestampUTC: strings.TrimSpace(row[tsCol])}
		record.ConsumptionKWh = numericCell(row, consumptionCol)
		record.GridLoadKWh = numericCell(row, gridCol)
		record.PVLoadKWh = numericCell(row, pvCol)
		records = append(records, record)
	}
	return records, nil
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, column := range header {
			if strings.ToLower(strings.TrimSpace(column)) == alias {
				return i
			}
		}
	}
	return -1
}

func numericCell(row []string, index int) *float64 {
	if index < 0 || index >= len(row) {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(row[index]), 64)
	if err != nil {
		return nil
	}
	return &value
}
