package application

import (
	"encoding/csv"
	"errors"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	kpi "battflex-cloud/internal/kpi/domain"
)

// NameValue is one KPI cell pair read from a summary file.
type NameValue struct {
	Name  string
	Value float64
	Unit  string
}

// ReadKPIFile loads KPI name/value pairs from a summary CSV or XLSX.
// Column detection follows the file conventions: a column containing
// "name" or "kpi" holds names, one containing "value" holds values, one
// containing "unit" holds units; otherwise the first two columns are
// used. Rows failing the value rules are skipped, never fatal.
func ReadKPIFile(path string) ([]NameValue, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		return readKPIXLSX(path)
	}
	return readKPICSV(path)
}

func readKPICSV(path string) ([]NameValue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return extractKPIRows(rows)
}

func readKPIXLSX(path string) ([]NameValue, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("importer: xlsx has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return extractKPIRows(rows)
}

func extractKPIRows(rows [][]string) ([]NameValue, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, errors.New("importer: kpi file has fewer than 2 columns")
	}

	// "value" and "unit" are matched first so headers like kpi_value do
	// not get claimed as the name column.
	nameCol, valueCol, unitCol := 0, 1, -1
	for i, column := range header {
		lower := strings.ToLower(column)
		switch {
		case strings.Contains(lower, "value"):
			valueCol = i
		case strings.Contains(lower, "unit"):
			unitCol = i
		case strings.Contains(lower, "name"), strings.Contains(lower, "kpi"):
			nameCol = i
		}
	}

	var pairs []NameValue
	for _, row := range rows[1:] {
		if nameCol >= len(row) || valueCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol])
		if !kpi.ValidName(name) {
			continue
		}
		value, ok := kpi.ParseValue(row[valueCol])
		if !ok {
			continue
		}
		unit := ""
		if unitCol >= 0 && unitCol < len(row) {
			unit = strings.TrimSpace(row[unitCol])
		}
		pairs = append(pairs, NameValue{Name: name, Value: value, Unit: unit})
	}
	return pairs, nil
}
