package catalog

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Output filename prefixes the simulator emits, longest first so the
// outputs variant is stripped before the plain one.
var outputFilePrefixes = []string{
	"kpi_summary_",
	"flex_timeseries_outputs_",
	"flex_timeseries_",
}

var (
	timestampedName = regexp.MustCompile(`_\d{8}_\d{6}_(.+)$`)
	capacityPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kWh`)
	powerPattern    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kW(?:[^h]|$)`)
)

// ConfigNameFromFilename derives the battery configuration name from an
// output filename. Timestamped names like
// kpi_summary_20250905_114337_5000kWh.xlsx yield the suffix after the
// timestamp; otherwise the known prefix is stripped.
func ConfigNameFromFilename(filename string) string {
	name := strings.TrimSuffix(path.Base(filename), path.Ext(filename))

	if match := timestampedName.FindStringSubmatch(name); match != nil {
		return match[1]
	}
	for _, prefix := range outputFilePrefixes {
		if strings.HasPrefix(name, prefix) {
			return name[len(prefix):]
		}
	}
	return name
}

var baselineNames = map[string]struct{}{
	"0kwh":       {},
	"0_kwh":      {},
	"no_battery": {},
	"0_battery":  {},
	"baseline":   {},
	"no battery": {},
	"0":          {},
}

// IsBaselineName reports whether a configuration name denotes the
// zero-battery reference case.
func IsBaselineName(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := baselineNames[lower]; ok {
		return true
	}
	return strings.HasPrefix(lower, "0kwh")
}

// ParseBatterySpecs extracts capacity (kWh) and power (kW) from a config
// name like "100kWh_50kW". Either value may be absent.
func ParseBatterySpecs(name string) (capacityKWh, powerKW *float64) {
	if match := capacityPattern.FindStringSubmatch(name); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			capacityKWh = &value
		}
	}
	if match := powerPattern.FindStringSubmatch(name); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			powerKW = &value
		}
	}
	return capacityKWh, powerKW
}
