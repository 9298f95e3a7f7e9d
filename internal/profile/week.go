// Package profile folds timestamped load observations into an average-week
// profile: a fixed grid of 672 slots covering Monday through Sunday at
// 15-minute resolution. Observations from any number of real calendar weeks
// land in the same grid, so the result is the mean week, not any single one.
package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// SlotsPerDay is the number of 15-minute slots in one day.
	SlotsPerDay = 96
	// WeekSlots is the number of slots in the Monday-to-Sunday grid.
	WeekSlots = 7 * SlotsPerDay

	slotMinutes = 15
)

var dayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Point is one slot of the averaged week.
type Point struct {
	Index int     `json:"index"`
	Day   string  `json:"day"`
	Time  string  `json:"time"`
	Value float64 `json:"value"`
	PV    float64 `json:"pv"`
}

// Record is a structured timeseries row as served by the timeseries API.
// ConsumptionKWh takes precedence over GridLoadKWh for the primary series;
// absent numeric fields count as zero.
type Record struct {
	TimestampUTC   string   `json:"timestamp_utc"`
	ConsumptionKWh *float64 `json:"consumption_kwh,omitempty"`
	GridLoadKWh    *float64 `json:"grid_load_kwh,omitempty"`
	PVLoadKWh      *float64 `json:"pv_load_kwh,omitempty"`
}

type bucket struct {
	sum   float64
	pvSum float64
	count int
}

// buckets is the per-call accumulator. It never outlives one aggregation.
type buckets [WeekSlots]bucket

// fill adds one observation to the slot its wall-clock time maps to.
// Go counts weekdays from Sunday; the grid starts on Monday.
func (b *buckets) fill(ts time.Time, primary, secondary float64) {
	day := int(ts.Weekday()) - 1
	if day < 0 {
		day = 6
	}
	index := day*SlotsPerDay + ts.Hour()*4 + ts.Minute()/slotMinutes
	if index < 0 || index >= WeekSlots {
		return
	}
	b[index].sum += primary
	b[index].pvSum += secondary
	b[index].count++
}

// averages renders the grid. Slots nobody contributed to come out as zero,
// not as gaps; the output always has exactly WeekSlots points in index order.
func (b *buckets) averages() []Point {
	points := make([]Point, WeekSlots)
	for i := range b {
		slot := i % SlotsPerDay
		point := Point{
			Index: i,
			Day:   dayLabels[i/SlotsPerDay],
			Time:  fmt.Sprintf("%02d:%02d", slot/4, (slot%4)*slotMinutes),
		}
		if b[i].count > 0 {
			point.Value = b[i].sum / float64(b[i].count)
			point.PV = b[i].pvSum / float64(b[i].count)
		}
		points[i] = point
	}
	return points
}

// ParseRawSeries aggregates the text of an uploaded delimited file. The
// first non-blank line is the header and is discarded. Each data line is
// split on commas; the numeric value is taken from the second field,
// falling back to the first, and the timestamp from the first field with
// surrounding quotes stripped. Lines where either fails to parse are
// skipped. Uploaded files carry no generation series.
func ParseRawSeries(text string) []Point {
	var b buckets
	headerSeen := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		fields := strings.Split(line, ",")
		value, ok := numericField(fields, 1)
		if !ok {
			value, ok = numericField(fields, 0)
		}
		if !ok {
			continue
		}
		raw := strings.Trim(strings.TrimSpace(fields[0]), `"'`)
		ts, err := parseTimestamp(raw)
		if err != nil {
			continue
		}
		b.fill(ts, value, 0)
	}
	return b.averages()
}

// ParseStructuredSeries aggregates already-parsed timeseries rows. Rows
// with an unparseable timestamp are skipped; missing numeric fields mean
// zero rather than skipping, unlike the raw-text path. Consumption wins
// over grid load when a row carries both.
func ParseStructuredSeries(records []Record) []Point {
	var b buckets
	for _, rec := range records {
		ts, err := parseTimestamp(strings.TrimSpace(rec.TimestampUTC))
		if err != nil {
			continue
		}
		var primary float64
		switch {
		case rec.ConsumptionKWh != nil:
			primary = *rec.ConsumptionKWh
		case rec.GridLoadKWh != nil:
			primary = *rec.GridLoadKWh
		}
		var pv float64
		if rec.PVLoadKWh != nil {
			pv = *rec.PVLoadKWh
		}
		b.fill(ts, primary, pv)
	}
	return b.averages()
}

func numericField(fields []string, index int) (float64, bool) {
	if index >= len(fields) {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(fields[index]), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp accepts the layouts simulation outputs and uploads use.
// The wall-clock fields are used as-is; no zone conversion happens, since
// the slot depends only on the observation's local day-of-week and time.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("profile: empty timestamp")
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
