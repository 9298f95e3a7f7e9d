package profile

import (
	"fmt"
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func checkGrid(t *testing.T, points []Point) {
	t.Helper()
	if len(points) != WeekSlots {
		t.Fatalf("expected %d points, got %d", WeekSlots, len(points))
	}
	for i, p := range points {
		if p.Index != i {
			t.Fatalf("point %d has index %d", i, p.Index)
		}
		slot := i % SlotsPerDay
		wantDay := dayLabels[i/SlotsPerDay]
		wantTime := fmt.Sprintf("%02d:%02d", slot/4, (slot%4)*15)
		if p.Day != wantDay {
			t.Fatalf("point %d day = %q, want %q", i, p.Day, wantDay)
		}
		if p.Time != wantTime {
			t.Fatalf("point %d time = %q, want %q", i, p.Time, wantTime)
		}
	}
}

func TestParseRawSeriesAveragesSameSlotAcrossWeeks(t *testing.T) {
	text := "timestamp,value\n" +
		"2024-01-01 00:00:00,10.0\n" +
		"2024-01-08 00:00:00,20.0\n"

	points := ParseRawSeries(text)
	checkGrid(t, points)

	if points[0].Value != 15.0 {
		t.Fatalf("slot 0 value = %v, want 15.0", points[0].Value)
	}
	if points[0].Day != "Mon" || points[0].Time != "00:00" {
		t.Fatalf("slot 0 labels = %q %q", points[0].Day, points[0].Time)
	}
	for i := 1; i < WeekSlots; i++ {
		if points[i].Value != 0 {
			t.Fatalf("slot %d value = %v, want 0", i, points[i].Value)
		}
	}
}

func TestParseRawSeriesEmptyInput(t *testing.T) {
	for _, text := range []string{"", "timestamp,value\n", "\n\n  \ntimestamp,value"} {
		points := ParseRawSeries(text)
		checkGrid(t, points)
		for _, p := range points {
			if p.Value != 0 || p.PV != 0 {
				t.Fatalf("input %q: slot %d not zero", text, p.Index)
			}
		}
	}
}

func TestParseRawSeriesSkipsMalformedLines(t *testing.T) {
	clean := "timestamp,value\n" +
		"2024-01-01 06:00:00,4.0\n" +
		"2024-01-02 06:00:00,8.0\n"
	dirty := "timestamp,value\n" +
		"2024-01-01 06:00:00,4.0\n" +
		"not-a-date,5.0\n" +
		"2024-01-03 06:00:00,abc\n" +
		",,,\n" +
		"2024-01-02 06:00:00,8.0\n"

	want := ParseRawSeries(clean)
	got := ParseRawSeries(dirty)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot %d differs: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestParseRawSeriesValueFallbackToFirstField(t *testing.T) {
	// A bare numeric first field parses as the value; the timestamp parse
	// then fails and the line is dropped rather than polluting slot 0.
	text := "value\n42.5\n"
	points := ParseRawSeries(text)
	checkGrid(t, points)
	for _, p := range points {
		if p.Value != 0 {
			t.Fatalf("slot %d value = %v, want 0", p.Index, p.Value)
		}
	}
}

func TestParseRawSeriesQuotedTimestamp(t *testing.T) {
	text := "timestamp,value\n" +
		"\"2024-01-01 00:15:00\",3.0\n" +
		"'2024-01-01 00:15:00',5.0\n"
	points := ParseRawSeries(text)
	if points[1].Value != 4.0 {
		t.Fatalf("slot 1 value = %v, want 4.0", points[1].Value)
	}
}

func TestParseRawSeriesDropsNaN(t *testing.T) {
	text := "timestamp,value\n" +
		"2024-01-01 00:00:00,NaN\n" +
		"2024-01-01 00:00:00,2.0\n"
	points := ParseRawSeries(text)
	if points[0].Value != 2.0 {
		t.Fatalf("slot 0 value = %v, want 2.0", points[0].Value)
	}
}

func TestWeekdayRotation(t *testing.T) {
	cases := []struct {
		timestamp string
		day       string
		index     int
	}{
		{"2024-01-01 00:00:00", "Mon", 0},              // Monday -> day 0
		{"2024-01-07 00:00:00", "Sun", 6 * SlotsPerDay}, // Sunday -> day 6
		{"2024-01-06 23:45:00", "Sat", 6*SlotsPerDay - 1},
	}
	for _, tc := range cases {
		text := "timestamp,value\n" + tc.timestamp + ",1.0\n"
		points := ParseRawSeries(text)
		if points[tc.index].Value != 1.0 {
			t.Fatalf("%s: slot %d value = %v, want 1.0", tc.timestamp, tc.index, points[tc.index].Value)
		}
		if points[tc.index].Day != tc.day {
			t.Fatalf("%s: slot %d day = %q, want %q", tc.timestamp, tc.index, points[tc.index].Day, tc.day)
		}
	}
}

func TestParseStructuredSeriesFieldPrecedence(t *testing.T) {
	// Monday 13:07 -> slot 13*4 + 0 = 52.
	records := []Record{
		{TimestampUTC: "2024-03-04T13:07:00Z", ConsumptionKWh: floatPtr(7.5), GridLoadKWh: floatPtr(99)},
	}
	points := ParseStructuredSeries(records)
	checkGrid(t, points)
	if points[52].Value != 7.5 {
		t.Fatalf("slot 52 value = %v, want 7.5 (consumption wins)", points[52].Value)
	}
	if points[52].PV != 0 {
		t.Fatalf("slot 52 pv = %v, want 0", points[52].PV)
	}
}

func TestParseStructuredSeriesGridLoadFallback(t *testing.T) {
	records := []Record{
		{TimestampUTC: "2024-03-04 00:00:00", GridLoadKWh: floatPtr(4.2)},
	}
	points := ParseStructuredSeries(records)
	if points[0].Value != 4.2 {
		t.Fatalf("slot 0 value = %v, want 4.2", points[0].Value)
	}
}

func TestParseStructuredSeriesMissingFieldsCountAsZero(t *testing.T) {
	// Two rows in the same slot, one with no numeric fields at all: the
	// empty row still enters the denominator. This differs from the raw
	// adapter on purpose.
	records := []Record{
		{TimestampUTC: "2024-03-04 00:00:00", ConsumptionKWh: floatPtr(10), PVLoadKWh: floatPtr(6)},
		{TimestampUTC: "2024-03-04 00:05:00"},
	}
	points := ParseStructuredSeries(records)
	if points[0].Value != 5.0 {
		t.Fatalf("slot 0 value = %v, want 5.0", points[0].Value)
	}
	if points[0].PV != 3.0 {
		t.Fatalf("slot 0 pv = %v, want 3.0", points[0].PV)
	}
}

func TestParseStructuredSeriesDropsBadTimestamp(t *testing.T) {
	records := []Record{
		{TimestampUTC: "garbage", ConsumptionKWh: floatPtr(10)},
		{TimestampUTC: ""},
	}
	points := ParseStructuredSeries(records)
	for _, p := range points {
		if p.Value != 0 {
			t.Fatalf("slot %d value = %v, want 0", p.Index, p.Value)
		}
	}
}

func TestParseStructuredSeriesEmpty(t *testing.T) {
	points := ParseStructuredSeries(nil)
	checkGrid(t, points)
}

func TestSlotArithmeticWithinDay(t *testing.T) {
	// 23:59 is the last slot of the day; :14 and :15 straddle a boundary.
	cases := []struct {
		timestamp string
		index     int
	}{
		{"2024-01-01 00:14:00", 0},
		{"2024-01-01 00:15:00", 1},
		{"2024-01-01 23:59:59", SlotsPerDay - 1},
		{"2024-01-02 12:30:00", SlotsPerDay + 12*4 + 2},
	}
	for _, tc := range cases {
		text := "timestamp,value\n" + tc.timestamp + ",1.0\n"
		points := ParseRawSeries(text)
		if points[tc.index].Value != 1.0 {
			t.Fatalf("%s mapped away from slot %d", tc.timestamp, tc.index)
		}
	}
}

func TestParseRawSeriesWindowsLineEndings(t *testing.T) {
	text := strings.Join([]string{"timestamp,value", "2024-01-01 00:00:00,6.0", ""}, "\r\n")
	points := ParseRawSeries(text)
	if points[0].Value != 6.0 {
		t.Fatalf("slot 0 value = %v, want 6.0", points[0].Value)
	}
}
