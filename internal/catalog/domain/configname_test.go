package catalog

import "testing"

func TestConfigNameFromFilename(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"kpi_summary_20250905_114337_5000kWh.xlsx", "5000kWh"},
		{"flex_timeseries_outputs_20250905_114337_5000kWh.csv", "5000kWh"},
		{"kpi_summary_no_battery.csv", "no_battery"},
		{"flex_timeseries_outputs_battery_1.csv", "battery_1"},
		{"flex_timeseries_100kWh_50kW.csv", "100kWh_50kW"},
		{"Output/kpi_summary_0kWh.csv", "0kWh"},
		{"unrelated.csv", "unrelated"},
	}
	for _, tc := range cases {
		if got := ConfigNameFromFilename(tc.filename); got != tc.want {
			t.Fatalf("ConfigNameFromFilename(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestIsBaselineName(t *testing.T) {
	baselines := []string{"0kWh", "0_kWh", "no_battery", "0_battery", "baseline", "no battery", "0", "0kWh_0kW"}
	for _, name := range baselines {
		if !IsBaselineName(name) {
			t.Fatalf("expected %q to be baseline", name)
		}
	}
	others := []string{"100kWh_50kW", "battery_1", "5000kWh", "10_battery"}
	for _, name := range others {
		if IsBaselineName(name) {
			t.Fatalf("did not expect %q to be baseline", name)
		}
	}
}

func TestParseBatterySpecs(t *testing.T) {
	cases := []struct {
		name     string
		capacity *float64
		power    *float64
	}{
		{"100kWh_50kW", floatPtr(100), floatPtr(50)},
		{"5000kWh", floatPtr(5000), nil},
		{"2.5kWh_1.2kW", floatPtr(2.5), floatPtr(1.2)},
		{"50kW_100kWh", floatPtr(100), floatPtr(50)},
		{"no_battery", nil, nil},
	}
	for _, tc := range cases {
		capacity, power := ParseBatterySpecs(tc.name)
		if !floatPtrEqual(capacity, tc.capacity) {
			t.Fatalf("%q capacity = %v, want %v", tc.name, deref(capacity), deref(tc.capacity))
		}
		if !floatPtrEqual(power, tc.power) {
			t.Fatalf("%q power = %v, want %v", tc.name, deref(power), deref(tc.power))
		}
	}
}

func floatPtr(v float64) *float64 { return &v }

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
