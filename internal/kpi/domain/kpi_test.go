package kpi

import "testing"

func TestParseValue(t *testing.T) {
	accepted := map[string]float64{
		"42":        42,
		" 3.25 ":    3.25,
		"-17.5":     -17.5,
		"1e3":       1000,
		"0":         0,
	}
	for raw, want := range accepted {
		got, ok := ParseValue(raw)
		if !ok || got != want {
			t.Fatalf("ParseValue(%q) = %v, %v; want %v, true", raw, got, ok, want)
		}
	}

	rejected := []string{"", "  ", "False", "true", "None", "NaN", "['none']", "{\"a\":1}", "abc", "+Inf"}
	for _, raw := range rejected {
		if _, ok := ParseValue(raw); ok {
			t.Fatalf("ParseValue(%q) accepted, want rejected", raw)
		}
	}
}

func TestValidName(t *testing.T) {
	if ValidName("") || ValidName("  ") || ValidName("nan") || ValidName("NaN") {
		t.Fatal("placeholder names should be invalid")
	}
	if !ValidName("annual_total_grid_fee_cost_ic") {
		t.Fatal("real name should be valid")
	}
}
