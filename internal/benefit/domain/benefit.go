// Package benefit defines the derived outcome metrics of a battery
// configuration, each computed against the run's zero-battery baseline
// as baseline minus battery so positive values mean savings.
package benefit

// Definition describes how one benefit is derived from KPI values.
// Simple benefits diff a single KPI; composite ones sum the diffs of
// several component KPIs.
type Definition struct {
	Name          string
	Description   string
	Unit          string
	BaselineKPI   string
	ComponentKPIs []string
}

// Composite reports whether the benefit sums several KPI diffs.
func (d Definition) Composite() bool { return len(d.ComponentKPIs) > 0 }

// Definitions lists the benefits the calculator produces.
var Definitions = []Definition{
	{
		Name:        "peak_shaving_benefit",
		Description: "Reduction in total grid fee costs from peak shaving",
		Unit:        "EUR/year",
		BaselineKPI: "annual_total_grid_fee_cost_ic",
	},
	{
		Name:        "energy_procurement_optimization",
		Description: "Savings from optimized day-ahead energy procurement",
		Unit:        "EUR/year",
		BaselineKPI: "annual_total_energy_trade_cost_da",
	},
	{
		Name:        "trading_revenue",
		Description: "Revenue from intraday and imbalance/continuous trading",
		Unit:        "EUR/year",
		ComponentKPIs: []string{
			"annual_total_energy_trade_cost_ia",
			"annual_total_energy_trade_cost_ic",
		},
	},
}

// Benefit is one calculated value for one non-baseline configuration.
type Benefit struct {
	ClientName  string   `json:"client_name"`
	RunName     string   `json:"run_name"`
	ConfigName  string   `json:"config_name"`
	CapacityKWh *float64 `json:"battery_capacity_kwh,omitempty"`
	PowerKW     *float64 `json:"battery_power_kw,omitempty"`
	Name        string   `json:"benefit_name"`
	Value       float64  `json:"benefit_value"`
	Unit        string   `json:"benefit_unit"`
}

// Summary aggregates one benefit across configurations.
type Summary struct {
	Name  string  `json:"benefit_name"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Total float64 `json:"total"`
}

// Summarize groups benefits by name and computes summary statistics,
// ordered as in Definitions.
func Summarize(benefits []Benefit) []Summary {
	byName := map[string]*Summary{}
	for _, b := range benefits {
		summary, ok := byName[b.Name]
		if !ok {
			summary = &Summary{Name: b.Name, Min: b.Value, Max: b.Value}
			byName[b.Name] = summary
		}
		if b.Value < summary.Min {
			summary.Min = b.Value
		}
		if b.Value > summary.Max {
			summary.Max = b.Value
		}
		summary.Count++
		summary.Total += b.Value
	}

	summaries := make([]Summary, 0, len(byName))
	for _, def := range Definitions {
		if summary, ok := byName[def.Name]; ok {
			summary.Mean = summary.Total / float64(summary.Count)
			summaries = append(summaries, *summary)
		}
	}
	return summaries
}
