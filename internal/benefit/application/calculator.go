package application

import (
	"context"
	"errors"
	"log"

	benefit "battflex-cloud/internal/benefit/domain"
	catalog "battflex-cloud/internal/catalog/domain"
	kpi "battflex-cloud/internal/kpi/domain"
)

// CatalogReader is the catalog surface the calculator reads from.
type CatalogReader interface {
	ListRuns(ctx context.Context, clientName string) ([]catalog.Run, error)
	ListConfigs(ctx context.Context, clientName, runName string) ([]catalog.BatteryConfig, error)
}

// KPIReader loads KPI values for one configuration.
type KPIReader interface {
	ValuesByConfig(ctx context.Context, configID int64) (map[string]float64, error)
}

// KPIWriter persists calculated benefits back as KPI records.
type KPIWriter interface {
	Upsert(ctx context.Context, record kpi.Record) error
}

// Calculator computes benefit KPIs against each run's baseline.
type Calculator struct {
	catalog CatalogReader
	kpis    KPIReader
	logger  *log.Logger
}

// NewCalculator constructs a Calculator.
func NewCalculator(catalogReader CatalogReader, kpiReader KPIReader, logger *log.Logger) (*Calculator, error) {
	if catalogReader == nil {
		return nil, errors.New("benefit: nil catalog reader")
	}
	if kpiReader == nil {
		return nil, errors.New("benefit: nil kpi reader")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Calculator{catalog: catalogReader, kpis: kpiReader, logger: logger}, nil
}

// CalculateForRun computes all benefits for one run. Runs without a
// baseline configuration yield no benefits; configurations missing the
// KPIs a benefit needs are skipped for that benefit only.
func (c *Calculator) CalculateForRun(ctx context.Context, clientName, runName string) ([]benefit.Benefit, error) {
	configs, err := c.catalog.ListConfigs(ctx, clientName, runName)
	if err != nil {
		return nil, err
	}

	var baseline *catalog.BatteryConfig
	for i := range configs {
		if configs[i].IsBaseline {
			baseline = &configs[i]
			break
		}
	}
	if baseline == nil {
		c.logger.Printf("benefit: no baseline config in %s/%s", clientName, runName)
		return nil, nil
	}

	baselineKPIs, err := c.kpis.ValuesByConfig(ctx, baseline.ID)
	if err != nil {
		return nil, err
	}

	var benefits []benefit.Benefit
	for _, config := range configs {
		if config.IsBaseline {
			continue
		}
		configKPIs, err := c.kpis.ValuesByConfig(ctx, config.ID)
		if err != nil {
			return nil, err
		}
		for _, def := range benefit.Definitions {
			value, ok := diffAgainstBaseline(def, baselineKPIs, configKPIs)
			if !ok {
				continue
			}
			benefits = append(benefits, benefit.Benefit{
				ClientName:  clientName,
				RunName:     runName,
				ConfigName:  config.Name,
				CapacityKWh: config.CapacityKWh,
				PowerKW:     config.PowerKW,
				Name:        def.Name,
				Value:       value,
				Unit:        def.Unit,
			})
		}
	}
	return benefits, nil
}

// CalculateAll computes benefits across every run, optionally narrowed
// to one client.
func (c *Calculator) CalculateAll(ctx context.Context, clientName string) ([]benefit.Benefit, error) {
	runs, err := c.catalog.ListRuns(ctx, clientName)
	if err != nil {
		return nil, err
	}

	var benefits []benefit.Benefit
	for _, run := range runs {
		runBenefits, err := c.CalculateForRun(ctx, run.ClientName, run.Name)
		if err != nil {
			return nil, err
		}
		benefits = append(benefits, runBenefits...)
	}
	return benefits, nil
}

// SaveAsKPIs persists calculated benefits as KPI rows on their
// configurations, so downstream consumers can query them like any KPI.
func (c *Calculator) SaveAsKPIs(ctx context.Context, clientName string, writer KPIWriter) (int, error) {
	if writer == nil {
		return 0, errors.New("benefit: nil kpi writer")
	}

	runs, err := c.catalog.ListRuns(ctx, clientName)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, run := range runs {
		configs, err := c.catalog.ListConfigs(ctx, run.ClientName, run.Name)
		if err != nil {
			return saved, err
		}
		configIDs := map[string]int64{}
		for _, config := range configs {
			configIDs[config.Name] = config.ID
		}

		benefits, err := c.CalculateForRun(ctx, run.ClientName, run.Name)
		if err != nil {
			return saved, err
		}
		for _, b := range benefits {
			configID, ok := configIDs[b.ConfigName]
			if !ok {
				continue
			}
			record := kpi.Record{ConfigID: configID, Name: b.Name, Value: b.Value, Unit: b.Unit}
			if err := writer.Upsert(ctx, record); err != nil {
				return saved, err
			}
			saved++
		}
	}
	return saved, nil
}

func diffAgainstBaseline(def benefit.Definition, baseline, config map[string]float64) (float64, bool) {
	if def.Composite() {
		total := 0.0
		for _, component := range def.ComponentKPIs {
			baseValue, baseOK := baseline[component]
			configValue, configOK := config[component]
			if !baseOK || !configOK {
				return 0, false
			}
			total += baseValue - configValue
		}
		return total, true
	}

	baseValue, baseOK := baseline[def.BaselineKPI]
	configValue, configOK := config[def.BaselineKPI]
	if !baseOK || !configOK {
		return 0, false
	}
	return baseValue - configValue, true
}
