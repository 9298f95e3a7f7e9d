// Package application implements the folder-convention importer: it
// walks a data tree laid out as Client/Run/{Input,Output}, registers
// clients, runs, and battery configurations, and loads KPI summaries.
// Timeseries CSVs are registered by path and read lazily at query time.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	catalog "battflex-cloud/internal/catalog/domain"
	kpi "battflex-cloud/internal/kpi/domain"
)

// CatalogStore is the catalog surface the importer writes to.
type CatalogStore interface {
	EnsureClient(ctx context.Context, name, description string) (int64, error)
	EnsureRun(ctx context.Context, clientID int64, name, folderPath string, inputParameters json.RawMessage) (int64, error)
	EnsureConfig(ctx context.Context, config *catalog.BatteryConfig) (int64, error)
}

// KPIStore is the KPI surface the importer writes to.
type KPIStore interface {
	Upsert(ctx context.Context, record kpi.Record) error
}

// Report summarizes one scan or preview.
type Report struct {
	Clients    int            `json:"clients"`
	Runs       int            `json:"runs"`
	Configs    int            `json:"configs"`
	KPIValues  int            `json:"kpi_values"`
	FileCounts map[string]int `json:"file_counts"`
}

// FlexCase is a client folder that keeps its runs under the flex
// subfolder convention instead of directly below the client.
type FlexCase struct {
	Client string    `json:"client"`
	Path   string    `json:"path"`
	Runs   []FlexRun `json:"runs"`
}

// FlexRun is one discovered run inside a flex case.
type FlexRun struct {
	Name            string `json:"name"`
	KPIFiles        int    `json:"kpi_files"`
	TimeseriesFiles int    `json:"ts_files"`
}

// Service scans folder trees and imports them.
type Service struct {
	catalog CatalogStore
	kpis    KPIStore
	cfg     Config
	logger  *log.Logger
}

// NewService constructs the importer service.
func NewService(catalogStore CatalogStore, kpiStore KPIStore, cfg Config, logger *log.Logger) (*Service, error) {
	if catalogStore == nil {
		return nil, errors.New("importer: nil catalog store")
	}
	if kpiStore == nil {
		return nil, errors.New("importer: nil kpi store")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{catalog: catalogStore, kpis: kpiStore, cfg: cfg, logger: logger}, nil
}

// Scan imports every client/run/config found under root. An empty root
// means the configured data root. Per-file problems are logged and
// skipped; only structural failures (unreadable root, database errors)
// abort the scan.
func (s *Service) Scan(ctx context.Context, root string) (Report, error) {
	report := Report{FileCounts: map[string]int{}}
	if root == "" {
		root = s.cfg.DataRoot
	}

	clientDirs, err := listDirs(root)
	if err != nil {
		return report, err
	}

	for _, clientName := range clientDirs {
		clientID, err := s.catalog.EnsureClient(ctx, clientName, "")
		if err != nil {
			return report, err
		}
		report.Clients++

		runDirs, err := listDirs(filepath.Join(root, clientName))
		if err != nil {
			s.logger.Printf("importer: skip client %s: %v", clientName, err)
			continue
		}
		for _, runName := range runDirs {
			if err := s.importRun(ctx, root, clientName, clientID, runName, &report); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

func (s *Service) importRun(ctx context.Context, root, clientName string, clientID int64, runName string, report *Report) error {
	// Keep the folder path exactly as named on disk, spaces included.
	folderPath := clientName + "/" + runName
	runDir := filepath.Join(root, clientName, runName)

	var params json.RawMessage
	if data, err := os.ReadFile(filepath.Join(runDir, "Input", "parameters.json")); err == nil {
		if json.Valid(data) {
			params = json.RawMessage(data)
		} else {
			s.logger.Printf("importer: invalid parameters.json in %s", folderPath)
		}
	}

	runID, err := s.catalog.EnsureRun(ctx, clientID, runName, folderPath, params)
	if err != nil {
		return err
	}
	report.Runs++

	outputDir := filepath.Join(runDir, "Output")
	files, err := collectOutputFiles(outputDir)
	if err != nil {
		return nil
	}

	configNames := make([]string, 0, len(files))
	for name := range files {
		configNames = append(configNames, name)
	}
	sort.Strings(configNames)

	for _, configName := range configNames {
		group := files[configName]
		capacity, power := catalog.ParseBatterySpecs(configName)

		config := &catalog.BatteryConfig{
			RunID:       runID,
			Name:        configName,
			IsBaseline:  catalog.IsBaselineName(configName),
			CapacityKWh: capacity,
			PowerKW:     power,
		}
		if group.kpiFile != "" {
			config.KPIFilePath = folderPath + "/Output/" + group.kpiFile
		}
		if group.timeseriesFile != "" {
			config.TimeseriesFilePath = folderPath + "/Output/" + group.timeseriesFile
		}

		configID, err := s.catalog.EnsureConfig(ctx, config)
		if err != nil {
			return err
		}
		report.Configs++

		if group.kpiFile == "" {
			continue
		}
		pairs, err := ReadKPIFile(filepath.Join(outputDir, group.kpiFile))
		if err != nil {
			s.logger.Printf("importer: unreadable kpi file %s: %v", group.kpiFile, err)
			continue
		}
		for _, pair := range pairs {
			record := kpi.Record{ConfigID: configID, Name: pair.Name, Value: pair.Value, Unit: pair.Unit}
			if err := s.kpis.Upsert(ctx, record); err != nil {
				return err
			}
			report.KPIValues++
		}
	}

	report.FileCounts["kpi_csv"] += countSuffix(files, ".csv", true)
	report.FileCounts["kpi_xlsx"] += countSuffix(files, ".xlsx", true)
	report.FileCounts["timeseries_csv"] += countSuffix(files, ".csv", false)
	return nil
}

// Preview walks the tree like Scan but touches nothing, reporting what a
// full import would find.
func (s *Service) Preview(root string) (Report, error) {
	report := Report{FileCounts: map[string]int{}}
	if root == "" {
		root = s.cfg.DataRoot
	}

	clientDirs, err := listDirs(root)
	if err != nil {
		return report, err
	}
	for _, clientName := range clientDirs {
		runDirs, err := listDirs(filepath.Join(root, clientName))
		if err != nil {
			continue
		}
		clientCounted := false
		for _, runName := range runDirs {
			files, err := collectOutputFiles(filepath.Join(root, clientName, runName, "Output"))
			if err != nil || len(files) == 0 {
				continue
			}
			if !clientCounted {
				report.Clients++
				clientCounted = true
			}
			report.Runs++
			report.Configs += len(files)
			report.FileCounts["kpi_csv"] += countSuffix(files, ".csv", true)
			report.FileCounts["kpi_xlsx"] += countSuffix(files, ".xlsx", true)
			report.FileCounts["timeseries_csv"] += countSuffix(files, ".csv", false)
		}
	}
	return report, nil
}

// FindFlexCases discovers client folders whose runs live under the
// configured flex subfolder rather than directly below the client.
func (s *Service) FindFlexCases(root string) ([]FlexCase, error) {
	if root == "" {
		root = s.cfg.DataRoot
	}
	clientDirs, err := listDirs(root)
	if err != nil {
		return nil, err
	}

	var cases []FlexCase
	for _, clientName := range clientDirs {
		flexPath := filepath.Join(root, clientName, s.cfg.FlexSubfolder)
		runDirs, err := listDirs(flexPath)
		if err != nil {
			continue
		}
		var runs []FlexRun
		for _, runName := range runDirs {
			files, err := collectOutputFiles(filepath.Join(flexPath, runName, "Output"))
			if err != nil || len(files) == 0 {
				continue
			}
			run := FlexRun{Name: runName}
			for _, group := range files {
				if group.kpiFile != "" {
					run.KPIFiles++
				}
				if group.timeseriesFile != "" {
					run.TimeseriesFiles++
				}
			}
			runs = append(runs, run)
		}
		if len(runs) > 0 {
			cases = append(cases, FlexCase{Client: clientName, Path: flexPath, Runs: runs})
		}
	}
	return cases, nil
}

type fileGroup struct {
	kpiFile        string
	timeseriesFile string
}

// collectOutputFiles groups a run's output files by the configuration
// name embedded in their filenames.
func collectOutputFiles(outputDir string) (map[string]fileGroup, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, err
	}

	files := map[string]fileGroup{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		lower := strings.ToLower(name)
		switch {
		case strings.HasPrefix(lower, "kpi_summary") && (strings.HasSuffix(lower, ".csv") || strings.HasSuffix(lower, ".xlsx")):
			configName := catalog.ConfigNameFromFilename(name)
			group := files[configName]
			group.kpiFile = name
			files[configName] = group
		case strings.HasPrefix(lower, "flex_timeseries") && strings.HasSuffix(lower, ".csv"):
			configName := catalog.ConfigNameFromFilename(name)
			group := files[configName]
			group.timeseriesFile = name
			files[configName] = group
		}
	}
	return files, nil
}

func countSuffix(files map[string]fileGroup, suffix string, kpiSide bool) int {
	count := 0
	for _, group := range files {
		if kpiSide {
			if group.kpiFile != "" && strings.HasSuffix(strings.ToLower(group.kpiFile), suffix) {
				count++
			}
		} else if group.timeseriesFile != "" && strings.HasSuffix(strings.ToLower(group.timeseriesFile), suffix) {
			count++
		}
	}
	return count
}

func listDirs(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
