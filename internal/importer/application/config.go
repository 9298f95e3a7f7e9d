package application

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines folder-convention settings for the importer.
type Config struct {
	DataRoot       string `yaml:"data_root"`
	FlexSubfolder  string `yaml:"flex_subfolder"`
	RescanInterval string `yaml:"rescan_interval"`
}

// LoadConfig loads importer config from yaml or env. The yaml file named
// by IMPORTER_CONFIG overrides the defaults; env vars fill any gaps.
func LoadConfig() (Config, error) {
	cfg := Config{
		DataRoot:      getenvDefault("DATA_ROOT", "data"),
		FlexSubfolder: getenvDefault("FLEX_SUBFOLDER", "02_Flex Offer Files"),
	}

	if path := os.Getenv("IMPORTER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.RescanInterval == "" {
		cfg.RescanInterval = os.Getenv("RESCAN_INTERVAL")
	}
	if cfg.DataRoot == "" {
		return cfg, errors.New("importer: data root required")
	}
	return cfg, nil
}

// Rescan returns the parsed rescan interval, zero when disabled.
func (c Config) Rescan() time.Duration {
	if c.RescanInterval == "" {
		return 0
	}
	interval, err := time.ParseDuration(c.RescanInterval)
	if err != nil || interval < 0 {
		return 0
	}
	return interval
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
