// Package config provides YAML-based configuration loading for aq.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level aq configuration, loaded from aq.yaml.
type Config struct {
	QueryDir    string        `yaml:"query_dir"`
	LogFile     string        `yaml:"log_file"`
	VOSDir      string        `yaml:"vos_dir"`
	ExplorerURL string        `yaml:"explorer_url"`
	Limits      LimitsConfig  `yaml:"limits"`
	Service     ServiceConfig `yaml:"service"`
	Survey      SurveyConfig  `yaml:"survey"`
	Notify      NotifyConfig  `yaml:"notify"`
}

// LimitsConfig holds the row limits handed to the Data Explorer form.
type LimitsConfig struct {
	Preview int `yaml:"preview"`
	Storage int `yaml:"storage"`
}

// ServiceConfig holds the Data Lab service endpoints.
type ServiceConfig struct {
	AuthURL    string `yaml:"auth_url"`
	QueryURL   string `yaml:"query_url"`
	StorageURL string `yaml:"storage_url"`
}

// SurveyConfig defines the sky region tiled by `aq make`.
type SurveyConfig struct {
	RAMin           float64 `yaml:"ra_min"`
	RAMax           float64 `yaml:"ra_max"`
	DecStart        float64 `yaml:"dec_start"`
	DecEnd          float64 `yaml:"dec_end"`
	DecStep         float64 `yaml:"dec_step"`
	Galactic        string  `yaml:"galactic"` // "", "north" or "south"
	Precheck        bool    `yaml:"precheck"`
	PrecheckWorkers int     `yaml:"precheck_workers"`
	PrecheckCache   string  `yaml:"precheck_cache"`
}

// NotifyConfig holds optional Slack notification settings for watch mode.
type NotifyConfig struct {
	SlackToken   string `yaml:"slack_token"`
	SlackChannel string `yaml:"slack_channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file is not an error: the tool works with built-in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Parse(nil)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.QueryDir == "" {
		c.QueryDir = "adql_queries"
	}
	if c.LogFile == "" {
		c.LogFile = "query_log.txt"
	}
	if c.VOSDir == "" {
		c.VOSDir = "cool-lamps-fullsky"
	}
	if c.ExplorerURL == "" {
		c.ExplorerURL = "https://datalab.noirlab.edu/data-explorer"
	}
	if c.Limits.Preview == 0 {
		c.Limits.Preview = 10
	}
	if c.Limits.Storage == 0 {
		c.Limits.Storage = 10000000
	}
	if c.Service.AuthURL == "" {
		c.Service.AuthURL = "https://datalab.noirlab.edu/auth"
	}
	if c.Service.QueryURL == "" {
		c.Service.QueryURL = "https://datalab.noirlab.edu/query"
	}
	if c.Service.StorageURL == "" {
		c.Service.StorageURL = "https://datalab.noirlab.edu/storage"
	}
	if c.Survey.RAMin == 0 && c.Survey.RAMax == 0 {
		c.Survey.RAMin = 89.5
		c.Survey.RAMax = 120.5
	}
	if c.Survey.DecStart == 0 && c.Survey.DecEnd == 0 {
		c.Survey.DecStart = -90
		c.Survey.DecEnd = 90
	}
	if c.Survey.DecStep == 0 {
		c.Survey.DecStep = 1
	}
	if c.Survey.PrecheckWorkers == 0 {
		c.Survey.PrecheckWorkers = 2
	}
	if c.Survey.PrecheckCache == "" {
		c.Survey.PrecheckCache = "precheck.db"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Survey.RAMin >= c.Survey.RAMax {
		errs = append(errs, "survey.ra_min must be below survey.ra_max")
	}
	if c.Survey.DecStart >= c.Survey.DecEnd {
		errs = append(errs, "survey.dec_start must be below survey.dec_end")
	}
	if c.Survey.DecStep < 0.1 {
		errs = append(errs, "survey.dec_step must be at least 0.1")
	}
	switch c.Survey.Galactic {
	case "", "north", "south":
	default:
		errs = append(errs, fmt.Sprintf("survey.galactic must be empty, north or south (got %q)", c.Survey.Galactic))
	}
	if (c.Notify.SlackToken == "") != (c.Notify.SlackChannel == "") {
		errs = append(errs, "notify.slack_token and notify.slack_channel must be set together")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
