package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"jobharvest/internal/fetch"
	"jobharvest/internal/scrape"
)

// Site overrides parts of an adapter's built-in configuration. Zero values
// keep the built-in setting; Selectors, when set, replaces the whole set.
type Site struct {
	Enabled     bool              `yaml:"enabled"`
	BaseURL     string            `yaml:"base_url,omitempty"`
	PageSize    int               `yaml:"page_size,omitempty"`
	WarmupDelay time.Duration     `yaml:"warmup_delay,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Selectors   *scrape.Selectors `yaml:"selectors,omitempty"`
}

// Apply returns base with the overrides from s. Headers are merged.
func (s Site) Apply(base scrape.SiteConfig) scrape.SiteConfig {
	if s.BaseURL != "" {
		base.BaseURL = s.BaseURL
	}
	if s.PageSize > 0 {
		base.PageSize = s.PageSize
	}
	if s.WarmupDelay > 0 {
		base.WarmupDelay = s.WarmupDelay
	}
	if len(s.Headers) > 0 {
		h := make(map[string]string, len(base.Headers)+len(s.Headers))
		for k, v := range base.Headers {
			h[k] = v
		}
		for k, v := range s.Headers {
			h[k] = v
		}
		base.Headers = h
	}
	if s.Selectors != nil {
		base.Selectors = *s.Selectors
	}
	return base
}

type Config struct {
	App struct {
		// DataDir is the base for relative sink paths.
		DataDir string `yaml:"data_dir"`
		Dataset string `yaml:"dataset"`
	} `yaml:"app"`

	Keywords []string `yaml:"keywords"`

	Sites struct {
		JobsGo Site `yaml:"jobsgo"`
		TopCV  Site `yaml:"topcv"`
	} `yaml:"sites"`

	Fetch struct {
		Timeout       time.Duration `yaml:"timeout"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		Burst         int           `yaml:"burst"`
		Retry         fetch.Policy  `yaml:"retry"`
	} `yaml:"fetch"`

	Lexicon struct {
		// Terms replaces the built-in list when non-empty; Extra is added
		// either way.
		Terms []string `yaml:"terms"`
		Extra []string `yaml:"extra"`
	} `yaml:"lexicon"`

	Sinks struct {
		CSV struct {
			Enabled bool   `yaml:"enabled"`
			Dir     string `yaml:"dir"`
		} `yaml:"csv"`
		SQLite struct {
			Enabled bool   `yaml:"enabled"`
			Path    string `yaml:"path"`
		} `yaml:"sqlite"`
		Postgres struct {
			Enabled  bool   `yaml:"enabled"`
			DSN      string `yaml:"dsn"`
			Schema   string `yaml:"schema"`
			MaxConns int32  `yaml:"max_conns"`
		} `yaml:"postgres"`
		Sheets struct {
			Enabled         bool   `yaml:"enabled"`
			SpreadsheetID   string `yaml:"spreadsheet_id"`
			CredentialsFile string `yaml:"credentials_file"`
		} `yaml:"sheets"`
	} `yaml:"sinks"`

	Schedule struct {
		Every time.Duration `yaml:"every"`
	} `yaml:"schedule"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultKeywords are the job types searched when none are configured.
var DefaultKeywords = []string{
	"Business Analyst",
	"Data Analyst",
	"Data Engineer",
	"Data Scientist",
	"Machine Learning",
}

func Default() Config {
	var cfg Config
	cfg.App.DataDir = "data"
	cfg.App.Dataset = "final_crawl_data"
	cfg.Keywords = append([]string(nil), DefaultKeywords...)

	cfg.Sites.JobsGo.Enabled = true
	cfg.Sites.TopCV.Enabled = true

	cfg.Fetch.Timeout = 30 * time.Second
	cfg.Fetch.RatePerSecond = 2
	cfg.Fetch.Burst = 2
	cfg.Fetch.Retry = fetch.DefaultPolicy()

	cfg.Sinks.CSV.Enabled = true
	cfg.Sinks.CSV.Dir = "."
	cfg.Sinks.SQLite.Enabled = true
	cfg.Sinks.SQLite.Path = "jobharvest.db"
	cfg.Sinks.Postgres.Schema = "public"
	cfg.Sinks.Postgres.MaxConns = 4

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads a YAML file over Default(); keys missing from the file keep
// their default.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Resolve returns p relative to App.DataDir unless it is absolute.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}
