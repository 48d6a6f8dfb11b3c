package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file into the process environment. A missing file is
// not an error; variables already set win over the file.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from HARVEST_* variables. GOOGLE_SHEET_ID and
// GOOGLE_APPLICATION_CREDENTIALS are honored for the Sheets sink.
func ApplyEnv(cfg *Config) error {
	var errs []string

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q: %v", key, v, err))
			return
		}
		*dst = b
	}
	duration := func(key string, dst *time.Duration) {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q: %v", key, v, err))
			return
		}
		*dst = d
	}

	if v := os.Getenv("HARVEST_KEYWORDS"); strings.TrimSpace(v) != "" {
		cfg.Keywords = strings.Split(v, ",")
	}
	str("HARVEST_DATA_DIR", &cfg.App.DataDir)
	str("HARVEST_DATASET", &cfg.App.Dataset)

	duration("HARVEST_FETCH_TIMEOUT", &cfg.Fetch.Timeout)
	if v := strings.TrimSpace(os.Getenv("HARVEST_RATE_PER_SECOND")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("HARVEST_RATE_PER_SECOND=%q: %v", v, err))
		} else {
			cfg.Fetch.RatePerSecond = f
		}
	}

	boolean("HARVEST_CSV_ENABLED", &cfg.Sinks.CSV.Enabled)
	str("HARVEST_CSV_DIR", &cfg.Sinks.CSV.Dir)
	boolean("HARVEST_SQLITE_ENABLED", &cfg.Sinks.SQLite.Enabled)
	str("HARVEST_SQLITE_PATH", &cfg.Sinks.SQLite.Path)
	boolean("HARVEST_PG_ENABLED", &cfg.Sinks.Postgres.Enabled)
	str("HARVEST_PG_DSN", &cfg.Sinks.Postgres.DSN)
	str("HARVEST_PG_SCHEMA", &cfg.Sinks.Postgres.Schema)
	boolean("HARVEST_SHEETS_ENABLED", &cfg.Sinks.Sheets.Enabled)
	str("GOOGLE_SHEET_ID", &cfg.Sinks.Sheets.SpreadsheetID)
	str("HARVEST_SHEETS_ID", &cfg.Sinks.Sheets.SpreadsheetID)
	str("GOOGLE_APPLICATION_CREDENTIALS", &cfg.Sinks.Sheets.CredentialsFile)
	str("HARVEST_SHEETS_CREDENTIALS", &cfg.Sinks.Sheets.CredentialsFile)

	duration("HARVEST_EVERY", &cfg.Schedule.Every)
	str("HARVEST_LOG_LEVEL", &cfg.Log.Level)
	str("HARVEST_LOG_FORMAT", &cfg.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("environment: %s", strings.Join(errs, "; "))
	}
	return nil
}
