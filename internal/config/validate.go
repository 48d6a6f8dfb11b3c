package config

import (
	"fmt"
	"strings"
	"time"

	"jobharvest/internal/fetch"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// NormalizeAndValidate returns a normalized copy of cfg (trimmed,
// de-duplicated keyword and term lists) and everything wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Keywords = trimList(out.Keywords)
	out.Lexicon.Terms = trimList(out.Lexicon.Terms)
	out.Lexicon.Extra = trimList(out.Lexicon.Extra)
	out.Log.Level = strings.ToLower(strings.TrimSpace(out.Log.Level))
	out.Log.Format = strings.ToLower(strings.TrimSpace(out.Log.Format))

	if len(out.Keywords) == 0 {
		res.addErr("keywords must have at least 1 entry")
	}
	ds := strings.TrimSpace(out.App.Dataset)
	if ds == "" {
		res.addErr("app.dataset is required")
	} else if strings.ContainsAny(ds, `/\`) {
		res.addErr("app.dataset %q must not contain path separators", ds)
	}

	// sites
	if !out.Sites.JobsGo.Enabled && !out.Sites.TopCV.Enabled {
		res.addErr("no sites enabled: enable sites.jobsgo or sites.topcv")
	}
	checkSite := func(name string, s Site) {
		if s.BaseURL != "" && !strings.HasPrefix(s.BaseURL, "http://") && !strings.HasPrefix(s.BaseURL, "https://") {
			res.addErr("sites.%s.base_url %q must be absolute", name, s.BaseURL)
		}
		if s.PageSize < 0 {
			res.addErr("sites.%s.page_size must be >= 0", name)
		}
		if s.Selectors != nil {
			if err := s.Selectors.Validate(); err != nil {
				res.addErr("sites.%s.selectors: %v", name, err)
			}
		}
	}
	checkSite("jobsgo", out.Sites.JobsGo)
	checkSite("topcv", out.Sites.TopCV)

	// fetch
	if out.Fetch.Timeout <= 0 {
		res.addErr("fetch.timeout must be > 0")
	}
	if out.Fetch.RatePerSecond < 0 {
		res.addErr("fetch.rate_per_second must be >= 0 (0 disables limiting)")
	}
	if out.Fetch.Burst < 0 {
		res.addErr("fetch.burst must be >= 0")
	}
	p := out.Fetch.Retry
	if p.MaxAttempts < 1 {
		res.addErr("fetch.retry.max_attempts must be >= 1")
	}
	if p.BaseDelay < 0 {
		res.addErr("fetch.retry.base_delay must be >= 0")
	}
	checkSpan := func(name string, s fetch.Span) {
		if s.Min < 0 || s.Max < s.Min {
			res.addErr("fetch.retry.%s must satisfy 0 <= min <= max", name)
		}
	}
	checkSpan("hint_jitter", p.HintJitter)
	checkSpan("timeout_jitter", p.TimeoutJitter)
	checkSpan("transport_jitter", p.TransportJitter)
	for i, s := range p.RetryStatus {
		if s < 100 || s > 599 {
			res.addErr("fetch.retry.retry_status[%d] = %d is not an HTTP status", i, s)
		}
	}

	// sinks
	s := out.Sinks
	if !s.CSV.Enabled && !s.SQLite.Enabled && !s.Postgres.Enabled && !s.Sheets.Enabled {
		res.addWarn("no sinks enabled; harvested data will only be summarized")
	}
	if s.CSV.Enabled && strings.TrimSpace(s.CSV.Dir) == "" {
		res.addErr("sinks.csv.dir is required when sinks.csv.enabled=true")
	}
	if s.SQLite.Enabled && strings.TrimSpace(s.SQLite.Path) == "" {
		res.addErr("sinks.sqlite.path is required when sinks.sqlite.enabled=true")
	}
	if s.Postgres.Enabled {
		if strings.TrimSpace(s.Postgres.DSN) == "" {
			res.addErr("sinks.postgres.dsn is required when sinks.postgres.enabled=true")
		}
		if s.Postgres.MaxConns < 0 {
			res.addErr("sinks.postgres.max_conns must be >= 0")
		}
	}
	// credentials are not required here; they may live in the keychain
	if s.Sheets.Enabled && strings.TrimSpace(s.Sheets.SpreadsheetID) == "" {
		res.addErr("sinks.sheets.spreadsheet_id is required when sinks.sheets.enabled=true")
	}

	if out.Schedule.Every < 0 {
		res.addErr("schedule.every must be >= 0")
	} else if out.Schedule.Every > 0 && out.Schedule.Every < time.Minute {
		res.addWarn("schedule.every is very low (%s) and may get the crawler blocked.", out.Schedule.Every)
	}

	if !logLevels[out.Log.Level] {
		res.addErr("log.level %q must be one of debug, info, warn, error", out.Log.Level)
	}
	if out.Log.Format != "text" && out.Log.Format != "json" {
		res.addErr("log.format %q must be text or json", out.Log.Format)
	}

	return out, res
}
