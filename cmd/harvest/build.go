package main

import (
	"context"
	"errors"
	"fmt"

	"jobharvest/internal/config"
	"jobharvest/internal/domain"
	"jobharvest/internal/events"
	"jobharvest/internal/fetch"
	"jobharvest/internal/normalize"
	"jobharvest/internal/scrape"
	"jobharvest/internal/scrape/jobsgo"
	"jobharvest/internal/scrape/topcv"
	"jobharvest/internal/secrets"
	"jobharvest/internal/store"
	"jobharvest/internal/store/csvfile"
	"jobharvest/internal/store/postgres"
	"jobharvest/internal/store/sheets"
	"jobharvest/internal/store/sqlite"
)

// buildAdapters creates one fetch client per enabled site. All clients
// share a per-host rate limiter.
func buildAdapters(cfg config.Config, obs events.Observer) ([]scrape.Adapter, error) {
	lim := fetch.NewHostLimiter(cfg.Fetch.RatePerSecond, cfg.Fetch.Burst)

	client := func(sc scrape.SiteConfig) (*fetch.Client, error) {
		opts := sc.ClientOptions(cfg.Fetch.Retry, cfg.Fetch.Timeout, lim)
		opts.Observer = obs
		c, err := fetch.New(opts)
		if err != nil {
			return nil, fmt.Errorf("%s client: %w", sc.Name, err)
		}
		return c, nil
	}

	var out []scrape.Adapter
	if cfg.Sites.JobsGo.Enabled {
		sc := cfg.Sites.JobsGo.Apply(jobsgo.DefaultConfig())
		c, err := client(sc)
		if err != nil {
			return nil, err
		}
		a, err := jobsgo.New(sc, c, obs)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if cfg.Sites.TopCV.Enabled {
		sc := cfg.Sites.TopCV.Apply(topcv.DefaultConfig())
		c, err := client(sc)
		if err != nil {
			return nil, err
		}
		a, err := topcv.New(sc, c, obs)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil, errors.New("no sites enabled")
	}
	return out, nil
}

func buildLexicon(cfg config.Config) *normalize.Lexicon {
	terms := cfg.Lexicon.Terms
	if len(terms) == 0 {
		terms = normalize.DefaultTerms
	}
	all := make([]string, 0, len(terms)+len(cfg.Lexicon.Extra))
	all = append(all, terms...)
	all = append(all, cfg.Lexicon.Extra...)
	return normalize.NewLexicon(all)
}

// unavailable stands in for a sink whose backend could not be opened, so the
// failure is reported with the other save results.
type unavailable struct {
	name string
	err  error
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) Save(context.Context, []domain.Job, string) error { return u.err }

// buildSinks opens every enabled sink. The returned func closes them.
func buildSinks(ctx context.Context, cfg config.Config, obs events.Observer) ([]store.Sink, func()) {
	var (
		sinks   []store.Sink
		closers []func()
	)
	s := cfg.Sinks

	if s.CSV.Enabled {
		sinks = append(sinks, csvfile.New(cfg.Resolve(s.CSV.Dir), obs))
	}
	if s.SQLite.Enabled {
		db, err := sqlite.Open(ctx, cfg.Resolve(s.SQLite.Path))
		if err != nil {
			sinks = append(sinks, unavailable{name: "SQLite", err: err})
		} else {
			sinks = append(sinks, sqlite.NewSink(db, obs))
			closers = append(closers, func() { _ = db.Close() })
		}
	}
	if s.Postgres.Enabled {
		pg, err := postgres.Open(ctx, postgres.Options{
			DSN:      s.Postgres.DSN,
			Schema:   s.Postgres.Schema,
			MaxConns: s.Postgres.MaxConns,
		}, obs)
		if err != nil {
			sinks = append(sinks, unavailable{name: "Postgres", err: err})
		} else {
			sinks = append(sinks, pg)
			closers = append(closers, pg.Close)
		}
	}
	if s.Sheets.Enabled {
		connect := func(ctx context.Context, id string) (sheets.API, error) {
			creds, err := secrets.SheetsCredentials(cfg)
			if err != nil {
				return nil, err
			}
			return sheets.ServiceAccount(creds)(ctx, id)
		}
		sinks = append(sinks, sheets.New(s.Sheets.SpreadsheetID, connect, obs))
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}
