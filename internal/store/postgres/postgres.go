// Package postgres upserts harvested jobs into a Postgres table.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
	"jobharvest/internal/store"
)

const defaultBatch = 200

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Options struct {
	DSN      string
	Schema   string
	MaxConns int32
	Batch    int
	// SimpleProtocol disables prepared statements for PgBouncer in
	// transaction mode.
	SimpleProtocol bool
}

type Sink struct {
	pool  *pgxpool.Pool
	table string
	batch int
	obs   events.Observer
}

var _ store.Sink = (*Sink)(nil)

// Open connects, pings and ensures the jobs table exists.
func Open(ctx context.Context, opts Options, obs events.Observer) (*Sink, error) {
	if opts.Schema == "" {
		opts.Schema = "public"
	}
	if !identRe.MatchString(opts.Schema) {
		return nil, fmt.Errorf("postgres schema %q is not a plain identifier", opts.Schema)
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = 4
	}
	if opts.Batch <= 0 {
		opts.Batch = defaultBatch
	}
	if obs == nil {
		obs = events.Discard
	}

	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	cfg.MaxConns = opts.MaxConns
	cfg.MaxConnLifetime = time.Hour
	if opts.SimpleProtocol {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &Sink{pool: pool, table: fmt.Sprintf(`"%s".harvested_jobs`, opts.Schema), batch: opts.Batch, obs: obs}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Sink) Name() string { return "Postgres" }

func (s *Sink) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS `+s.table+` (
  dataset      TEXT NOT NULL,
  source       TEXT NOT NULL,
  job_type     TEXT NOT NULL,
  month        INTEGER NOT NULL,
  year         INTEGER NOT NULL,
  job_id       TEXT NOT NULL,
  job_title    TEXT NOT NULL,
  salary       DOUBLE PRECISION,
  location     TEXT,
  exp          DOUBLE PRECISION,
  level        TEXT,
  industry     TEXT,
  company_name TEXT NOT NULL,
  tools        TEXT,
  saved_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (dataset, job_id, month, year)
)`)
	if err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// Save queues one upsert per job in batches. Rows are applied in order, so
// a later duplicate overwrites an earlier one.
func (s *Sink) Save(ctx context.Context, jobs []domain.Job, name string) error {
	total := 0
	for i := 0; i < len(jobs); i += s.batch {
		j := i + s.batch
		if j > len(jobs) {
			j = len(jobs)
		}
		b := &pgx.Batch{}
		for _, job := range jobs[i:j] {
			b.Queue(`INSERT INTO `+s.table+`
				(dataset, source, job_type, month, year, job_id, job_title, salary, location,
				 exp, level, industry, company_name, tools, saved_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, now())
				ON CONFLICT (dataset, job_id, month, year) DO UPDATE SET
				  source = EXCLUDED.source,
				  job_type = EXCLUDED.job_type,
				  job_title = EXCLUDED.job_title,
				  salary = EXCLUDED.salary,
				  location = EXCLUDED.location,
				  exp = EXCLUDED.exp,
				  level = EXCLUDED.level,
				  industry = EXCLUDED.industry,
				  company_name = EXCLUDED.company_name,
				  tools = EXCLUDED.tools,
				  saved_at = EXCLUDED.saved_at`,
				name, job.Source, job.JobType, job.Month, job.Year, job.JobID, job.Title,
				job.Salary, job.Location, job.Exp, job.Level, job.Industry, job.Company, job.Tools,
			)
		}
		br := s.pool.SendBatch(ctx, b)
		for k := i; k < j; k++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("upsert job %q: %w", jobs[k].JobID, err)
			}
			total++
		}
		if err := br.Close(); err != nil {
			return err
		}
	}
	events.Emit(s.obs, events.Event{Type: events.SinkSaved, Source: s.Name(), Value: name, Count: total})
	return nil
}

// Count returns the number of stored rows for a dataset.
func (s *Sink) Count(ctx context.Context, dataset string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+s.table+` WHERE dataset = $1`, dataset).Scan(&n)
	return n, err
}
