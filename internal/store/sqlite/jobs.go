package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
	"jobharvest/internal/store"
)

// Sink upserts jobs keyed on (dataset, job_id, month, year); a later save
// of the same key overwrites the earlier row.
type Sink struct {
	db    *DB
	obs   events.Observer
	runID string
}

var _ store.Sink = (*Sink)(nil)

func NewSink(db *DB, obs events.Observer) *Sink {
	if obs == nil {
		obs = events.Discard
	}
	return &Sink{db: db, obs: obs}
}

// WithRunID tags rows written by later saves, overriding the run id carried
// by the save context.
func (s *Sink) WithRunID(id string) *Sink {
	cp := *s
	cp.runID = id
	return &cp
}

func (s *Sink) Name() string { return "SQLite" }

func (s *Sink) Save(ctx context.Context, jobs []domain.Job, name string) error {
	tx, err := s.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO jobs (dataset, source, job_type, month, year, job_id, job_title, salary, location,
                  exp, level, industry, company_name, tools, saved_at, run_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(dataset, job_id, month, year) DO UPDATE SET
  source = excluded.source,
  job_type = excluded.job_type,
  job_title = excluded.job_title,
  salary = excluded.salary,
  location = excluded.location,
  exp = excluded.exp,
  level = excluded.level,
  industry = excluded.industry,
  company_name = excluded.company_name,
  tools = excluded.tools,
  saved_at = excluded.saved_at,
  run_id = excluded.run_id;`)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	runID := s.runID
	if runID == "" {
		runID = store.RunID(ctx)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, j := range jobs {
		if _, err := stmt.ExecContext(ctx,
			name, j.Source, j.JobType, j.Month, j.Year, j.JobID, j.Title,
			nullFloat(j.Salary), nullString(j.Location), nullFloat(j.Exp),
			nullString(j.Level), nullString(j.Industry), j.Company, nullString(j.Tools),
			now, runID,
		); err != nil {
			return fmt.Errorf("upsert job %q: %w", j.JobID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	events.Emit(s.obs, events.Event{Type: events.SinkSaved, Source: s.Name(), Value: name, Count: len(jobs)})
	return nil
}

type ListOpts struct {
	Dataset string
	Source  string // empty for all
	Sort    string // salary | exp | title | company | period
	Limit   int
}

// List returns saved jobs of a dataset, newest period first unless sorted
// otherwise.
func (d *DB) List(ctx context.Context, opts ListOpts) ([]domain.Job, error) {
	if opts.Dataset == "" {
		opts.Dataset = store.DatasetName
	}
	if opts.Limit <= 0 || opts.Limit > 5000 {
		opts.Limit = 500
	}

	// whitelist sort columns (prevents SQL injection)
	order := map[string]string{
		"salary":  "salary DESC",
		"exp":     "exp DESC",
		"title":   "job_title ASC",
		"company": "company_name ASC",
		"period":  "year DESC, month DESC",
	}[opts.Sort]
	if order == "" {
		order = "year DESC, month DESC"
	}

	where := "WHERE dataset = ?"
	args := []any{opts.Dataset}
	if opts.Source != "" {
		where += " AND source = ?"
		args = append(args, opts.Source)
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT source, job_type, month, year, job_id, job_title, salary, location, exp, level,
       industry, company_name, tools
FROM jobs
%s
ORDER BY %s, id ASC
LIMIT ?;
`, where, order)

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		var (
			j                                domain.Job
			salary, exp                      sql.NullFloat64
			location, level, industry, tools sql.NullString
		)
		if err := rows.Scan(&j.Source, &j.JobType, &j.Month, &j.Year, &j.JobID, &j.Title,
			&salary, &location, &exp, &level, &industry, &j.Company, &tools); err != nil {
			return nil, err
		}
		j.Salary = floatPtr(salary)
		j.Exp = floatPtr(exp)
		j.Location = stringPtr(location)
		j.Level = stringPtr(level)
		j.Industry = stringPtr(industry)
		j.Tools = stringPtr(tools)
		out = append(out, j)
	}
	return out, rows.Err()
}

// Count returns the number of stored rows in a dataset.
func (d *DB) Count(ctx context.Context, dataset string) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE dataset = ?;`, dataset).Scan(&n)
	return n, err
}

// CleanupBefore deletes rows of periods older than (year, month).
func (d *DB) CleanupBefore(ctx context.Context, year, month int) (int64, error) {
	res, err := d.Pool.ExecContext(ctx, `
DELETE FROM jobs
WHERE year < ? OR (year = ? AND month < ?);
`, year, year, month)
	if err != nil {
		return 0, fmt.Errorf("cleanup old jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}
