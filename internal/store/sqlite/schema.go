package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate brings the schema to the current PRAGMA user_version.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v < 1 {
		if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  dataset TEXT NOT NULL,
  source TEXT NOT NULL,
  job_type TEXT NOT NULL,
  month INTEGER NOT NULL,
  year INTEGER NOT NULL,
  job_id TEXT NOT NULL,
  job_title TEXT NOT NULL,
  salary REAL,
  location TEXT,
  exp REAL,
  level TEXT,
  industry TEXT,
  company_name TEXT NOT NULL,
  tools TEXT,
  saved_at TEXT NOT NULL
);
`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_key
ON jobs(dataset, job_id, month, year);
`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_jobs_period
ON jobs(year, month);
`); err != nil {
			return err
		}
	}

	if v < 2 {
		// run ids arrived after the first schema
		if !columnExists(ctx, tx, "jobs", "run_id") {
			if _, err := tx.ExecContext(ctx, `ALTER TABLE jobs ADD COLUMN run_id TEXT NOT NULL DEFAULT '';`); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 2;`); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func columnExists(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRowContext(ctx, query, col).Scan(&one)
	return err == nil
}
