// Package store holds the storage collaborators a harvest is saved to.
package store

import (
	"context"
	"slices"

	"jobharvest/internal/domain"
)

// Sink persists a normalized dataset under a logical name (file name,
// worksheet title, table tag). Implementations deduplicate on
// (job_id, month, year) after writing, keeping the last occurrence.
type Sink interface {
	Name() string
	Save(ctx context.Context, jobs []domain.Job, name string) error
}

type runIDKey struct{}

// WithRunID tags ctx with the harvest run that produced the data being
// saved. Sinks that keep history record it.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run tag set by WithRunID, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// DatasetName is the logical name runs save under unless configured.
const DatasetName = "final_crawl_data"

// Key columns shared by table-shaped sinks.
const (
	colJobID = "job_id"
	colMonth = "month"
	colYear  = "year"
)

// HasKeyColumns reports whether header names every dedupe key column.
func HasKeyColumns(header []string) bool {
	for _, want := range []string{colJobID, colMonth, colYear} {
		if !slices.Contains(header, want) {
			return false
		}
	}
	return true
}

// DedupRows drops earlier rows whose (job_id, month, year) reappears later,
// keeping the last occurrence at its original position. header names the
// columns of every row; rows missing a key column compare on what they
// have. It returns the kept rows and the number removed.
func DedupRows(header []string, rows [][]string) ([][]string, int) {
	idx := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		return -1
	}
	keyCols := []int{idx(colJobID), idx(colMonth), idx(colYear)}
	key := func(r []string) string {
		var k string
		for _, c := range keyCols {
			v := ""
			if c >= 0 && c < len(r) {
				v = r[c]
			}
			k += v + "\x00"
		}
		return k
	}

	last := make(map[string]int, len(rows))
	for i, r := range rows {
		last[key(r)] = i
	}
	out := make([][]string, 0, len(last))
	for i, r := range rows {
		if last[key(r)] == i {
			out = append(out, r)
		}
	}
	return out, len(rows) - len(out)
}

// Records projects jobs onto domain.Columns.
func Records(jobs []domain.Job) [][]string {
	out := make([][]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Record()
	}
	return out
}
