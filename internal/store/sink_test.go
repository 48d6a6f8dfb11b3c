package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobharvest/internal/domain"
)

func TestDedupRowsKeepsLast(t *testing.T) {
	header := []string{"source", "month", "year", "job_id", "job_title"}
	rows := [][]string{
		{"A", "6", "2025", "1", "old"},
		{"A", "6", "2025", "2", "other"},
		{"A", "7", "2025", "1", "next month"},
		{"B", "6", "2025", "1", "new"},
	}
	got, removed := DedupRows(header, rows)
	assert.Equal(t, 1, removed)
	assert.Equal(t, [][]string{
		{"A", "6", "2025", "2", "other"},
		{"A", "7", "2025", "1", "next month"},
		{"B", "6", "2025", "1", "new"},
	}, got)
}

func TestDedupRowsNoDuplicates(t *testing.T) {
	rows := [][]string{{"1"}, {"2"}}
	got, removed := DedupRows([]string{"job_id"}, rows)
	assert.Zero(t, removed)
	assert.Equal(t, rows, got)
}

func TestRecords(t *testing.T) {
	recs := Records([]domain.Job{{Source: "TopCV", JobID: "9", Month: 1, Year: 2025}})
	assert.Len(t, recs, 1)
	assert.Len(t, recs[0], len(domain.Columns))
	assert.Equal(t, "9", recs[0][4])
}

func TestHasKeyColumns(t *testing.T) {
	assert.True(t, HasKeyColumns(domain.Columns))
	assert.False(t, HasKeyColumns(nil))
	assert.False(t, HasKeyColumns([]string{"job_id", "month"}))
}
