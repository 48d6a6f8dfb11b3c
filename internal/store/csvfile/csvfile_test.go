package csvfile

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
)

func job(id, title string, month int) domain.Job {
	return domain.Job{
		Source: "JobsGo", JobType: "Data Analyst", Month: month, Year: 2025,
		JobID: id, Title: title, Salary: domain.Ptr(12.5), Location: domain.Ptr("Hà Nội"),
		Company: "Công ty A",
	}
}

func TestSaveCreatesWithBOM(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	require.NoError(t, s.Save(context.Background(), []domain.Job{job("1", "Chuyên viên dữ liệu", 6)}, "out"))

	b, err := os.ReadFile(s.Path("out"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, bom))

	header, rows, err := ReadAll(s.Path("out"))
	require.NoError(t, err)
	assert.Equal(t, domain.Columns, header)
	require.Len(t, rows, 1)
	assert.Equal(t, "Chuyên viên dữ liệu", rows[0][5])
	assert.Equal(t, "12.5", rows[0][6])
}

func TestSaveAppendsAndKeepsLastDuplicate(t *testing.T) {
	dir := t.TempDir()
	rec := &events.Recorder{}
	s := New(dir, rec)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []domain.Job{job("1", "old", 6), job("2", "two", 6)}, "out"))
	require.NoError(t, s.Save(ctx, []domain.Job{job("1", "new", 6), job("1", "july", 7)}, "out"))

	_, rows, err := ReadAll(s.Path("out"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "two", rows[0][5])
	assert.Equal(t, "new", rows[1][5])
	assert.Equal(t, "july", rows[2][5])

	deduped := rec.OfType(events.SinkDeduped)
	require.Len(t, deduped, 1)
	assert.Equal(t, 1, deduped[0].Count)

	b, err := os.ReadFile(s.Path("out"))
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(b, bom), "rewrite keeps a single BOM")
}

func TestSaveAppendWithoutDuplicatesLeavesFile(t *testing.T) {
	dir := t.TempDir()
	rec := &events.Recorder{}
	s := New(dir, rec)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []domain.Job{job("1", "a", 6)}, "out"))
	require.NoError(t, s.Save(ctx, []domain.Job{job("2", "b", 6)}, "out"))

	_, rows, err := ReadAll(s.Path("out"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Empty(t, rec.OfType(events.SinkDeduped))
	assert.Len(t, rec.OfType(events.SinkSaved), 2)
}

func TestSaveIntoEmptyFileWritesHeader(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	require.NoError(t, os.WriteFile(s.Path("out"), nil, 0o644))

	jobs := []domain.Job{job("1", "a", 6), job("2", "b", 6)}
	require.NoError(t, s.Save(context.Background(), jobs, "out"))

	header, rows, err := ReadAll(s.Path("out"))
	require.NoError(t, err)
	assert.Equal(t, domain.Columns, header)
	assert.Len(t, rows, 2)
}

func TestSaveIntoHeaderlessFileKeepsRows(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	old := strings.Join(job("1", "old", 6).Record(), ",") + "\n"
	require.NoError(t, os.WriteFile(s.Path("out"), []byte(old), 0o644))

	jobs := []domain.Job{job("1", "new", 6), job("2", "b", 6)}
	require.NoError(t, s.Save(context.Background(), jobs, "out"))

	header, rows, err := ReadAll(s.Path("out"))
	require.NoError(t, err)
	assert.Equal(t, domain.Columns, header)
	require.Len(t, rows, 2)
	assert.Equal(t, "new", rows[0][5])
	assert.Equal(t, "b", rows[1][5])
}
