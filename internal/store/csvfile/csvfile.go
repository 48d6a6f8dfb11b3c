// Package csvfile saves datasets as UTF-8 CSV files with a BOM so
// spreadsheet tools read Vietnamese text correctly.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
	"jobharvest/internal/store"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

type Sink struct {
	dir string
	obs events.Observer
}

var _ store.Sink = (*Sink)(nil)

func New(dir string, obs events.Observer) *Sink {
	if obs == nil {
		obs = events.Discard
	}
	return &Sink{dir: dir, obs: obs}
}

func (s *Sink) Name() string { return "CSV" }

// Path is the file a dataset name is written to.
func (s *Sink) Path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

// Save creates <dir>/<name>.csv with a header, or appends to it and then
// removes (job_id, month, year) duplicates keeping the last row. A lock file
// next to the CSV serializes concurrent writers.
func (s *Sink) Save(ctx context.Context, jobs []domain.Job, name string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("csv dir: %w", err)
	}
	path := s.Path(name)

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("csv lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("csv lock %s: not acquired", path)
	}
	defer func() { _ = lock.Unlock() }()

	rows := store.Records(jobs)

	header, prev, err := readAll(path)
	switch {
	case errors.Is(err, os.ErrNotExist), err == nil && header == nil:
		if err := writeAtomic(path, domain.Columns, rows); err != nil {
			return err
		}
		events.Emit(s.obs, events.Event{Type: events.SinkSaved, Source: s.Name(), URL: path, Count: len(rows)})
		return nil
	case err != nil:
		return err
	case !store.HasKeyColumns(header):
		// Headerless file: its first line is data.
		all := append(append([][]string{header}, prev...), rows...)
		return s.rewrite(path, domain.Columns, all, len(rows), true)
	}

	if err := appendRows(path, rows); err != nil {
		return err
	}
	header, all, err := readAll(path)
	if err != nil {
		return err
	}
	return s.rewrite(path, header, all, len(rows), false)
}

// rewrite dedupes all and replaces the file when rows were dropped or force
// is set.
func (s *Sink) rewrite(path string, header []string, all [][]string, saved int, force bool) error {
	kept, removed := store.DedupRows(header, all)
	if removed > 0 || force {
		if err := writeAtomic(path, header, kept); err != nil {
			return err
		}
	}
	if removed > 0 {
		events.Emit(s.obs, events.Event{Type: events.SinkDeduped, Source: s.Name(), URL: path, Count: removed})
	}
	events.Emit(s.obs, events.Event{Type: events.SinkSaved, Source: s.Name(), URL: path, Count: saved})
	return nil
}

func appendRows(path string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("csv open: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv append: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadAll returns the header and data rows of a CSV written by Save.
func ReadAll(path string) (header []string, rows [][]string, err error) {
	return readAll(path)
}

func readAll(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csv open: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if first, _ := br.Peek(3); len(first) == 3 && first[0] == bom[0] && first[1] == bom[1] && first[2] == bom[2] {
		_, _ = br.Discard(3)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("csv header: %w", err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("csv read: %w", err)
	}
	return header, rows, nil
}

// writeAtomic writes BOM, header and rows to a temp file and renames it
// over path.
func writeAtomic(path string, header []string, rows [][]string) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("csv create: %w", err)
	}
	if _, err := f.Write(bom); err != nil {
		_ = f.Close()
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv write: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
