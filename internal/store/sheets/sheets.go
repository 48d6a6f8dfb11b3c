// Package sheets saves datasets to a worksheet of a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
	"jobharvest/internal/store"
)

// New worksheets get this grid.
const (
	DefaultRows = 10000
	DefaultCols = 30
)

var ErrNoSpreadsheet = errors.New("sheets: spreadsheet id not configured")

// API is the slice of the Sheets service the sink needs. Titles name
// worksheets inside one spreadsheet.
type API interface {
	SheetTitles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string, rows, cols int) error
	Values(ctx context.Context, title string) ([][]string, error)
	Clear(ctx context.Context, title string) error
	Update(ctx context.Context, title string, rows [][]string) error
	Append(ctx context.Context, title string, rows [][]string) error
}

// Connector opens the spreadsheet with the given id.
type Connector func(ctx context.Context, spreadsheetID string) (API, error)

type Sink struct {
	id      string
	connect Connector
	obs     events.Observer
}

var _ store.Sink = (*Sink)(nil)

func New(spreadsheetID string, connect Connector, obs events.Observer) *Sink {
	if obs == nil {
		obs = events.Discard
	}
	return &Sink{id: spreadsheetID, connect: connect, obs: obs}
}

func (s *Sink) Name() string { return "Google Sheets" }

// Save writes jobs to the worksheet titled name, creating it when missing.
// A worksheet holding at most a header is overwritten; otherwise the rows
// are appended and the whole sheet is rewritten without (job_id, month,
// year) duplicates, keeping the last occurrence.
func (s *Sink) Save(ctx context.Context, jobs []domain.Job, name string) error {
	if len(jobs) == 0 {
		events.Emit(s.obs, events.Event{Type: events.SinkSkipped, Source: s.Name(), Value: "no data to save"})
		return nil
	}
	if s.id == "" {
		return ErrNoSpreadsheet
	}
	if s.connect == nil {
		return errors.New("sheets: no credentials configured")
	}
	api, err := s.connect(ctx, s.id)
	if err != nil {
		return fmt.Errorf("sheets connect: %w", err)
	}

	if err := ensureSheet(ctx, api, name); err != nil {
		return err
	}
	existing, err := api.Values(ctx, name)
	if err != nil {
		return fmt.Errorf("sheets read: %w", err)
	}

	rows := store.Records(jobs)
	if len(existing) <= 1 {
		if err := rewrite(ctx, api, name, domain.Columns, rows); err != nil {
			return err
		}
		events.Emit(s.obs, events.Event{Type: events.SinkSaved, Source: s.Name(), URL: name, Count: len(rows)})
		return nil
	}

	if err := api.Append(ctx, name, rows); err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	all, err := api.Values(ctx, name)
	if err != nil {
		return fmt.Errorf("sheets read back: %w", err)
	}
	if len(all) == 0 {
		return fmt.Errorf("sheets read back %q: empty after append", name)
	}
	header := all[0]
	kept, removed := store.DedupRows(header, all[1:])
	if err := rewrite(ctx, api, name, header, kept); err != nil {
		return err
	}
	if removed > 0 {
		events.Emit(s.obs, events.Event{Type: events.SinkDeduped, Source: s.Name(), URL: name, Count: removed})
	}
	events.Emit(s.obs, events.Event{Type: events.SinkSaved, Source: s.Name(), URL: name, Count: len(rows)})
	return nil
}

func ensureSheet(ctx context.Context, api API, title string) error {
	titles, err := api.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("sheets list: %w", err)
	}
	for _, t := range titles {
		if t == title {
			return nil
		}
	}
	if err := api.AddSheet(ctx, title, DefaultRows, DefaultCols); err != nil {
		return fmt.Errorf("sheets add %q: %w", title, err)
	}
	return nil
}

func rewrite(ctx context.Context, api API, title string, header []string, rows [][]string) error {
	if err := api.Clear(ctx, title); err != nil {
		return fmt.Errorf("sheets clear: %w", err)
	}
	values := make([][]string, 0, len(rows)+1)
	values = append(values, header)
	values = append(values, rows...)
	if err := api.Update(ctx, title, values); err != nil {
		return fmt.Errorf("sheets update: %w", err)
	}
	return nil
}
