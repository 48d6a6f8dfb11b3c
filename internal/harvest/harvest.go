// Package harvest drives the site adapters over the keyword list, normalizes
// the combined result once and hands it to every storage sink.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
	"jobharvest/internal/normalize"
	"jobharvest/internal/scrape"
	"jobharvest/internal/store"
)

type Options struct {
	Keywords []string
	Dataset  string // store.DatasetName when empty
	Observer events.Observer
}

type Coordinator struct {
	adapters []scrape.Adapter
	engine   *normalize.Engine
	sinks    []store.Sink
	keywords []string
	dataset  string
	obs      events.Observer
	now      func() time.Time
}

func New(adapters []scrape.Adapter, engine *normalize.Engine, sinks []store.Sink, opts Options) (*Coordinator, error) {
	if len(adapters) == 0 {
		return nil, errors.New("harvest: no adapters")
	}
	if len(opts.Keywords) == 0 {
		return nil, errors.New("harvest: no keywords")
	}
	if engine == nil {
		return nil, errors.New("harvest: nil normalization engine")
	}
	obs := opts.Observer
	if obs == nil {
		obs = events.Discard
	}
	dataset := opts.Dataset
	if dataset == "" {
		dataset = store.DatasetName
	}
	return &Coordinator{
		adapters: append([]scrape.Adapter(nil), adapters...),
		engine:   engine,
		sinks:    append([]store.Sink(nil), sinks...),
		keywords: append([]string(nil), opts.Keywords...),
		dataset:  dataset,
		obs:      obs,
		now:      time.Now,
	}, nil
}

// SetClock replaces the clock used for report timestamps.
func (c *Coordinator) SetClock(now func() time.Time) { c.now = now }

// KeywordFailure records a (source, keyword) pair whose harvest was
// abandoned.
type KeywordFailure struct {
	Source  string
	Keyword string
	Err     error
}

type Report struct {
	RunID      string
	Dataset    string
	StartedAt  time.Time
	FinishedAt time.Time
	Raw        int
	Jobs       []domain.Job
	Removed    int
	Failures   []KeywordFailure
	SinkErrors map[string]error
	Summary    normalize.Summary
}

// Err joins the sink errors, nil when every sink succeeded.
func (r Report) Err() error {
	names := make([]string, 0, len(r.SinkErrors))
	for n := range r.SinkErrors {
		names = append(names, n)
	}
	sort.Strings(names)
	var errs []error
	for _, n := range names {
		errs = append(errs, fmt.Errorf("%s: %w", n, r.SinkErrors[n]))
	}
	return errors.Join(errs...)
}

// Collect runs every adapter over every keyword, one source at a time and
// keywords in order. A keyword that fails contributes nothing and is
// reported; the rest continue. The error is non-nil only when ctx ends.
func (c *Coordinator) Collect(ctx context.Context) ([]domain.RawJob, []KeywordFailure, error) {
	var (
		raw      []domain.RawJob
		failures []KeywordFailure
	)
	for _, a := range c.adapters {
		before := len(raw)
		for _, kw := range c.keywords {
			if err := ctx.Err(); err != nil {
				return raw, failures, err
			}
			jobs, err := a.Harvest(ctx, kw)
			if err != nil {
				if ctx.Err() != nil {
					return raw, failures, ctx.Err()
				}
				failures = append(failures, KeywordFailure{Source: a.Name(), Keyword: kw, Err: err})
				events.Emit(c.obs, events.Event{Type: events.KeywordFailed, Source: a.Name(), Keyword: kw, Err: err})
				continue
			}
			raw = append(raw, jobs...)
			events.Emit(c.obs, events.Event{Type: events.KeywordDone, Source: a.Name(), Keyword: kw, Count: len(jobs)})
		}
		events.Emit(c.obs, events.Event{Type: events.SourceDone, Source: a.Name(), Count: len(raw) - before})
	}
	return raw, failures, nil
}

// Run collects, normalizes and saves. Sinks save concurrently and a failing
// sink never stops the others; their errors land in Report.SinkErrors. When
// nothing was harvested no sink is called.
func (c *Coordinator) Run(ctx context.Context) (Report, error) {
	rep := Report{
		RunID:      uuid.NewString(),
		Dataset:    c.dataset,
		StartedAt:  c.now(),
		SinkErrors: map[string]error{},
	}

	raw, failures, err := c.Collect(ctx)
	rep.Raw = len(raw)
	rep.Failures = failures
	if err != nil {
		rep.FinishedAt = c.now()
		return rep, err
	}
	if len(raw) == 0 {
		for _, s := range c.sinks {
			events.Emit(c.obs, events.Event{Type: events.SinkSkipped, Source: s.Name(), Value: "no data harvested"})
		}
		rep.Summary = normalize.Summarize(nil)
		rep.FinishedAt = c.now()
		return rep, nil
	}

	rep.Jobs, rep.Removed = c.engine.Normalize(raw)
	rep.Summary = normalize.Summarize(rep.Jobs)
	rep.SinkErrors = c.save(store.WithRunID(ctx, rep.RunID), rep.Jobs)
	rep.FinishedAt = c.now()
	return rep, nil
}

func (c *Coordinator) save(ctx context.Context, jobs []domain.Job) map[string]error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs = map[string]error{}
	)
	for _, s := range c.sinks {
		g.Go(func() error {
			if err := s.Save(ctx, jobs, c.dataset); err != nil {
				mu.Lock()
				errs[s.Name()] = err
				mu.Unlock()
				events.Emit(c.obs, events.Event{Type: events.SinkFailed, Source: s.Name(), Value: c.dataset, Err: err})
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
