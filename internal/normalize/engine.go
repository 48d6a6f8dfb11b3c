// Package normalize turns raw scraped records into typed, deduplicated jobs.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
)

// Engine applies the field rules and the tool lexicon. A malformed field is
// reported and left nil; it never fails the batch.
type Engine struct {
	lex *Lexicon
	obs events.Observer
	now func() time.Time
}

func New(lex *Lexicon, obs events.Observer) *Engine {
	if lex == nil {
		lex = DefaultLexicon()
	}
	if obs == nil {
		obs = events.Discard
	}
	return &Engine{lex: lex, obs: obs, now: time.Now}
}

// SetClock replaces the clock used when a posting date cannot be parsed.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

func (e *Engine) Lexicon() *Lexicon { return e.lex }

// Normalize converts every raw record, then drops later records whose JobID
// was already seen. removed is the number of dropped records.
func (e *Engine) Normalize(raw []domain.RawJob) (jobs []domain.Job, removed int) {
	jobs = make([]domain.Job, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		j := e.Record(r)
		if _, dup := seen[j.JobID]; dup {
			removed++
			continue
		}
		seen[j.JobID] = struct{}{}
		jobs = append(jobs, j)
	}
	if removed > 0 {
		events.Emit(e.obs, events.Event{Type: events.DuplicatesRemoved, Count: removed})
	}
	return jobs, removed
}

// Record normalizes a single raw record.
func (e *Engine) Record(r domain.RawJob) domain.Job {
	month, year := e.postingMonth(r)
	return domain.Job{
		Source:   r.Source,
		JobType:  r.JobType,
		Month:    month,
		Year:     year,
		JobID:    r.JobID,
		Title:    r.Title,
		Salary:   e.number(r, "salary", r.Salary, ParseSalary),
		Location: Location(r.Location),
		Exp:      e.number(r, "exp", r.Exp, ParseExp),
		Level:    Category(r.Level),
		Industry: Category(r.Industry),
		Company:  r.Company,
		Tools:    e.lex.Tools(r.Description),
	}
}

func (e *Engine) number(r domain.RawJob, field, text string, parse func(string) (*float64, error)) *float64 {
	v, err := parse(text)
	if err != nil {
		e.invalid(r, field, text, err)
		return nil
	}
	return v
}

func (e *Engine) postingMonth(r domain.RawJob) (month, year int) {
	t, err := time.Parse(domain.PostingDateLayout, strings.TrimSpace(r.PostingDate))
	if err != nil {
		e.invalid(r, "posting_date", r.PostingDate, fmt.Errorf("posting date: %w", err))
		t = e.now()
	}
	return int(t.Month()), t.Year()
}

func (e *Engine) invalid(r domain.RawJob, field, value string, err error) {
	events.Emit(e.obs, events.Event{
		Type:    events.FieldInvalid,
		Source:  r.Source,
		Keyword: r.JobType,
		URL:     r.URL,
		Field:   field,
		Value:   value,
		Err:     err,
	})
}
