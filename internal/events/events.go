package events

import (
	"encoding/json"
	"sync"
	"time"
)

type Type string

const (
	WarmupFailed Type = "fetch.warmup_failed"
	RetryWait    Type = "fetch.retry_wait"
	FetchFailed  Type = "fetch.failed"

	NoResults    Type = "scrape.no_results"
	CountFailed  Type = "scrape.count_failed"
	PageFetched  Type = "scrape.page"
	DetailFailed Type = "scrape.detail_failed"

	KeywordDone   Type = "harvest.keyword_done"
	KeywordFailed Type = "harvest.keyword_failed"
	SourceDone    Type = "harvest.source_done"

	FieldInvalid      Type = "normalize.field_invalid"
	DuplicatesRemoved Type = "normalize.duplicates_removed"

	SinkSaved   Type = "store.saved"
	SinkFailed  Type = "store.failed"
	SinkSkipped Type = "store.skipped"
	SinkDeduped Type = "store.deduped"
)

// Event is one observable occurrence during a harvest. Only the fields that
// make sense for Type are set.
type Event struct {
	Type    Type          `json:"type"`
	At      time.Time     `json:"at"`
	Source  string        `json:"source,omitempty"`
	Keyword string        `json:"keyword,omitempty"`
	URL     string        `json:"url,omitempty"`
	Field   string        `json:"field,omitempty"`
	Value   string        `json:"value,omitempty"`
	Attempt int           `json:"attempt,omitempty"`
	Status  int           `json:"status,omitempty"`
	Page    int           `json:"page,omitempty"`
	Pages   int           `json:"pages,omitempty"`
	Count   int           `json:"count,omitempty"`
	Wait    time.Duration `json:"wait_ns,omitempty"`
	Err     error         `json:"-"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(e)}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return json.Marshal(out)
}

// Observer receives events. Implementations must be safe for concurrent use;
// storage sinks emit from separate goroutines.
type Observer interface {
	Observe(Event)
}

// Func adapts a function to an Observer.
type Func func(Event)

func (f Func) Observe(e Event) { f(e) }

// Discard drops every event.
var Discard Observer = Func(func(Event) {})

// Emit stamps e and hands it to o. A nil o is treated as Discard.
func Emit(o Observer, e Event) {
	if o == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	o.Observe(e)
}

type multi []Observer

func (m multi) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

// Multi fans each event out to all non-nil observers in order.
func Multi(obs ...Observer) Observer {
	var out multi
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
