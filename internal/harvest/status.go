package harvest

import (
	"context"
	"sync/atomic"
	"time"
)

// Status describes the latest run of a periodically scheduled harvest.
type Status struct {
	Running   bool   `json:"running"`
	RunID     string `json:"runId,omitempty"`
	LastRunAt string `json:"lastRunAt,omitempty"`
	LastOkAt  string `json:"lastOkAt,omitempty"`
	LastError string `json:"lastError,omitempty"`
	LastJobs  int    `json:"lastJobs"`
}

// Tracker holds the Status of a harvest across runs. The zero value is
// ready to use.
type Tracker struct {
	v atomic.Value // Status
}

func (t *Tracker) Load() Status {
	st, _ := t.v.Load().(Status)
	return st
}

func (t *Tracker) store(st Status) { t.v.Store(st) }

// Track runs c once and keeps t current around it. onReport, when set, sees
// every report, including ones from failed runs.
func (c *Coordinator) Track(ctx context.Context, t *Tracker, onReport func(Report)) error {
	st := t.Load()
	st.Running = true
	st.LastRunAt = c.now().Format(time.RFC3339)
	t.store(st)

	rep, err := c.Run(ctx)
	if err == nil {
		err = rep.Err()
	}
	if onReport != nil {
		onReport(rep)
	}

	st = t.Load()
	st.Running = false
	st.RunID = rep.RunID
	st.LastJobs = len(rep.Jobs)
	if err != nil {
		st.LastError = err.Error()
	} else {
		st.LastError = ""
		st.LastOkAt = rep.FinishedAt.Format(time.RFC3339)
	}
	t.store(st)
	return err
}
