package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitStampsTime(t *testing.T) {
	rec := &Recorder{}
	Emit(rec, Event{Type: RetryWait, Attempt: 2})

	got := rec.OfType(RetryWait)
	require.Len(t, got, 1)
	assert.False(t, got[0].At.IsZero())
	assert.Equal(t, 2, got[0].Attempt)
}

func TestEmitNilObserver(t *testing.T) {
	assert.NotPanics(t, func() { Emit(nil, Event{Type: NoResults}) })
}

func TestMultiSkipsNil(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi(a, nil, b)
	m.Observe(Event{Type: PageFetched})

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestEventJSONIncludesError(t *testing.T) {
	e := Event{Type: DetailFailed, URL: "https://x/1", Err: errors.New("boom"), At: time.Unix(0, 0).UTC()}
	b, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "scrape.detail_failed", m["type"])
	assert.Equal(t, "boom", m["error"])
	assert.Equal(t, "https://x/1", m["url"])
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Observe(Event{Type: SinkSaved, Source: "CSV", Count: 3})

	select {
	case msg := <-ch:
		assert.Contains(t, msg, `"type":"store.saved"`)
		assert.Contains(t, msg, `"count":3`)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	o := Log(logger)

	o.Observe(Event{Type: RetryWait, Wait: time.Second})
	assert.Empty(t, buf.String(), "retry waits log at debug")

	o.Observe(Event{Type: DetailFailed, URL: "https://x/2", Err: errors.New("timeout")})
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "scrape.detail_failed")
	assert.Contains(t, out, "err=timeout")
}
