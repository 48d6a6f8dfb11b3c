package events

import (
	"context"
	"log/slog"
	"strings"
)

// Log renders events through logger. Failures are warnings, retry waits are
// debug, everything else is info.
func Log(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return Func(func(e Event) {
		logger.LogAttrs(context.Background(), levelFor(e.Type), string(e.Type), attrs(e)...)
	})
}

func levelFor(t Type) slog.Level {
	switch t {
	case RetryWait:
		return slog.LevelDebug
	case WarmupFailed, FetchFailed, CountFailed, DetailFailed,
		KeywordFailed, FieldInvalid, SinkFailed, SinkSkipped:
		return slog.LevelWarn
	}
	if strings.HasSuffix(string(t), "_failed") {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

func attrs(e Event) []slog.Attr {
	var out []slog.Attr
	str := func(k, v string) {
		if v != "" {
			out = append(out, slog.String(k, v))
		}
	}
	num := func(k string, v int) {
		if v != 0 {
			out = append(out, slog.Int(k, v))
		}
	}
	str("source", e.Source)
	str("keyword", e.Keyword)
	str("url", e.URL)
	str("field", e.Field)
	str("value", e.Value)
	num("attempt", e.Attempt)
	num("status", e.Status)
	num("page", e.Page)
	num("pages", e.Pages)
	num("count", e.Count)
	if e.Wait > 0 {
		out = append(out, slog.Duration("wait", e.Wait))
	}
	if e.Err != nil {
		out = append(out, slog.String("err", e.Err.Error()))
	}
	return out
}
