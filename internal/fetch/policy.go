package fetch

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Span is a closed interval a random jitter is drawn from.
type Span struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// Policy decides whether and how long to wait between attempts. It is a
// read-only value shared by every Client.
type Policy struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	BaseDelay       time.Duration `yaml:"base_delay"`
	RetryStatus     []int         `yaml:"retry_status"`
	HintJitter      Span          `yaml:"hint_jitter"`
	TimeoutJitter   Span          `yaml:"timeout_jitter"`
	TransportJitter Span          `yaml:"transport_jitter"`
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   6 * time.Second,
		RetryStatus: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		HintJitter:      Span{Min: 500 * time.Millisecond, Max: 2 * time.Second},
		TimeoutJitter:   Span{Min: 1 * time.Second, Max: 3 * time.Second},
		TransportJitter: Span{Min: 2 * time.Second, Max: 5 * time.Second},
	}
}

// Retryable reports whether status is worth another attempt.
func (p Policy) Retryable(status int) bool {
	for _, s := range p.RetryStatus {
		if s == status {
			return true
		}
	}
	return false
}

// StatusWait is the wait after a retryable status on the given 1-based
// attempt. A usable hint replaces the linear base*attempt term.
func (p Policy) StatusWait(attempt int, hint time.Duration, hasHint bool, j Jitter) time.Duration {
	if hasHint {
		return hint + j(p.HintJitter)
	}
	return p.BaseDelay*time.Duration(attempt) + j(p.HintJitter)
}

// Jitter draws a duration from s.
type Jitter func(s Span) time.Duration

// RandomJitter draws uniformly from [Min, Max].
func RandomJitter(s Span) time.Duration {
	if s.Max <= s.Min {
		return s.Min
	}
	return s.Min + time.Duration(rand.Int64N(int64(s.Max-s.Min)+1))
}

// ParseRetryAfter reads a Retry-After header given either as delta-seconds
// (fractions allowed) or as an HTTP-date.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
