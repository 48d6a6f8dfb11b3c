package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobharvest/internal/events"
)

// Fetcher returns the parsed document at a URL or an error once retries are
// spent.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Mode selects how a Client waits. Retry semantics are identical.
type Mode int

const (
	// ModeBlocking sleeps the calling goroutine and ignores cancellation
	// while waiting between attempts.
	ModeBlocking Mode = iota
	// ModeSuspending runs each request on its own goroutine and selects on
	// ctx.Done() for the request and every wait.
	ModeSuspending
)

func (m Mode) String() string {
	if m == ModeSuspending {
		return "suspending"
	}
	return "blocking"
}

type Options struct {
	Source      string
	BaseURL     string
	Headers     map[string]string
	Mode        Mode
	Policy      Policy
	Timeout     time.Duration
	WarmupDelay time.Duration
	Limiter     *HostLimiter
	Observer    events.Observer

	// HTTPClient overrides the default client. A cookie jar is attached when
	// it has none.
	HTTPClient *http.Client
	// Sleep and Jitter are replaced in tests.
	Sleep  func(ctx context.Context, d time.Duration) error
	Jitter Jitter
	Now    func() time.Time
}

// Client is a single-session retrying fetcher. At most one request is in
// flight per Client.
type Client struct {
	opts   Options
	hc     *http.Client
	sleep  func(ctx context.Context, d time.Duration) error
	jitter Jitter
	now    func() time.Time

	mu   sync.Mutex
	once sync.Once
}

func New(opts Options) (*Client, error) {
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Observer == nil {
		opts.Observer = events.Discard
	}
	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}
	opts.Headers = headers

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		cp := *hc
		cp.Jar = jar
		hc = &cp
	}

	c := &Client{opts: opts, hc: hc, sleep: opts.Sleep, jitter: opts.Jitter, now: opts.Now}
	if c.sleep == nil {
		if opts.Mode == ModeSuspending {
			c.sleep = sleepCtx
		} else {
			c.sleep = sleepBlocking
		}
	}
	if c.jitter == nil {
		c.jitter = RandomJitter
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

func (c *Client) Mode() Mode { return c.opts.Mode }

// Fetch GETs url with the session headers and parses the body. Retryable
// statuses and transport failures are retried per the Client's Policy.
func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.once.Do(func() { c.warmup(ctx) })

	p := c.opts.Policy
	var (
		lastStatus int
		lastErr    error
	)
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{Kind: KindCanceled, URL: url, Attempts: attempt - 1, Status: lastStatus, Err: err}
		}

		res := c.attempt(ctx, url)
		if res.err == nil && res.status >= 200 && res.status < 300 {
			return res.doc, nil
		}
		if res.err != nil && ctx.Err() != nil {
			return nil, &FetchError{Kind: KindCanceled, URL: url, Attempts: attempt, Status: lastStatus, Err: ctx.Err()}
		}

		var wait time.Duration
		switch {
		case res.err != nil:
			lastErr = res.err
			if isTimeout(res.err) {
				wait = c.jitter(p.TimeoutJitter)
			} else {
				wait = c.jitter(p.TransportJitter)
			}
		case p.Retryable(res.status):
			lastStatus = res.status
			lastErr = nil
			hint, ok := ParseRetryAfter(res.retryAfter, c.now())
			wait = p.StatusWait(attempt, hint, ok, c.jitter)
		default:
			fe := &FetchError{Kind: KindStatus, URL: url, Attempts: attempt, Status: res.status}
			events.Emit(c.opts.Observer, events.Event{
				Type: events.FetchFailed, Source: c.opts.Source, URL: url,
				Attempt: attempt, Status: res.status, Err: fe,
			})
			return nil, fe
		}

		if attempt == p.MaxAttempts {
			break
		}
		events.Emit(c.opts.Observer, events.Event{
			Type: events.RetryWait, Source: c.opts.Source, URL: url,
			Attempt: attempt, Status: res.status, Wait: wait, Err: res.err,
		})
		if err := c.sleep(ctx, wait); err != nil {
			return nil, &FetchError{Kind: KindCanceled, URL: url, Attempts: attempt, Status: lastStatus, Err: err}
		}
	}

	fe := &FetchError{Kind: KindExhausted, URL: url, Attempts: p.MaxAttempts, Status: lastStatus, Err: lastErr}
	events.Emit(c.opts.Observer, events.Event{
		Type: events.FetchFailed, Source: c.opts.Source, URL: url,
		Attempt: p.MaxAttempts, Status: lastStatus, Err: fe,
	})
	return nil, fe
}

type result struct {
	doc        *goquery.Document
	status     int
	retryAfter string
	err        error
}

func (c *Client) attempt(ctx context.Context, url string) result {
	if c.opts.Mode == ModeBlocking {
		return c.do(ctx, url)
	}
	ch := make(chan result, 1)
	go func() { ch <- c.do(ctx, url) }()
	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		// The request shares ctx, so it ends promptly; wait for it so no
		// request outlives the lock.
		<-ch
		return result{err: ctx.Err()}
	}
}

func (c *Client) do(ctx context.Context, url string) result {
	if err := c.opts.Limiter.WaitURL(ctx, url); err != nil {
		return result{err: err}
	}
	req, err := c.newRequest(ctx, url)
	if err != nil {
		return result{err: err}
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return result{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return result{status: resp.StatusCode, retryAfter: resp.Header.Get("Retry-After")}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{status: resp.StatusCode, err: fmt.Errorf("read body: %w", err)}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return result{status: resp.StatusCode, err: fmt.Errorf("parse html: %w", err)}
	}
	doc.Url = resp.Request.URL
	return result{doc: doc, status: resp.StatusCode}
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.opts.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// warmup visits the base URL once so the session picks up cookies. The
// outcome is ignored.
func (c *Client) warmup(ctx context.Context) {
	if c.opts.BaseURL == "" {
		return
	}
	err := func() error {
		if err := c.opts.Limiter.WaitURL(ctx, c.opts.BaseURL); err != nil {
			return err
		}
		req, err := c.newRequest(ctx, c.opts.BaseURL)
		if err != nil {
			return err
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Body.Close()
	}()
	if err != nil {
		events.Emit(c.opts.Observer, events.Event{
			Type: events.WarmupFailed, Source: c.opts.Source, URL: c.opts.BaseURL, Err: err,
		})
	}
	if c.opts.WarmupDelay > 0 {
		_ = c.sleep(ctx, c.opts.WarmupDelay)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleepBlocking(_ context.Context, d time.Duration) error {
	time.Sleep(d)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
