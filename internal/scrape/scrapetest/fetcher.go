// Package scrapetest provides an in-memory fetch.Fetcher for adapter tests.
package scrapetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"jobharvest/internal/fetch"
)

// Fetcher serves canned HTML by URL. Unknown URLs and URLs listed in Fail
// return a *fetch.FetchError.
type Fetcher struct {
	Pages map[string]string
	Fail  map[string]bool

	mu    sync.Mutex
	calls []string
}

func (f *Fetcher) Fetch(_ context.Context, url string) (*goquery.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	body, ok := f.Pages[url]
	if !ok || f.Fail[url] {
		return nil, &fetch.FetchError{Kind: fetch.KindExhausted, URL: url, Attempts: 5, Status: 503}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// Calls returns every requested URL in order.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
