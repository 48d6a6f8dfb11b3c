package scrape

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
	"jobharvest/internal/fetch"
)

// Adapter harvests raw job records for a keyword from one site.
type Adapter interface {
	Name() string
	BuildPageURL(keyword string, page int) string
	CountTotalPages(ctx context.Context, keyword string) int
	ExtractBasic(doc *goquery.Document) Basic
	ExtractDetail(doc *goquery.Document) Detail
	Harvest(ctx context.Context, keyword string) ([]domain.RawJob, error)
}

// Probe holds the two site-specific checks on the first results page.
type Probe interface {
	// HasResults reports whether the page lists any jobs.
	HasResults(doc *goquery.Document) bool
	// CountText returns the text holding the result count, false when the
	// element is missing.
	CountText(doc *goquery.Document) (string, bool)
}

// Basic is the columnar output of a listing page. Columns may differ in
// length when the page is inconsistent.
type Basic struct {
	URLs      []string
	Titles    []string
	IDs       []string
	Salaries  []string
	Locations []string
	Exps      []string
	Companies []string
}

// Detail fields are nil when the element was missing or the page could not
// be fetched.
type Detail struct {
	Level       *string
	Industry    *string
	Description *string
}

// Base implements everything but the Probe. Site adapters embed it.
type Base struct {
	cfg   SiteConfig
	f     fetch.Fetcher
	obs   events.Observer
	probe Probe
	now   func() time.Time
}

func NewBase(cfg SiteConfig, f fetch.Fetcher, obs events.Observer, probe Probe) (*Base, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.New("scrape: nil fetcher")
	}
	if probe == nil {
		return nil, errors.New("scrape: nil probe")
	}
	if obs == nil {
		obs = events.Discard
	}
	return &Base{cfg: cfg.clone(), f: f, obs: obs, probe: probe, now: time.Now}, nil
}

func (b *Base) Name() string { return b.cfg.Name }

// Config returns a copy of the site configuration.
func (b *Base) Config() SiteConfig { return b.cfg.clone() }

// SetClock replaces the posting-date clock.
func (b *Base) SetClock(now func() time.Time) { b.now = now }

func (b *Base) BuildPageURL(keyword string, page int) string {
	return b.cfg.PageURL(keyword, page)
}

// CountTotalPages fetches page 1 and derives the page count from the result
// total. Any failure is reported and yields 0.
func (b *Base) CountTotalPages(ctx context.Context, keyword string) int {
	u := b.BuildPageURL(keyword, 1)
	fail := func(err error) int {
		events.Emit(b.obs, events.Event{
			Type: events.CountFailed, Source: b.cfg.Name, Keyword: keyword, URL: u, Err: err,
		})
		return 0
	}

	doc, err := b.f.Fetch(ctx, u)
	if err != nil {
		return fail(err)
	}
	if !b.probe.HasResults(doc) {
		return 0
	}
	text, ok := b.probe.CountText(doc)
	if !ok {
		return fail(errors.New("result count element missing"))
	}
	n, err := strconv.Atoi(digitsOnly(text))
	if err != nil {
		return fail(fmt.Errorf("result count %q: %w", text, err))
	}
	return PageCount(n, b.cfg.PageSize)
}

// PageCount is ceil(n/size).
func PageCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	pages := n / size
	if n%size != 0 {
		pages++
	}
	return pages
}

func (b *Base) ExtractBasic(doc *goquery.Document) Basic {
	s := b.cfg.Selectors
	var out Basic

	links := doc.Find(s.URL)
	out.URLs = make([]string, 0, links.Length())
	links.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		out.URLs = append(out.URLs, AbsoluteURL(b.cfg.BaseURL, href))
	})

	ids := doc.Find(s.ID)
	out.IDs = make([]string, 0, ids.Length())
	ids.Each(func(_ int, el *goquery.Selection) {
		v, _ := el.Attr(s.IDAttr)
		out.IDs = append(out.IDs, v)
	})

	out.Titles = trimmedTexts(doc, s.Title)
	out.Salaries = trimmedTexts(doc, s.Salary)
	out.Locations = trimmedTexts(doc, s.Location)
	out.Exps = trimmedTexts(doc, s.Exp)
	out.Companies = trimmedTexts(doc, s.Company)
	return out
}

func (b *Base) ExtractDetail(doc *goquery.Document) Detail {
	s := b.cfg.Selectors
	pick := func(css, sep string) *string {
		el := doc.Find(css).First()
		if el.Length() == 0 {
			return nil
		}
		return domain.Ptr(JoinedText(el, sep))
	}
	return Detail{
		Level:       pick(s.Level, ""),
		Industry:    pick(s.Industry, ""),
		Description: pick(s.Description, "\n"),
	}
}

// Harvest walks every result page in order and fetches each listed job's
// detail page in turn. A listing page that cannot be fetched aborts the
// keyword and discards what was gathered; a failed detail page only blanks
// that job's detail fields.
func (b *Base) Harvest(ctx context.Context, keyword string) ([]domain.RawJob, error) {
	pages := b.CountTotalPages(ctx, keyword)
	if pages == 0 {
		events.Emit(b.obs, events.Event{Type: events.NoResults, Source: b.cfg.Name, Keyword: keyword})
		return nil, nil
	}

	var out []domain.RawJob
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u := b.BuildPageURL(keyword, page)
		doc, err := b.f.Fetch(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("%s %q page %d/%d: %w", b.cfg.Name, keyword, page, pages, err)
		}
		basic := b.ExtractBasic(doc)
		events.Emit(b.obs, events.Event{
			Type: events.PageFetched, Source: b.cfg.Name, Keyword: keyword, URL: u,
			Page: page, Pages: pages, Count: len(basic.URLs),
		})

		details := make([]Detail, 0, len(basic.URLs))
		for _, du := range basic.URLs {
			details = append(details, b.detail(ctx, keyword, du))
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, Assemble(b.cfg.Name, keyword, b.now(), basic, details)...)
	}
	return out, nil
}

func (b *Base) detail(ctx context.Context, keyword, u string) Detail {
	doc, err := b.f.Fetch(ctx, u)
	if err != nil {
		events.Emit(b.obs, events.Event{
			Type: events.DetailFailed, Source: b.cfg.Name, Keyword: keyword, URL: u, Err: err,
		})
		return Detail{}
	}
	return b.ExtractDetail(doc)
}
