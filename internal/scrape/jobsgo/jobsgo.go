// Package jobsgo adapts jobsgo.vn search and detail pages.
package jobsgo

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobharvest/internal/events"
	"jobharvest/internal/fetch"
	"jobharvest/internal/scrape"
)

const Name = "JobsGo"

func DefaultConfig() scrape.SiteConfig {
	return scrape.SiteConfig{
		Name:       Name,
		BaseURL:    "https://jobsgo.vn",
		SearchPath: "/viec-lam-{query}.html?page={page}",
		Headers: map[string]string{
			"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.5",
			"DNT":                       "1",
			"Upgrade-Insecure-Requests": "1",
		},
		PageSize:    scrape.DefaultPageSize,
		Mode:        fetch.ModeSuspending,
		WarmupDelay: time.Second,
		Selectors: scrape.Selectors{
			URL:         "div.card.job-card a.text-decoration-none",
			Title:       "h3.job-title",
			ID:          "div.card.job-card",
			IDAttr:      "data-id",
			Salary:      "div.mt-1 span:first-child",
			Location:    "div.mt-1 span:last-child",
			Exp:         `div.d-flex.flex-wrap.gap-1 span[title="Yêu cầu kinh nghiệm"]`,
			Company:     "div.company-title",
			Level:       "div.col-6.col-md-4.d-flex:nth-of-type(2) strong",
			Industry:    "div.d-flex.mt-3 span.fw-500",
			Description: "div.job-detail-card",
			NoResults:   "p.h5.text-muted.mt-3",
			ResultCount: "h1.fs-4.mb-2.mb-sm-3",
		},
	}
}

type Scraper struct {
	*scrape.Base
}

var _ scrape.Adapter = (*Scraper)(nil)

func New(cfg scrape.SiteConfig, f fetch.Fetcher, obs events.Observer) (*Scraper, error) {
	s := &Scraper{}
	b, err := scrape.NewBase(cfg, f, obs, s)
	if err != nil {
		return nil, err
	}
	s.Base = b
	return s, nil
}

// HasResults: the "no jobs found" notice is only rendered on empty searches.
func (s *Scraper) HasResults(doc *goquery.Document) bool {
	return doc.Find(s.Config().Selectors.NoResults).Length() == 0
}

// CountText reads "1.234 việc làm - ..." up to the first hyphen.
func (s *Scraper) CountText(doc *goquery.Document) (string, bool) {
	el := doc.Find(s.Config().Selectors.ResultCount).First()
	if el.Length() == 0 {
		return "", false
	}
	text, _, _ := strings.Cut(strings.TrimSpace(el.Text()), "-")
	return text, true
}
