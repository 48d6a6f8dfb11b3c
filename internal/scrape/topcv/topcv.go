// Package topcv adapts topcv.vn search and detail pages.
package topcv

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobharvest/internal/events"
	"jobharvest/internal/fetch"
	"jobharvest/internal/scrape"
)

const Name = "TopCV"

func DefaultConfig() scrape.SiteConfig {
	return scrape.SiteConfig{
		Name:       Name,
		BaseURL:    "https://www.topcv.vn",
		SearchPath: "/tim-viec-lam-{query}?type_keyword=1&page={page}&sba=1",
		Headers: map[string]string{
			"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.5",
			"DNT":                       "1",
			"Upgrade-Insecure-Requests": "1",
		},
		PageSize:    scrape.DefaultPageSize,
		Mode:        fetch.ModeBlocking,
		WarmupDelay: 2 * time.Second,
		Selectors: scrape.Selectors{
			URL:         "h3.title a",
			Title:       "h3.title",
			ID:          "div.job-list-search-result>div.job-item-search-result",
			IDAttr:      "data-job-id",
			Salary:      "label.salary>span",
			Location:    "span.city-text",
			Exp:         "label.exp>span",
			Company:     "span.company-name",
			Level:       "div.box-general-group:first-child div.box-general-group-info-value",
			Industry:    "div.company-field div.company-value",
			Description: "div.job-description",
			NoResults:   "div.none-suitable-job",
			ResultCount: "h1.search-job-heading",
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

// HasResults: TopCV always renders the empty-search block and hides it with
// an inline display:none when there are hits.
func (s *Scraper) HasResults(doc *goquery.Document) bool {
	el := doc.Find(s.Config().Selectors.NoResults).First()
	if el.Length() == 0 {
		return false
	}
	style, _ := el.Attr("style")
	return strings.Contains(style, "none")
}

// CountText reads the heading up to the first "[".
func (s *Scraper) CountText(doc *goquery.Document) (string, bool) {
	el := doc.Find(s.Config().Selectors.ResultCount).First()
	if el.Length() == 0 {
		return "", false
	}
	text, _, _ := strings.Cut(strings.TrimSpace(el.Text()), "[")
	return text, true
}
