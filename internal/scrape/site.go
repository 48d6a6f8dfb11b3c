package scrape

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"

	"jobharvest/internal/fetch"
)

var ErrInvalidSelectors = errors.New("invalid selectors")

// Selectors locate each field on a listing or detail page. IDAttr is the
// attribute read from the ID element; the rest are CSS selectors.
type Selectors struct {
	URL      string `yaml:"url"`
	Title    string `yaml:"title"`
	ID       string `yaml:"id"`
	IDAttr   string `yaml:"id_attr"`
	Salary   string `yaml:"salary"`
	Location string `yaml:"location"`
	Exp      string `yaml:"exp"`
	Company  string `yaml:"company"`

	Level       string `yaml:"level"`
	Industry    string `yaml:"industry"`
	Description string `yaml:"description"`

	NoResults   string `yaml:"no_results"`
	ResultCount string `yaml:"result_count"`
}

func (s Selectors) fields() []struct{ name, css string } {
	return []struct{ name, css string }{
		{"url", s.URL},
		{"title", s.Title},
		{"id", s.ID},
		{"salary", s.Salary},
		{"location", s.Location},
		{"exp", s.Exp},
		{"company", s.Company},
		{"level", s.Level},
		{"industry", s.Industry},
		{"description", s.Description},
		{"no_results", s.NoResults},
		{"result_count", s.ResultCount},
	}
}

// Validate reports every blank or unparseable selector in one error
// wrapping ErrInvalidSelectors.
func (s Selectors) Validate() error {
	var problems []string
	for _, f := range s.fields() {
		if strings.TrimSpace(f.css) == "" {
			problems = append(problems, f.name+" is empty")
			continue
		}
		if _, err := cascadia.Compile(f.css); err != nil {
			problems = append(problems, fmt.Sprintf("%s %q: %v", f.name, f.css, err))
		}
	}
	if strings.TrimSpace(s.IDAttr) == "" {
		problems = append(problems, "id_attr is empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSelectors, strings.Join(problems, "; "))
	}
	return nil
}

// SiteConfig describes one listing site. SearchPath carries {query} and
// {page} placeholders and is appended to BaseURL.
type SiteConfig struct {
	Name        string            `yaml:"name"`
	BaseURL     string            `yaml:"base_url"`
	SearchPath  string            `yaml:"search_path"`
	Headers     map[string]string `yaml:"headers"`
	PageSize    int               `yaml:"page_size"`
	Mode        fetch.Mode        `yaml:"-"`
	WarmupDelay time.Duration     `yaml:"warmup_delay"`
	Selectors   Selectors         `yaml:"selectors"`
}

const DefaultPageSize = 50

func (c SiteConfig) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "name is empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		problems = append(problems, fmt.Sprintf("base_url %q is not absolute", c.BaseURL))
	}
	if !strings.Contains(c.SearchPath, "{query}") || !strings.Contains(c.SearchPath, "{page}") {
		problems = append(problems, "search_path needs {query} and {page}")
	}
	if c.PageSize < 0 {
		problems = append(problems, "page_size must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("site %q: %s", c.Name, strings.Join(problems, "; "))
	}
	if err := c.Selectors.Validate(); err != nil {
		return fmt.Errorf("site %q: %w", c.Name, err)
	}
	return nil
}

func (c SiteConfig) clone() SiteConfig {
	h := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		h[k] = v
	}
	c.Headers = h
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	return c
}

// Slug turns a keyword into the site's query form: lowercase, spaces as
// hyphens.
func Slug(keyword string) string {
	return strings.ToLower(strings.ReplaceAll(keyword, " ", "-"))
}

// PageURL fills the search template for keyword and page.
func (c SiteConfig) PageURL(keyword string, page int) string {
	r := strings.NewReplacer("{query}", Slug(keyword), "{page}", strconv.Itoa(page))
	return strings.TrimRight(c.BaseURL, "/") + r.Replace(c.SearchPath)
}

// ClientOptions builds the fetcher options for this site.
func (c SiteConfig) ClientOptions(p fetch.Policy, timeout time.Duration, lim *fetch.HostLimiter) fetch.Options {
	return fetch.Options{
		Source:      c.Name,
		BaseURL:     c.BaseURL,
		Headers:     c.Headers,
		Mode:        c.Mode,
		Policy:      p,
		Timeout:     timeout,
		WarmupDelay: c.WarmupDelay,
		Limiter:     lim,
	}
}
