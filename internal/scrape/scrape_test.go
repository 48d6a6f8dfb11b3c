package scrape

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobharvest/internal/domain"
)

func validSelectors() Selectors {
	return Selectors{
		URL: "a.job", Title: "h3", ID: "div.job", IDAttr: "data-id",
		Salary: "span.salary", Location: "span.city", Exp: "span.exp", Company: "span.company",
		Level: "div.level", Industry: "div.industry", Description: "div.desc",
		NoResults: "p.empty", ResultCount: "h1.count",
	}
}

func testSite() SiteConfig {
	return SiteConfig{
		Name:       "Test",
		BaseURL:    "https://jobs.example",
		SearchPath: "/search-{query}?page={page}",
		Selectors:  validSelectors(),
	}
}

func TestSelectorsValidate(t *testing.T) {
	require.NoError(t, validSelectors().Validate())

	s := validSelectors()
	s.Level = ""
	s.Industry = "div["
	s.IDAttr = " "
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSelectors))
	assert.Contains(t, err.Error(), "level is empty")
	assert.Contains(t, err.Error(), "industry")
	assert.Contains(t, err.Error(), "id_attr is empty")
}

func TestSiteConfigValidate(t *testing.T) {
	cfg := testSite()
	cfg.SearchPath = "/search?q={query}"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{page}")

	cfg = testSite()
	cfg.Selectors.URL = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidSelectors)
}

func TestPageURL(t *testing.T) {
	cfg := testSite()
	assert.Equal(t, "https://jobs.example/search-data-analyst?page=3", cfg.PageURL("Data Analyst", 3))
	assert.Equal(t, "data-engineer", Slug("DATA ENGINEER"))
}

func TestPageCount(t *testing.T) {
	tests := []struct{ n, size, want int }{
		{0, 50, 0},
		{1, 50, 1},
		{50, 50, 1},
		{51, 50, 2},
		{100, 50, 2},
		{1234, 50, 25},
		{10, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PageCount(tt.n, tt.size), "n=%d size=%d", tt.n, tt.size)
	}
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://x.vn/a", AbsoluteURL("https://x.vn", "/a"))
	assert.Equal(t, "https://other/b", AbsoluteURL("https://x.vn", "https://other/b"))
	assert.Equal(t, "https://x.vn", AbsoluteURL("https://x.vn", ""))
}

func TestJoinedText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
<div class="desc">
  <p> Biết <b>Python</b> </p>
  <script>var x = 1;</script>
  <!-- hidden -->
  <ul><li>SQL</li><li>  </li><li>Excel</li></ul>
</div>`))
	require.NoError(t, err)

	sel := doc.Find("div.desc")
	assert.Equal(t, "Biết\nPython\nSQL\nExcel", JoinedText(sel, "\n"))
	assert.Equal(t, "BiếtPythonSQLExcel", JoinedText(sel, ""))
	assert.Equal(t, "", JoinedText(doc.Find("div.none"), "\n"))
}

func TestAssembleRagged(t *testing.T) {
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	basic := Basic{
		URLs:      []string{"u1", "u2", "u3"},
		Titles:    []string{"t1", "t2"},
		IDs:       []string{"1", "2", "3", "4"},
		Salaries:  []string{"10 triệu"},
		Companies: []string{"A", "B", "C"},
	}
	details := []Detail{{Level: domain.Ptr("Senior")}, {}}

	rows := Assemble("Test", "data analyst", now, basic, details)
	require.Len(t, rows, 3)

	assert.Equal(t, "Test", rows[0].Source)
	assert.Equal(t, "data analyst", rows[0].JobType)
	assert.Equal(t, "09-03-2025", rows[0].PostingDate)
	assert.Equal(t, "10 triệu", rows[0].Salary)
	assert.Equal(t, "Senior", *rows[0].Level)

	assert.Equal(t, "", rows[1].Salary)
	assert.Nil(t, rows[1].Level)

	assert.Equal(t, "u3", rows[2].URL)
	assert.Equal(t, "3", rows[2].JobID)
	assert.Equal(t, "", rows[2].Title)
	assert.Nil(t, rows[2].Description)
}

func TestAssembleNoURLs(t *testing.T) {
	rows := Assemble("Test", "k", time.Now(), Basic{Titles: []string{"orphan"}}, nil)
	assert.Empty(t, rows)
}
