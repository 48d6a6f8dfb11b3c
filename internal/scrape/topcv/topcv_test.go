package topcv

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobharvest/internal/events"
	"jobharvest/internal/fetch"
	"jobharvest/internal/scrape/scrapetest"
)

const page1URL = "https://www.topcv.vn/tim-viec-lam-data-engineer?type_keyword=1&page=1&sba=1"

const listing = `<html><body>
<div class="none-suitable-job" style="display: none">Chưa tìm thấy việc làm phù hợp</div>
<h1 class="search-job-heading">Tuyển 3 việc làm Data Engineer [Update 06/2025]</h1>
<div class="job-list-search-result">
  <div class="job-item-search-result" data-job-id="9001">
    <h3 class="title"><a href="https://www.topcv.vn/viec-lam/de/9001.html"><span>Data Engineer</span></a></h3>
    <span class="company-name">Delta</span>
    <label class="salary"><span>1,000 - 1,500 USD</span></label>
    <span class="city-text">Hồ Chí Minh &amp; 2 nơi khác</span>
    <label class="exp"><span>1 năm</span></label>
  </div>
  <div class="job-item-search-result" data-job-id="9002">
    <h3 class="title"><a href="/viec-lam/de/9002.html">Senior DE</a></h3>
    <span class="company-name">Epsilon</span>
    <label class="salary"><span>Thoả thuận</span></label>
    <span class="city-text">Hà Nội</span>
    <label class="exp"><span>Trên 5 năm</span></label>
  </div>
</div>
</body></html>`

const detail9001 = `<html><body>
<div class="box-general-content">
  <div class="box-general-group"><div class="box-general-group-info"><div class="box-general-group-info-value">Trưởng nhóm</div></div></div>
  <div class="box-general-group"><div class="box-general-group-info"><div class="box-general-group-info-value">2 người</div></div></div>
</div>
<div class="company-field"><div class="company-value"> Tài chính , Ngân hàng </div></div>
<div class="job-description"><h3>Mô tả</h3><p>Airflow và Spark</p></div>
</body></html>`

const noResults = `<html><body>
<div class="none-suitable-job">Chưa tìm thấy việc làm phù hợp</div>
<h1 class="search-job-heading">Tuyển 0 việc làm [Update]</h1>
</body></html>`

func newScraper(t *testing.T, f fetch.Fetcher, obs events.Observer) *Scraper {
	t.Helper()
	s, err := New(DefaultConfig(), f, obs)
	require.NoError(t, err)
	return s
}

func doc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return d
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, fetch.ModeBlocking, cfg.Mode)
	assert.Equal(t, 2*time.Second, cfg.WarmupDelay)
}

func TestHasResults(t *testing.T) {
	s := newScraper(t, &scrapetest.Fetcher{}, nil)
	assert.True(t, s.HasResults(doc(t, listing)))
	assert.False(t, s.HasResults(doc(t, noResults)))
	assert.False(t, s.HasResults(doc(t, `<html><body></body></html>`)), "missing marker means no results")

	text, ok := s.CountText(doc(t, listing))
	require.True(t, ok)
	assert.Equal(t, "Tuyển 3 việc làm Data Engineer ", text)
}

func TestExtractBasic(t *testing.T) {
	s := newScraper(t, &scrapetest.Fetcher{}, nil)
	b := s.ExtractBasic(doc(t, listing))

	assert.Equal(t, []string{
		"https://www.topcv.vn/viec-lam/de/9001.html",
		"https://www.topcv.vn/viec-lam/de/9002.html",
	}, b.URLs)
	assert.Equal(t, []string{"9001", "9002"}, b.IDs)
	assert.Equal(t, []string{"Data Engineer", "Senior DE"}, b.Titles)
	assert.Equal(t, []string{"1,000 - 1,500 USD", "Thoả thuận"}, b.Salaries)
	assert.Equal(t, []string{"Hồ Chí Minh & 2 nơi khác", "Hà Nội"}, b.Locations)
	assert.Equal(t, []string{"1 năm", "Trên 5 năm"}, b.Exps)
	assert.Equal(t, []string{"Delta", "Epsilon"}, b.Companies)
}

func TestExtractDetail(t *testing.T) {
	s := newScraper(t, &scrapetest.Fetcher{}, nil)
	d := s.ExtractDetail(doc(t, detail9001))

	require.NotNil(t, d.Level)
	assert.Equal(t, "Trưởng nhóm", *d.Level)
	assert.Equal(t, "Tài chính , Ngân hàng", *d.Industry)
	assert.Equal(t, "Mô tả\nAirflow và Spark", *d.Description)

	none := s.ExtractDetail(doc(t, `<html><body></body></html>`))
	assert.Nil(t, none.Level)
	assert.Nil(t, none.Industry)
	assert.Nil(t, none.Description)
}

func TestHarvestSinglePage(t *testing.T) {
	f := &scrapetest.Fetcher{Pages: map[string]string{
		page1URL: listing,
		"https://www.topcv.vn/viec-lam/de/9001.html": detail9001,
	}}
	rec := &events.Recorder{}
	s := newScraper(t, f, rec)

	jobs, err := s.Harvest(context.Background(), "data engineer")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "9001", jobs[0].JobID)
	assert.Equal(t, "Trưởng nhóm", *jobs[0].Level)
	assert.Nil(t, jobs[1].Level)
	assert.Len(t, rec.OfType(events.DetailFailed), 1)
}

func TestHarvestNoResults(t *testing.T) {
	f := &scrapetest.Fetcher{Pages: map[string]string{page1URL: noResults}}
	rec := &events.Recorder{}
	s := newScraper(t, f, rec)

	jobs, err := s.Harvest(context.Background(), "data engineer")
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Equal(t, []string{page1URL}, f.Calls())
	assert.Len(t, rec.OfType(events.NoResults), 1)
}
