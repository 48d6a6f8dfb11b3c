package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"jobharvest/internal/domain"
	"jobharvest/internal/events"
)

type fakeAPI struct {
	mu     sync.Mutex
	sheets map[string][][]string
	added  []string
	calls  []string
}

func newFake() *fakeAPI { return &fakeAPI{sheets: map[string][][]string{}} }

func (f *fakeAPI) log(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

func (f *fakeAPI) SheetTitles(context.Context) ([]string, error) {
	f.log("titles")
	var out []string
	for t := range f.sheets {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeAPI) AddSheet(_ context.Context, title string, rows, cols int) error {
	f.log("add")
	if rows != DefaultRows || cols != DefaultCols {
		return errors.New("unexpected grid")
	}
	f.added = append(f.added, title)
	f.sheets[title] = nil
	return nil
}

func (f *fakeAPI) Values(_ context.Context, title string) ([][]string, error) {
	f.log("values")
	return append([][]string(nil), f.sheets[title]...), nil
}

func (f *fakeAPI) Clear(_ context.Context, title string) error {
	f.log("clear")
	f.sheets[title] = nil
	return nil
}

func (f *fakeAPI) Update(_ context.Context, title string, rows [][]string) error {
	f.log("update")
	f.sheets[title] = append([][]string(nil), rows...)
	return nil
}

func (f *fakeAPI) Append(_ context.Context, title string, rows [][]string) error {
	f.log("append")
	f.sheets[title] = append(f.sheets[title], rows...)
	return nil
}

func connectTo(api API) Connector {
	return func(context.Context, string) (API, error) { return api, nil }
}

func job(id, title string) domain.Job {
	return domain.Job{Source: "TopCV", JobType: "Data Engineer", Month: 6, Year: 2025, JobID: id, Title: title, Company: "ACME"}
}

func TestSaveEmptyIsSkipped(t *testing.T) {
	rec := &events.Recorder{}
	called := false
	s := New("sheet-id", func(context.Context, string) (API, error) {
		called = true
		return nil, errors.New("should not connect")
	}, rec)

	require.NoError(t, s.Save(context.Background(), nil, "final_crawl_data"))
	assert.False(t, called)
	assert.Len(t, rec.OfType(events.SinkSkipped), 1)
}

func TestSaveWithoutSpreadsheetID(t *testing.T) {
	s := New("", connectTo(newFake()), nil)
	err := s.Save(context.Background(), []domain.Job{job("1", "a")}, "x")
	assert.ErrorIs(t, err, ErrNoSpreadsheet)
}

func TestSaveConnectError(t *testing.T) {
	s := New("id", func(context.Context, string) (API, error) { return nil, errors.New("bad key") }, nil)
	err := s.Save(context.Background(), []domain.Job{job("1", "a")}, "x")
	assert.ErrorContains(t, err, "bad key")
}

func TestSaveCreatesWorksheet(t *testing.T) {
	api := newFake()
	s := New("id", connectTo(api), nil)

	require.NoError(t, s.Save(context.Background(), []domain.Job{job("1", "a"), job("2", "b")}, "final_crawl_data"))

	assert.Equal(t, []string{"final_crawl_data"}, api.added)
	got := api.sheets["final_crawl_data"]
	require.Len(t, got, 3)
	assert.Equal(t, domain.Columns, got[0])
	assert.Equal(t, "a", got[1][5])
	assert.NotContains(t, api.calls, "append")
}

func TestSaveHeaderOnlySheetIsOverwritten(t *testing.T) {
	api := newFake()
	api.sheets["data"] = [][]string{{"stale", "header"}}
	s := New("id", connectTo(api), nil)

	require.NoError(t, s.Save(context.Background(), []domain.Job{job("1", "a")}, "data"))
	assert.Empty(t, api.added)
	assert.Equal(t, domain.Columns, api.sheets["data"][0])
	assert.Len(t, api.sheets["data"], 2)
}

func TestSaveAppendsAndKeepsLast(t *testing.T) {
	api := newFake()
	api.sheets["data"] = append([][]string{domain.Columns}, job("1", "old").Record(), job("2", "two").Record())
	rec := &events.Recorder{}
	s := New("id", connectTo(api), rec)

	require.NoError(t, s.Save(context.Background(), []domain.Job{job("1", "new"), job("3", "three")}, "data"))

	got := api.sheets["data"]
	require.Len(t, got, 4)
	titles := []string{got[1][5], got[2][5], got[3][5]}
	assert.Equal(t, []string{"two", "new", "three"}, titles)

	deduped := rec.OfType(events.SinkDeduped)
	require.Len(t, deduped, 1)
	assert.Equal(t, 1, deduped[0].Count)
	assert.Len(t, rec.OfType(events.SinkSaved), 1)
}

type wireValues struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

func TestClientRoundTrip(t *testing.T) {
	const (
		base   = "/v4/spreadsheets/sid"
		values = base + "/values/'it''s data'"
	)
	var (
		mu     sync.Mutex
		stored [][]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == base:
			assert.Equal(t, "sheets.properties.title", r.URL.Query().Get("fields"))
			_, _ = io.WriteString(w, `{"sheets":[{"properties":{"title":"Sheet1"}}]}`)
		case r.Method == http.MethodPost && r.URL.Path == base+":batchUpdate":
			var body struct {
				Requests []struct {
					AddSheet struct {
						Properties struct {
							Title          string `json:"title"`
							GridProperties struct {
								RowCount    int `json:"rowCount"`
								ColumnCount int `json:"columnCount"`
							} `json:"gridProperties"`
						} `json:"properties"`
					} `json:"addSheet"`
				} `json:"requests"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			p := body.Requests[0].AddSheet.Properties
			assert.Equal(t, "it's data", p.Title)
			assert.Equal(t, 10000, p.GridProperties.RowCount)
			assert.Equal(t, 30, p.GridProperties.ColumnCount)
			_, _ = io.WriteString(w, `{"spreadsheetId":"sid"}`)
		case r.Method == http.MethodPut && r.URL.Path == values:
			assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
			var vr wireValues
			require.NoError(t, json.NewDecoder(r.Body).Decode(&vr))
			assert.Equal(t, "ROWS", vr.MajorDimension)
			stored = vr.Values
			_, _ = io.WriteString(w, `{}`)
		case r.Method == http.MethodPost && r.URL.Path == values+":append":
			assert.Equal(t, "INSERT_ROWS", r.URL.Query().Get("insertDataOption"))
			var vr wireValues
			require.NoError(t, json.NewDecoder(r.Body).Decode(&vr))
			stored = append(stored, vr.Values...)
			_, _ = io.WriteString(w, `{}`)
		case r.Method == http.MethodPost && r.URL.Path == values+":clear":
			stored = nil
			_, _ = io.WriteString(w, `{}`)
		case r.Method == http.MethodGet && r.URL.Path == values:
			_ = json.NewEncoder(w).Encode(wireValues{Values: stored})
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"no route","status":"NOT_FOUND"}}`)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := sheetsapi.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	api := NewClient(svc, "sid")

	titles, err := api.SheetTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1"}, titles)

	require.NoError(t, api.AddSheet(ctx, "it's data", DefaultRows, DefaultCols))
	require.NoError(t, api.Update(ctx, "it's data", [][]string{{"h"}, {"1"}}))
	require.NoError(t, api.Append(ctx, "it's data", [][]string{{"2"}}))

	got, err := api.Values(ctx, "it's data")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"h"}, {"1"}, {"2"}}, got)

	require.NoError(t, api.Clear(ctx, "it's data"))
	got, err = api.Values(ctx, "it's data")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = api.Values(ctx, "missing")
	var gerr *googleapi.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusNotFound, gerr.Code)
	assert.Equal(t, "no route", gerr.Message)
}

func TestServiceAccountRejectsBadKey(t *testing.T) {
	_, err := ServiceAccount([]byte(`{"type":"nope"}`))(context.Background(), "sid")
	assert.Error(t, err)
}
