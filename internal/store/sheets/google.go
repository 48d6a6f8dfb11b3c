package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const scopeDrive = "https://www.googleapis.com/auth/drive"

// Client adapts the generated Sheets v4 service to API for one spreadsheet.
type Client struct {
	srv *sheetsapi.Service
	id  string
}

var _ API = (*Client)(nil)

func NewClient(srv *sheetsapi.Service, spreadsheetID string) *Client {
	return &Client{srv: srv, id: spreadsheetID}
}

// ServiceAccount returns a Connector authenticating with a service account
// key file's JSON.
func ServiceAccount(credentials []byte) Connector {
	return func(ctx context.Context, spreadsheetID string) (API, error) {
		creds, err := google.CredentialsFromJSON(ctx, credentials, sheetsapi.SpreadsheetsScope, scopeDrive)
		if err != nil {
			return nil, fmt.Errorf("service account: %w", err)
		}
		srv, err := sheetsapi.NewService(ctx, option.WithCredentials(creds))
		if err != nil {
			return nil, fmt.Errorf("sheets service: %w", err)
		}
		return NewClient(srv, spreadsheetID), nil
	}
}

// a1 quotes a worksheet title so it addresses the whole sheet.
func a1(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	sp, err := c.srv.Spreadsheets.Get(c.id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(sp.Sheets))
	for _, s := range sp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func (c *Client) AddSheet(ctx context.Context, title string, rows, cols int) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{
					Title: title,
					GridProperties: &sheetsapi.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}
	_, err := c.srv.Spreadsheets.BatchUpdate(c.id, req).Context(ctx).Do()
	return err
}

func (c *Client) Values(ctx context.Context, title string) ([][]string, error) {
	vr, err := c.srv.Spreadsheets.Values.Get(c.id, a1(title)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(vr.Values))
	for _, row := range vr.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		out = append(out, cells)
	}
	return out, nil
}

func (c *Client) Clear(ctx context.Context, title string) error {
	_, err := c.srv.Spreadsheets.Values.Clear(c.id, a1(title), &sheetsapi.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (c *Client) Update(ctx context.Context, title string, rows [][]string) error {
	_, err := c.srv.Spreadsheets.Values.Update(c.id, a1(title), valueRange(title, rows)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (c *Client) Append(ctx context.Context, title string, rows [][]string) error {
	_, err := c.srv.Spreadsheets.Values.Append(c.id, a1(title), valueRange(title, rows)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func valueRange(title string, rows [][]string) *sheetsapi.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}
	return &sheetsapi.ValueRange{Range: a1(title), MajorDimension: "ROWS", Values: values}
}
