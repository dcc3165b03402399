// Package gsheets backs the table store with a Google Sheets spreadsheet,
// one worksheet per table with the header in row 1.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ledgerbook/internal/store"
	"ledgerbook/internal/tables"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client implements store.TableStore against one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu    sync.Mutex
	known map[string]bool // worksheet titles confirmed to exist
}

var _ store.TableStore = (*Client)(nil)

// New creates a client authenticated with service-account credentials.
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		known:         make(map[string]bool),
	}, nil
}

func (c *Client) ReadTable(ctx context.Context, sc tables.Schema) ([]tables.Row, error) {
	if err := c.ensureSheet(ctx, sc); err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("'%s'!A:Z", sc.Table)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Errorf("read %s: %w", rng, err))
	}
	recs := toRecords(resp.Values)
	if len(recs) == 0 {
		return []tables.Row{}, nil
	}
	return tables.Reconcile(recs[0], recs[1:], sc), nil
}

func (c *Client) WriteTable(ctx context.Context, sc tables.Schema, rows []tables.Row) error {
	if err := c.ensureSheet(ctx, sc); err != nil {
		return err
	}
	rng := fmt.Sprintf("'%s'!A:Z", sc.Table)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return classify(fmt.Errorf("clear %s: %w", rng, err))
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, toValues(sc.Columns))
	for _, r := range rows {
		values = append(values, toValues(r))
	}
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, fmt.Sprintf("'%s'!A1", sc.Table), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return classify(fmt.Errorf("write %s: %w", sc.Table, err))
	}
	slog.DebugContext(ctx, "Rewrote worksheet", "table", sc.Table, "rows", len(rows))
	return nil
}

func (c *Client) AppendRow(ctx context.Context, sc tables.Schema, row tables.Row) error {
	if err := c.ensureSheet(ctx, sc); err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]any{toValues(row)}}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, fmt.Sprintf("'%s'!A:Z", sc.Table), vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return classify(fmt.Errorf("append to %s: %w", sc.Table, err))
	}
	return nil
}

// ensureSheet creates the worksheet with a header row when the spreadsheet
// lacks it. Confirmed titles are remembered so the metadata call happens at
// most once per table per process.
func (c *Client) ensureSheet(ctx context.Context, sc tables.Schema) error {
	c.mu.Lock()
	if c.known[sc.Table] {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return classify(fmt.Errorf("get spreadsheet metadata: %w", err))
	}

	exists := false
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == sc.Table {
			exists = true
			break
		}
	}

	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				AddSheet: &gsheet.AddSheetRequest{
					Properties: &gsheet.SheetProperties{Title: sc.Table},
				},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return classify(fmt.Errorf("add worksheet %s: %w", sc.Table, err))
		}
		vr := &gsheet.ValueRange{Values: [][]any{toValues(sc.Columns)}}
		_, err := c.svc.Spreadsheets.Values.
			Update(c.spreadsheetID, fmt.Sprintf("'%s'!A1", sc.Table), vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return classify(fmt.Errorf("write header for %s: %w", sc.Table, err))
		}
		slog.InfoContext(ctx, "Created worksheet", "table", sc.Table)
	}

	c.mu.Lock()
	c.known[sc.Table] = true
	c.mu.Unlock()
	return nil
}

// classify maps API failures to the transient/fatal split exactly once, at
// this layer: rate limiting and server errors retry, everything else is fatal.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == 429 || gerr.Code >= 500) {
		return store.Transient(err)
	}
	return err
}

func toRecords(values [][]any) [][]string {
	recs := make([][]string, len(values))
	for i, row := range values {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = strings.TrimSpace(fmt.Sprint(v))
		}
		recs[i] = rec
	}
	return recs
}

func toValues(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
