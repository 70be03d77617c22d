// Package sheets reads and writes the Google Sheets dashboards that
// hold the collected statistics.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DateColumn is one dashboard column awaiting values: its header date
// and its one-based column number.
type DateColumn struct {
	Date   string
	Column int
}

// Service wraps the Sheets API for the read and write patterns the
// stat uploads need.
type Service struct {
	api *sheets.Service
}

// New wraps an existing Sheets API client.
func New(api *sheets.Service) *Service {
	return &Service{api: api}
}

// NewFromCredentials builds a Sheets client from a service account key
// file. Spreadsheets are addressed by ID, so no Drive scope is needed.
func NewFromCredentials(ctx context.Context, credentialsFile string) (*Service, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	api, err := sheets.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Service{api: api}, nil
}

// Values fetches the full value grid of one worksheet.
func (s *Service) Values(ctx context.Context, sheetID, tab string) ([][]interface{}, error) {
	resp, err := s.api.Spreadsheets.Values.Get(sheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", tab, err)
	}
	return resp.Values, nil
}

// UpdateColumn writes a vertical run of cells in one column, starting
// at startRow. Rows and columns are one-based.
func (s *Service) UpdateColumn(ctx context.Context, sheetID, tab string, column, startRow int, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([][]interface{}, len(values))
	for i, v := range values {
		rows[i] = []interface{}{v}
	}
	letter := ColumnLetter(column)
	rangeRef := fmt.Sprintf("%s!%s%d:%s%d", tab, letter, startRow, letter, startRow+len(values)-1)
	vr := &sheets.ValueRange{Values: rows}
	_, err := s.api.Spreadsheets.Values.Update(sheetID, rangeRef, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("updating %s: %w", rangeRef, err)
	}
	return nil
}

// WriteStats fills every pending date column with the configured
// measures: measure i lands on row dataRow+i. Every measure must have
// a value.
func (s *Service) WriteStats(ctx context.Context, sheetID, tab string, dataRow int, cols []DateColumn, measures []string, values map[string]interface{}) error {
	if len(measures) == 0 {
		return fmt.Errorf("no measures configured for %s", tab)
	}
	column := make([]interface{}, len(measures))
	for i, m := range measures {
		v, ok := values[m]
		if !ok {
			return fmt.Errorf("no value for measure %q", m)
		}
		column[i] = v
	}
	for _, dc := range cols {
		if err := s.UpdateColumn(ctx, sheetID, tab, dc.Column, dataRow, column); err != nil {
			return err
		}
	}
	return nil
}

// PendingDateColumns scans the header row of a value grid and returns
// the columns whose header is a date not after today and whose first
// data cell is still empty. Row numbers are one-based.
func PendingDateColumns(grid [][]interface{}, dateRow, dataRow int, today time.Time) []DateColumn {
	var pending []DateColumn
	headers := gridRow(grid, dateRow)
	for i, header := range headers {
		text := strings.TrimSpace(cellText(header))
		date, err := time.Parse("2006-01-02", text)
		if err != nil {
			continue
		}
		if date.After(today) {
			continue
		}
		col := i + 1
		if cellEmpty(grid, dataRow, col) {
			pending = append(pending, DateColumn{Date: text, Column: col})
		}
	}
	return pending
}

// gridRow returns the one-based row from a value grid, or nil when the
// grid is shorter.
func gridRow(grid [][]interface{}, row int) []interface{} {
	if row < 1 || row > len(grid) {
		return nil
	}
	return grid[row-1]
}

// cellEmpty reports whether the one-based (row, col) cell is absent or
// holds only whitespace.
func cellEmpty(grid [][]interface{}, row, col int) bool {
	r := gridRow(grid, row)
	if col < 1 || col > len(r) {
		return true
	}
	return strings.TrimSpace(cellText(r[col-1])) == ""
}

// cellText renders one grid cell as text.
func cellText(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ColumnLetter converts a one-based column number to its A1 letters.
func ColumnLetter(col int) string {
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}
