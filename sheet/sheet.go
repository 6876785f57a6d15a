// Package sheet provides row-oriented access to the tracking spreadsheet.
package sheet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/sheets/v4"
)

// Client wraps the Sheets API for one spreadsheet tab.
type Client struct {
	service       *sheets.Service
	logger        *slog.Logger
	spreadsheetID string
	sheetName     string
}

// New creates a new sheet client bound to a spreadsheet tab.
func New(service *sheets.Service, spreadsheetID, sheetName string, logger *slog.Logger) *Client {
	return &Client{
		service:       service,
		logger:        logger,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

// Snapshot reads the whole sheet, header row included. The pipeline calls
// this once per run; everything after works off the returned copy.
func (c *Client) Snapshot(ctx context.Context) ([][]string, error) {
	var rows [][]string

	err := retry.Do(
		func() error {
			resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, c.sheetName).
				Context(ctx).Do()
			if err != nil {
				c.logger.Warn("Sheet read failed, will retry", "error", err)
				return fmt.Errorf("read sheet values: %w", err)
			}

			rows = make([][]string, 0, len(resp.Values))
			for _, row := range resp.Values {
				cells := make([]string, 0, len(row))
				for _, cell := range row {
					cells = append(cells, fmt.Sprint(cell))
				}
				rows = append(rows, cells)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying sheet read after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}

	c.logger.Info("Sheet snapshot read", "rows", len(rows))
	return rows, nil
}

// UpdateCell writes one value at the given 1-based row and column.
func (c *Client) UpdateCell(ctx context.Context, row, col int, value string) error {
	cellRange := fmt.Sprintf("%s!%s%d", c.sheetName, columnName(col), row)
	body := &sheets.ValueRange{Values: [][]any{{value}}}

	err := retry.Do(
		func() error {
			_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, cellRange, body).
				ValueInputOption("RAW").
				Context(ctx).Do()
			if err != nil {
				c.logger.Warn("Sheet update failed, will retry", "range", cellRange, "error", err)
				return fmt.Errorf("update cell: %w", err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying sheet update after error", "attempt", n, "range", cellRange, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("after retries: %w", err)
	}

	c.logger.Info("Sheet cell updated", "range", cellRange)
	return nil
}

// AppendRow appends the values as a new row at the bottom of the sheet.
func (c *Client) AppendRow(ctx context.Context, values []string) error {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	body := &sheets.ValueRange{Values: [][]any{row}}

	err := retry.Do(
		func() error {
			_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, c.sheetName, body).
				ValueInputOption("RAW").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).Do()
			if err != nil {
				c.logger.Warn("Sheet append failed, will retry", "error", err)
				return fmt.Errorf("append row: %w", err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying sheet append after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("after retries: %w", err)
	}

	c.logger.Info("Sheet row appended", "cells", len(values))
	return nil
}

// columnName converts a 1-based column number to its A1 letter form.
func columnName(n int) string {
	var name string
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
