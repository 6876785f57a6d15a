// Package reconcile merges classified job signals into the tracking table:
// known applications get their status and response date updated in place,
// unknown ones become new rows.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jobtrack/pkg/tracker"
)

// Header columns the engine locates by name. Appends are positional; only
// in-place updates need the header row.
const (
	columnResponseDate = "Response Date"
	columnStatus       = "Status"
)

// Table is the mutation side of the tracking sheet.
type Table interface {
	UpdateCell(ctx context.Context, row, col int, value string) error
	AppendRow(ctx context.Context, values []string) error
}

// MissingColumnError reports a header column the sheet is expected to carry
// but does not. It means the table is misconfigured, not that an email was
// bad, so callers log it apart from routine skips.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("sheet is missing required column %q", e.Column)
}

// InvalidDateError reports a Date header that could not be parsed.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("unparseable date header %q", e.Value)
}

// Action records the table mutation made for one signal.
type Action struct {
	Row      int  // 1-based sheet row affected
	Appended bool // false means an existing row was updated
}

// Engine applies signals against one snapshot of the table.
type Engine struct {
	table  Table
	logger *slog.Logger
	header []string
	index  *Index
}

// NewEngine creates an engine over a snapshot's header row and index.
func NewEngine(table Table, header []string, index *Index, logger *slog.Logger) *Engine {
	return &Engine{
		table:  table,
		logger: logger,
		header: header,
		index:  index,
	}
}

// Reconcile applies one signal to the table. emailDate is the raw Date
// header of the message that produced the signal. On an index hit only the
// response date and status cells change; an existing application date is
// authoritative and is never rewritten. On a miss a new five-column row is
// appended. Within a run, two signals resolving to the same key hit the same
// row and the later one wins.
func (e *Engine) Reconcile(ctx context.Context, signal *tracker.Signal, emailDate string) (Action, error) {
	date, err := formatDate(emailDate)
	if err != nil {
		return Action{}, &InvalidDateError{Value: emailDate}
	}

	var appliedDate, responseDate string
	if signal.Applied {
		appliedDate = date
	}
	if signal.Responded {
		responseDate = date
	}

	if row, ok := e.index.Lookup(signal.Company, signal.JobTitle); ok {
		if responseDate != "" {
			col, err := e.column(columnResponseDate)
			if err != nil {
				return Action{}, err
			}
			if err := e.table.UpdateCell(ctx, row, col, responseDate); err != nil {
				return Action{}, fmt.Errorf("update response date: %w", err)
			}
		}
		if signal.Status != "" {
			col, err := e.column(columnStatus)
			if err != nil {
				return Action{}, err
			}
			if err := e.table.UpdateCell(ctx, row, col, signal.Status); err != nil {
				return Action{}, fmt.Errorf("update status: %w", err)
			}
		}
		e.logger.Info("Updated existing row",
			"row", row,
			"company", signal.Company,
			"position", signal.JobTitle,
			"status", signal.Status)
		return Action{Row: row}, nil
	}

	newRow := []string{signal.Company, signal.JobTitle, signal.Status, appliedDate, responseDate}
	if err := e.table.AppendRow(ctx, newRow); err != nil {
		return Action{}, fmt.Errorf("append row: %w", err)
	}
	row := e.index.Insert(signal.Company, signal.JobTitle)
	e.logger.Info("Appended new row",
		"row", row,
		"company", signal.Company,
		"position", signal.JobTitle,
		"status", signal.Status)
	return Action{Row: row, Appended: true}, nil
}

// column locates a header column by name, 1-based.
func (e *Engine) column(name string) (int, error) {
	for i, h := range e.header {
		if h == name {
			return i + 1, nil
		}
	}
	return 0, &MissingColumnError{Column: name}
}

// Date headers in the wild drift from RFC 1123; the same fallback chain
// Gmail clients use covers the common shapes.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
}

// formatDate reformats an RFC 2822 date header as MM-DD-YYYY.
func formatDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("01-02-2006"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date format %q", value)
}
