// Package pipeline drives one end-to-end intake pass: list unread mail,
// extract, classify, and reconcile against the tracking table.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jobtrack/pkg/tracker"
	"jobtrack/reconcile"
)

// Mailbox supplies unread messages and accepts read-state changes.
type Mailbox interface {
	Unread(ctx context.Context, maxResults int64) ([]string, error)
	Fetch(ctx context.Context, id string) (*tracker.EmailRecord, error)
	MarkRead(ctx context.Context, id string) error
}

// Classifier judges whether a message body is part of a job application.
type Classifier interface {
	Classify(ctx context.Context, body string) (*tracker.Signal, error)
}

// Table is the tracking sheet: one full snapshot per run, then cell updates
// and row appends.
type Table interface {
	Snapshot(ctx context.Context) ([][]string, error)
	reconcile.Table
}

// Archiver persists processed messages for later inspection.
type Archiver interface {
	Save(ctx context.Context, rec *tracker.EmailRecord, signal *tracker.Signal) error
}

// Config carries the tunables the orchestrator needs. There is no ambient
// configuration state anywhere below main.
type Config struct {
	MaxResults int64 // unread messages fetched per run, single page
}

// Summary reports what one run did.
type Summary struct {
	Fetched  int `json:"fetched"`
	Updated  int `json:"updated"`
	Appended int `json:"appended"`
	Skipped  int `json:"skipped"`
}

// Pipeline processes unread messages strictly sequentially, in mailbox
// order. Concurrent runs against the same table are unsafe and must be
// serialized by the caller.
type Pipeline struct {
	mailbox    Mailbox
	classifier Classifier
	table      Table
	archiver   Archiver // nil disables archiving
	logger     *slog.Logger
	maxResults int64
}

// New creates a pipeline. archiver may be nil.
func New(mailbox Mailbox, classifier Classifier, table Table, archiver Archiver, cfg Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		mailbox:    mailbox,
		classifier: classifier,
		table:      table,
		archiver:   archiver,
		logger:     logger,
		maxResults: cfg.MaxResults,
	}
}

// Run performs one intake pass. Failures tied to a single message are
// logged and skipped; failures of a collaborator abort the run as a unit,
// leaving whatever was already committed to the table in place.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	ids, err := p.mailbox.Unread(ctx, p.maxResults)
	if err != nil {
		return sum, fmt.Errorf("list unread messages: %w", err)
	}
	if len(ids) == 0 {
		p.logger.Info("No unread messages found")
		return sum, nil
	}

	snapshot, err := p.table.Snapshot(ctx)
	if err != nil {
		return sum, fmt.Errorf("read table snapshot: %w", err)
	}
	if len(snapshot) == 0 {
		return sum, errors.New("table snapshot is empty, missing header row")
	}
	engine := reconcile.NewEngine(p.table, snapshot[0], reconcile.BuildIndex(snapshot), p.logger)

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		rec, err := p.mailbox.Fetch(ctx, id)
		if err != nil {
			p.logger.Warn("Skipping message, fetch failed", "id", id, "error", err)
			sum.Skipped++
			continue
		}
		sum.Fetched++
		p.logger.Info("Fetched message", "id", id, "from", rec.From, "subject", rec.Subject)

		// Read state is committed before classification runs.
		if err := p.mailbox.MarkRead(ctx, id); err != nil {
			p.logger.Warn("Failed to mark message read", "id", id, "error", err)
		}

		signal, err := p.classifier.Classify(ctx, rec.Body)
		if err != nil {
			return sum, fmt.Errorf("classify message %s: %w", id, err)
		}
		p.archive(ctx, rec, signal)

		if signal == nil {
			p.logger.Info("Skipping message, not job related", "id", id)
			sum.Skipped++
			continue
		}

		action, err := engine.Reconcile(ctx, signal, rec.Date)
		if err != nil {
			var missing *reconcile.MissingColumnError
			var badDate *reconcile.InvalidDateError
			switch {
			case errors.As(err, &missing):
				p.logger.Error("Skipping message, tracking sheet is misconfigured",
					"id", id, "column", missing.Column)
				sum.Skipped++
			case errors.As(err, &badDate):
				p.logger.Warn("Skipping message, unparseable date header",
					"id", id, "date", badDate.Value)
				sum.Skipped++
			default:
				return sum, fmt.Errorf("reconcile message %s: %w", id, err)
			}
			continue
		}

		if action.Appended {
			sum.Appended++
		} else {
			sum.Updated++
		}
	}

	p.logger.Info("Intake run completed",
		"fetched", sum.Fetched,
		"updated", sum.Updated,
		"appended", sum.Appended,
		"skipped", sum.Skipped)
	return sum, nil
}

func (p *Pipeline) archive(ctx context.Context, rec *tracker.EmailRecord, signal *tracker.Signal) {
	if p.archiver == nil {
		return
	}
	if err := p.archiver.Save(ctx, rec, signal); err != nil {
		p.logger.Warn("Failed to archive message", "id", rec.ID, "error", err)
	}
}
