// Package mail reads unread messages from Gmail and normalizes them into
// email records the pipeline can classify.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/gmail/v1"

	"jobtrack/pkg/tracker"
)

const user = "me"

// Client wraps the Gmail API for the intake pipeline.
type Client struct {
	service *gmail.Service
	logger  *slog.Logger
}

// New creates a new Gmail mail client.
func New(service *gmail.Service, logger *slog.Logger) *Client {
	return &Client{
		service: service,
		logger:  logger,
	}
}

// Unread lists up to maxResults unread inbox message IDs, in the order the
// API returns them. One page only; the pipeline never paginates.
func (c *Client) Unread(ctx context.Context, maxResults int64) ([]string, error) {
	var ids []string

	err := retry.Do(
		func() error {
			resp, err := c.service.Users.Messages.List(user).
				MaxResults(maxResults).
				LabelIds("INBOX", "UNREAD").
				Context(ctx).Do()
			if err != nil {
				c.logger.Warn("Gmail list failed, will retry", "error", err)
				return fmt.Errorf("list messages: %w", err)
			}

			ids = ids[:0]
			for _, m := range resp.Messages {
				ids = append(ids, m.Id)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying message list after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}

	c.logger.Info("Unread messages listed", "count", len(ids), "max_results", maxResults)
	return ids, nil
}

// Fetch retrieves the full message and extracts its subject, sender, date,
// and best-effort plain text body. Extraction failures describe the message
// itself and are not retried.
func (c *Client) Fetch(ctx context.Context, id string) (*tracker.EmailRecord, error) {
	var msg *gmail.Message

	err := retry.Do(
		func() error {
			var err error
			msg, err = c.service.Users.Messages.Get(user, id).
				Format("full").
				Context(ctx).Do()
			if err != nil {
				c.logger.Warn("Gmail get failed, will retry", "id", id, "error", err)
				return fmt.Errorf("get message: %w", err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying message get after error", "attempt", n, "id", id, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}

	if msg.Payload == nil {
		return nil, fmt.Errorf("message %s has no payload", id)
	}

	body, err := extractBody(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("extract body of message %s: %w", id, err)
	}

	return &tracker.EmailRecord{
		ID:      id,
		Subject: header(msg.Payload.Headers, "Subject"),
		From:    header(msg.Payload.Headers, "From"),
		Date:    header(msg.Payload.Headers, "Date"),
		Body:    body,
	}, nil
}

// MarkRead removes the UNREAD label from a message.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	err := retry.Do(
		func() error {
			_, err := c.service.Users.Messages.Modify(user, id, &gmail.ModifyMessageRequest{
				RemoveLabelIds: []string{"UNREAD"},
			}).Context(ctx).Do()
			if err != nil {
				c.logger.Warn("Gmail modify failed, will retry", "id", id, "error", err)
				return fmt.Errorf("modify message: %w", err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying mark-read after error", "attempt", n, "id", id, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("after retries: %w", err)
	}

	c.logger.Info("Marked message read", "id", id)
	return nil
}
