// Package archive persists classified messages as JSON objects so a run's
// raw inputs can be inspected after the fact. Backed by Cloud Storage in
// production or a local directory during development.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"

	"jobtrack/pkg/tracker"
)

// Record is the archived form of one processed message. Signal is nil for
// messages judged unrelated to any application.
type Record struct {
	ArchivedAt time.Time            `json:"archived_at"`
	Email      *tracker.EmailRecord `json:"email"`
	Signal     *tracker.Signal      `json:"signal,omitempty"`
}

// Store writes records to a bucket or a local directory.
type Store struct {
	client    *storage.Client
	logger    *slog.Logger
	bucket    string
	localPath string
}

// New creates a new archive store. A non-empty localPath selects local
// filesystem storage; otherwise records go to the bucket.
func New(client *storage.Client, bucket, localPath string, logger *slog.Logger) *Store {
	return &Store{
		client:    client,
		logger:    logger,
		bucket:    bucket,
		localPath: localPath,
	}
}

// recordKey generates a stable object name from a message ID. Gmail IDs are
// hex, but anything outside a safe character set is rejected so keys can
// never traverse paths.
func recordKey(id string) string {
	if id == "" {
		return ""
	}
	for _, c := range id {
		safe := c == '-' || c == '_' ||
			(c >= '0' && c <= '9') ||
			(c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z')
		if !safe {
			return ""
		}
	}
	return "msg-" + id + ".json"
}

// Save archives one processed message, overwriting any previous record for
// the same message ID.
func (s *Store) Save(ctx context.Context, rec *tracker.EmailRecord, signal *tracker.Signal) error {
	key := recordKey(rec.ID)
	if key == "" {
		return errors.New("invalid message id")
	}

	data, err := json.MarshalIndent(Record{
		ArchivedAt: time.Now().UTC(),
		Email:      rec,
		Signal:     signal,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if s.localPath != "" {
		filePath := filepath.Join(s.localPath, key)
		if err := os.WriteFile(filePath, data, 0o600); err != nil {
			return fmt.Errorf("write to local archive: %w", err)
		}
		s.logger.Info("Message archived to local storage", "path", filePath, "id", rec.ID)
		return nil
	}

	err = retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("Failed to close writer after error", "error", closeErr)
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			s.logger.Info("Retrying archive save after error", "attempt", n, "key", key, "error", retryErr)
		}),
	)
	if err != nil {
		return fmt.Errorf("save after retries: %w", err)
	}

	s.logger.Info("Message archived", "key", key, "id", rec.ID)
	return nil
}
