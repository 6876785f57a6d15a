// Package main wires the job-application email tracker: Gmail intake, LLM
// classification, and spreadsheet reconciliation. By default one pass runs
// and the process exits; -serve exposes the pass behind an HTTP trigger for
// Cloud Run style scheduling.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/storage"

	"jobtrack/archive"
	"jobtrack/auth"
	"jobtrack/classify"
	"jobtrack/mail"
	"jobtrack/pipeline"
	"jobtrack/sheet"
)

const defaultMaxResults = 10

// config is resolved once from the environment in main and handed down
// explicitly; nothing below reads ambient state.
type config struct {
	SpreadsheetID string
	SheetName     string
	LLMAPIKey     string
	LLMBaseURL    string
	LLMModel      string
	ArchiveBucket string
	ArchiveDir    string
	Port          string
	MaxResults    int64
}

func loadConfig() (config, error) {
	cfg := config{
		SpreadsheetID: os.Getenv("SPREADSHEET_ID"),
		SheetName:     envOr("SHEET_NAME", "Sheet1"),
		LLMAPIKey:     os.Getenv("OPENROUTER_API_KEY"),
		LLMBaseURL:    os.Getenv("LLM_BASE_URL"),
		LLMModel:      os.Getenv("LLM_MODEL"),
		ArchiveBucket: os.Getenv("ARCHIVE_BUCKET"),
		ArchiveDir:    os.Getenv("ARCHIVE_DIR"),
		Port:          envOr("PORT", "8080"),
		MaxResults:    defaultMaxResults,
	}

	if v := os.Getenv("MAX_RESULTS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid MAX_RESULTS %q", v)
		}
		cfg.MaxResults = n
	}
	if cfg.SpreadsheetID == "" {
		return cfg, errors.New("SPREADSHEET_ID environment variable required")
	}
	if cfg.LLMAPIKey == "" {
		return cfg, errors.New("OPENROUTER_API_KEY environment variable required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	serve := flag.Bool("serve", false, "run as an HTTP service instead of a single pass")
	flag.Parse()

	ctx := context.Background()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	gmailService, sheetsService, err := auth.Services(ctx, logger)
	if err != nil {
		logger.Error("Failed to initialize Google services", "error", err)
		os.Exit(1)
	}

	mailbox := mail.New(gmailService, logger)
	table := sheet.New(sheetsService, cfg.SpreadsheetID, cfg.SheetName, logger)
	classifier := classify.New(
		&http.Client{Timeout: 60 * time.Second},
		cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel,
		logger,
	)

	archiver, err := buildArchiver(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize archive", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(mailbox, classifier, table, archiver,
		pipeline.Config{MaxResults: cfg.MaxResults}, logger)

	if *serve {
		startServer(p, cfg.Port, logger)
		return
	}

	if _, err := p.Run(ctx); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

// buildArchiver wires the optional message archive. Returns nil when neither
// a bucket nor a local directory is configured, which disables archiving.
func buildArchiver(ctx context.Context, cfg config, logger *slog.Logger) (pipeline.Archiver, error) {
	if cfg.ArchiveBucket == "" && cfg.ArchiveDir == "" {
		return nil, nil
	}

	if cfg.ArchiveDir != "" {
		if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
		logger.Info("Archiving to local directory", "path", cfg.ArchiveDir)
		return archive.New(nil, "", cfg.ArchiveDir, logger), nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	logger.Info("Archiving to bucket", "bucket", cfg.ArchiveBucket)
	return archive.New(client, cfg.ArchiveBucket, "", logger), nil
}
