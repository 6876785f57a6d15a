package main

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SPREADSHEET_ID", "sheet-123")
	t.Setenv("OPENROUTER_API_KEY", "key-abc")
	t.Setenv("SHEET_NAME", "")
	t.Setenv("MAX_RESULTS", "")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("ARCHIVE_BUCKET", "")
	t.Setenv("ARCHIVE_DIR", "")
	t.Setenv("PORT", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.SpreadsheetID != "sheet-123" {
		t.Errorf("SpreadsheetID = %q", cfg.SpreadsheetID)
	}
	if cfg.SheetName != "Sheet1" {
		t.Errorf("SheetName = %q, want default Sheet1", cfg.SheetName)
	}
	if cfg.MaxResults != defaultMaxResults {
		t.Errorf("MaxResults = %d, want default %d", cfg.MaxResults, defaultMaxResults)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", cfg.Port)
	}
}

func TestLoadConfigMaxResults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_RESULTS", "25")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.MaxResults != 25 {
		t.Errorf("MaxResults = %d, want 25", cfg.MaxResults)
	}
}

func TestLoadConfigInvalidMaxResults(t *testing.T) {
	for _, v := range []string{"zero", "-3", "0"} {
		setRequiredEnv(t)
		t.Setenv("MAX_RESULTS", v)
		if _, err := loadConfig(); err == nil {
			t.Errorf("loadConfig() with MAX_RESULTS=%q: error = nil, want rejection", v)
		}
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SPREADSHEET_ID", "")
	if _, err := loadConfig(); err == nil || !strings.Contains(err.Error(), "SPREADSHEET_ID") {
		t.Errorf("loadConfig() error = %v, want missing SPREADSHEET_ID", err)
	}

	setRequiredEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "")
	if _, err := loadConfig(); err == nil || !strings.Contains(err.Error(), "OPENROUTER_API_KEY") {
		t.Errorf("loadConfig() error = %v, want missing OPENROUTER_API_KEY", err)
	}
}
