// Package auth builds authenticated Gmail and Sheets services using the
// OAuth installed-app flow: client secrets from credentials.json, the
// granted token cached in token.json for subsequent runs.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	tokenFile       = "token.json"
	credentialsFile = "credentials.json"
)

// Services authenticates once and returns Gmail and Sheets clients sharing
// the same underlying HTTP client.
func Services(ctx context.Context, logger *slog.Logger) (*gmail.Service, *sheets.Service, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read client secret file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gmail.GmailModifyScope, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, nil, fmt.Errorf("parse client secret file: %w", err)
	}

	httpClient, err := oauthClient(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	gmailService, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, nil, fmt.Errorf("create Gmail service: %w", err)
	}
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, nil, fmt.Errorf("create Sheets service: %w", err)
	}

	logger.Info("Google services initialized")
	return gmailService, sheetsService, nil
}

func oauthClient(ctx context.Context, cfg *oauth2.Config, logger *slog.Logger) (*http.Client, error) {
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		tok, err = tokenFromWeb(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, tok); err != nil {
			logger.Warn("Failed to cache oauth token", "path", tokenFile, "error", err)
		} else {
			logger.Info("OAuth token cached", "path", tokenFile)
		}
	}
	return cfg.Client(ctx, tok), nil
}

// tokenFromWeb walks the user through the browser consent flow and reads
// the authorization code from stdin.
func tokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code:\n%v\n", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
