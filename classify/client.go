// Package classify asks a language model whether an email belongs to a
// job-application process and parses its judgment into a typed signal.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"jobtrack/pkg/tracker"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "meta-llama/llama-3.3-70b-instruct:free"
)

// HTTPStatusError indicates a non-2xx response from the completion endpoint.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// IsHTTPStatusError checks if an error is a non-2xx completion response.
func IsHTTPStatusError(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr)
}

// Client calls an OpenRouter-compatible chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	model      string
	apiKey     string
}

// New creates a new classifier client. Empty baseURL and model select the
// OpenRouter defaults.
func New(httpClient *http.Client, apiKey, baseURL, model string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
	}
}

// Classify sends the message body to the model and returns the parsed
// judgment. A nil signal with a nil error means the email is not part of a
// job-application process. Only transport-level failures are errors.
func (c *Client) Classify(ctx context.Context, body string) (*tracker.Signal, error) {
	content, err := c.complete(ctx, buildPrompt(body))
	if err != nil {
		return nil, err
	}
	return Parse(content), nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete performs a single non-streaming chat completion with temperature
// pinned to zero.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	var content string

	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.apiKey)

			startTime := time.Now()
			resp, err := c.httpClient.Do(req)
			duration := time.Since(startTime)

			if err != nil {
				c.logger.Warn("Completion request failed, will retry",
					"model", c.model,
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return fmt.Errorf("call completion endpoint: %w", err)
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					c.logger.Warn("Failed to close response body", "error", closeErr)
				}
			}()

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read completion response: %w", err)
			}

			c.logger.Info("Completion request completed",
				"model", c.model,
				"status_code", resp.StatusCode,
				"duration_ms", duration.Milliseconds())

			if resp.StatusCode != http.StatusOK {
				statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
				// Client errors will not heal with another attempt.
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return retry.Unrecoverable(statusErr)
				}
				return statusErr
			}

			var parsed chatResponse
			if err := json.Unmarshal(respBody, &parsed); err != nil {
				return fmt.Errorf("decode completion response: %w", err)
			}
			if parsed.Error != nil {
				return retry.Unrecoverable(fmt.Errorf("completion endpoint error: %s", parsed.Error.Message))
			}
			if len(parsed.Choices) == 0 {
				return errors.New("completion response has no choices")
			}

			content = parsed.Choices[0].Message.Content
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying completion after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("after retries: %w", err)
	}

	return content, nil
}
