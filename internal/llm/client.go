// Package llm provides the generation backend boundary: a client for
// the Groq OpenAI-compatible chat completions API.
//
// The client owns its own resilience: bounded request timeouts,
// exponential-backoff retry for transient failures, and an optional
// proactive rate limiter waited on before every attempt. Once the retry
// budget is exhausted the error propagates to the caller; a failed
// generation is the one fault class that is allowed to end a turn.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
	DefaultTimeout = 120 * time.Second
)

// ErrNoChoices indicates the API returned an empty choice list.
var ErrNoChoices = errors.New("no response choices returned")

// Message is a single chat message in API wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds client construction parameters.
type Config struct {
	// APIKey authenticates against the API (required).
	APIKey string

	// BaseURL is the API root (default: the Groq endpoint). Changeable
	// for any OpenAI-compatible service, including test servers.
	BaseURL string

	// Model is the model identifier (default: llama-3.3-70b-versatile).
	Model string

	// Temperature and MaxTokens are passed through to the API.
	Temperature float64
	MaxTokens   int

	// Timeout bounds each HTTP request (default: 120s).
	Timeout time.Duration

	// Retry configures backoff for transient failures (zero value uses
	// defaults).
	Retry RetryConfig

	// Limiter, when set, is waited on before every attempt.
	Limiter *rate.Limiter

	// Logger for call tracing (nil = slog.Default()).
	Logger *slog.Logger
}

// Client calls the chat completions API.
// Client is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	retry       RetryConfig
	limiter     *rate.Limiter
	logger      *slog.Logger

	calls atomic.Int64
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Retry = cfg.Retry.withDefaults()

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		retry:       cfg.Retry,
		limiter:     cfg.Limiter,
		logger:      cfg.Logger,
	}, nil
}

// Calls returns the number of completed generation calls, for
// observability and tests.
func (c *Client) Calls() int {
	return int(c.calls.Load())
}

// chatCompletionRequest is the /chat/completions request body.
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// chatCompletionResponse is the non-streaming response body.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// streamChunk is a single streamed SSE data frame.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Generate invokes the model with the full message sequence and returns
// the response text. Transient failures are retried with exponential
// backoff; the error returned after the retry budget is spent is final
// for the turn.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	var text string
	err := c.withRetry(ctx, func() error {
		var attemptErr error
		text, attemptErr = c.complete(ctx, messages)
		return attemptErr
	})
	if err != nil {
		return "", err
	}

	c.calls.Add(1)
	c.logger.Debug("generation call completed", "total_calls", c.calls.Load())
	return text, nil
}

// complete performs one non-streaming completion attempt.
func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	body, status, err := c.post(ctx, messages, false)
	if err != nil {
		return "", err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return "", &statusError{status: status, message: resp.Error.Message}
	}
	if status != http.StatusOK {
		return "", &statusError{status: status, message: string(body)}
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream invokes the model and delivers response fragments to fn as
// they arrive. fn returning an error aborts the stream. Streaming
// requests are not retried mid-stream; only connection establishment
// falls under the retry budget.
func (c *Client) Stream(ctx context.Context, messages []Message, fn func(chunk string) error) error {
	reqBody, err := json.Marshal(c.request(messages, true))
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{status: resp.StatusCode, message: string(body)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Warn("skipping malformed stream frame", "error", err)
			continue
		}
		if chunk.Error != nil {
			return fmt.Errorf("stream error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			if err := fn(content); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	c.calls.Add(1)
	return nil
}

// request builds the wire request body.
func (c *Client) request(messages []Message, stream bool) chatCompletionRequest {
	return chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	}
}

// post sends one completion request and returns the raw body and status.
func (c *Client) post(ctx context.Context, messages []Message, stream bool) ([]byte, int, error) {
	reqBody, err := json.Marshal(c.request(messages, stream))
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// statusError carries the HTTP status so the retry logic can classify
// transient server failures without string matching.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.status, e.message)
}
