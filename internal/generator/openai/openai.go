package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSystemPrompt frames every completion request.
const DefaultSystemPrompt = "You draft wise, experienced, linguistically informed translation notes from an evangelical perspective. " +
	"The purpose of these notes is to assist translators in avoiding cross-cultural and linguistic misunderstanding while translating the Bible into new languages. " +
	"The template documents are especially important, as they provide a style and register for the notes to follow. " +
	"These notes will be used by translators to inform their translation work, so they should be helpful and informative for this serious task."

// Config configures the chat completions client.
type Config struct {
	BaseURL      string
	APIKeyEnv    string
	Model        string
	SystemPrompt string
	Temperature  float64
	Timeout      time.Duration
	MaxRetries   int
	// RequestsPerSecond throttles outgoing calls; zero disables throttling.
	RequestsPerSecond float64
}

// Client sends prompts to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	temperature  float64
	client       *http.Client
	maxRetries   int
	limiter      *rate.Limiter
}

// NewClient creates a generator using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       key,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		client:       &http.Client{Timeout: cfg.Timeout},
		maxRetries:   cfg.MaxRetries,
		limiter:      limiter,
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	N           int       `json:"n"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete returns the model's reply to prompt, trimmed of surrounding whitespace.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	data, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
		N:           1,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	url := c.baseURL + "/chat/completions"
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, lastDelay(lastErr, attempt-1)); err != nil {
				return "", err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		out, err := c.do(ctx, url, data)
		if err == nil {
			return out, nil
		}
		lastErr = err
		var re *retryableError
		if !errors.As(err, &re) {
			return "", err
		}
	}
	return "", lastErr
}

type retryableError struct {
	status string
	wait   time.Duration
	err    error
}

func (e *retryableError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "chat completion failed: " + e.status
}

func (e *retryableError) Unwrap() error { return e.err }

func (c *Client) do(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", &retryableError{err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		re := &retryableError{status: resp.Status}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			re.wait = time.Duration(secs) * time.Second
		}
		return "", re
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &retryableError{err: err}
	}
	var out chatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if resp.StatusCode >= 300 {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("chat completion failed: %s: %s", resp.Status, out.Error.Message)
		}
		return "", fmt.Errorf("chat completion failed: %s", resp.Status)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func lastDelay(err error, attempt int) time.Duration {
	var re *retryableError
	if errors.As(err, &re) && re.wait > 0 {
		return re.wait
	}
	return retryDelay(attempt)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 500 * time.Millisecond
	// exponential backoff capped at 10s
	d := base << attempt
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
