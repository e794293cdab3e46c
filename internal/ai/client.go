// Package ai talks to an OpenAI-style chat-completions endpoint. Text
// generation is opaque to the rest of the app: messages in, a string out.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultURL   = "https://api.openai.com/v1/chat/completions"
	DefaultModel = "gpt-4o-mini"
)

var ErrNoAPIKey = errors.New("OPENAI_API_KEY is not set")

// Error is every failure the client returns. Message is safe to show.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.Status)
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Completer is the prompt-in/text-out boundary.
type Completer interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

type Client struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	http        *http.Client
}

type Option func(*Client)

func WithURL(url string) Option { return func(c *Client) { c.apiURL = url } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithMaxTokens(n int) Option { return func(c *Client) { c.maxTokens = n } }

func New(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:      apiKey,
		apiURL:      DefaultURL,
		model:       model,
		maxTokens:   400,
		temperature: 0.7,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Complete sends msgs and returns the first choice, trimmed.
func (c *Client) Complete(ctx context.Context, msgs []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", &Error{Op: "encode request", Message: "could not build the request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Op: "create request", Message: "could not build the request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Op: "send request", Message: "the AI service is unreachable", Err: err}
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{Op: "decode response", Status: resp.StatusCode, Message: "the AI service sent an unreadable reply", Err: err}
	}
	if out.Error != nil {
		return "", &Error{Op: "complete", Status: resp.StatusCode, Message: out.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Op: "complete", Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if len(out.Choices) == 0 {
		return "", &Error{Op: "complete", Status: resp.StatusCode, Message: "no reply was generated"}
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
