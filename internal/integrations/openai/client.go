package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"scenario-bot/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4.1-nano"
	defaultTimeout = 60 * time.Second
)

// TokenSource supplies the API key. *paramstore.CachedToken satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a key known at startup.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", errors.New("openai: API token is empty")
	}
	return strings.TrimSpace(string(s)), nil
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client generates chat completions through an OpenAI-compatible endpoint.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	tokens     TokenSource

	mu  sync.Mutex
	api *goopenai.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model = strings.TrimSpace(model); model != "" {
			c.model = model
		}
	}
}

// NewClient creates a Client whose API key comes from tokens. The key is
// resolved on the first successful Generate call and reused afterwards; a
// failed lookup is retried on the next call.
func NewClient(tokens TokenSource, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("openai: token source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) resolveAPI(ctx context.Context) (*goopenai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api != nil {
		return c.api, nil
	}
	key, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("openai: resolve API key: %w", err)
	}
	cfg := goopenai.DefaultConfig(key)
	cfg.BaseURL = c.baseURL
	if c.httpClient != nil {
		cfg.HTTPClient = c.httpClient
	}
	c.api = goopenai.NewClientWithConfig(cfg)
	return c.api, nil
}

// Generate sends req as a single chat completion and returns the text of the
// first choice.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	api, err := c.resolveAPI(ctx)
	if err != nil {
		return "", err
	}

	resp, err := api.CreateChatCompletion(ctx, chatCompletionRequest(c.model, req))
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", mapError(err))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func chatCompletionRequest(model string, req domain.GenerationRequest) goopenai.ChatCompletionRequest {
	msgs := req.Messages()
	out := goopenai.ChatCompletionRequest{
		Model:            model,
		Messages:         make([]goopenai.ChatCompletionMessage, 0, len(msgs)),
		MaxTokens:        req.MaxTokens,
		Temperature:      float32(req.Temperature),
		PresencePenalty:  float32(req.PresencePenalty),
		FrequencyPenalty: float32(req.FrequencyPenalty),
	}
	for _, m := range msgs {
		out.Messages = append(out.Messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if req.JSON {
		out.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return out
}

// mapError converts go-openai status errors into *HTTPStatusError so callers
// can classify them without importing the SDK.
func mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &HTTPStatusError{StatusCode: reqErr.HTTPStatusCode, Body: body}
	}
	return err
}
