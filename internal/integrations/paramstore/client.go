package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Parameter names read under the configured prefix.
const (
	OpenAITokenParam        = "/open-ai-token"
	SlackSigningSecretParam = "/slack-signing-secret"
	SlackBotTokenParam      = "/slack-bot-token"
)

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter is the interface that wraps GetParameter.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client wraps an AWS SSM API for parameter retrieval.
type Client struct {
	api ssmAPI
}

// New creates a Client with the given SSM API implementation.
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	return *out.Parameter.Value, nil
}

// tokenPayload is the JSON shape stored for secret tokens.
type tokenPayload struct {
	Token string `json:"token"`
}

// GetToken reads a secret parameter. Values shaped like {"token": "..."} are
// unwrapped; any other value is used as-is after trimming.
func GetToken(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("paramstore: getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: token parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch token: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var tp tokenPayload
		if err := json.Unmarshal([]byte(raw), &tp); err != nil {
			return "", fmt.Errorf("paramstore: unmarshal token value as JSON: %w", err)
		}
		raw = strings.TrimSpace(tp.Token)
	}
	if raw == "" {
		return "", fmt.Errorf("paramstore: token %q is empty", name)
	}
	return raw, nil
}

// CachedToken fetches a token on first use and keeps it once a lookup
// succeeds. Failed lookups are not cached.
type CachedToken struct {
	getter Getter
	name   string

	mu    sync.Mutex
	token string
}

func NewCachedToken(getter Getter, name string) (*CachedToken, error) {
	if getter == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("paramstore: token parameter name is empty")
	}
	return &CachedToken{getter: getter, name: name}, nil
}

func (c *CachedToken) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	token, err := GetToken(ctx, c.getter, c.name)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// ParamName joins a prefix and a parameter suffix, tolerating a trailing
// slash on the prefix.
func ParamName(prefix, suffix string) string {
	return strings.TrimRight(strings.TrimSpace(prefix), "/") + suffix
}
