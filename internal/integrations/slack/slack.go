package slack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"

	"scenario-bot/internal/domain"
)

const maxBodyBytes = 1 << 20

// ErrUnauthorized is returned when a request fails signature verification.
var ErrUnauthorized = errors.New("slack: request signature verification failed")

// Verifier checks Slack request signatures against the app signing secret.
type Verifier struct {
	secret string
}

func NewVerifier(signingSecret string) (*Verifier, error) {
	signingSecret = strings.TrimSpace(signingSecret)
	if signingSecret == "" {
		return nil, errors.New("slack: signing secret must not be empty")
	}
	return &Verifier{secret: signingSecret}, nil
}

// Verify checks the X-Slack-Signature and X-Slack-Request-Timestamp headers
// against body. Stale timestamps are rejected.
func (v *Verifier) Verify(header http.Header, body []byte) error {
	sv, err := slackapi.NewSecretsVerifier(header, v.secret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if _, err := sv.Write(body); err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if err := sv.Ensure(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}

// ReadCommand verifies and parses a slash command request. The body is
// restored on r so it can be read again by the form parser.
func (v *Verifier) ReadCommand(r *http.Request) (domain.Command, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return domain.Command{}, fmt.Errorf("slack: read body: %w", err)
	}
	_ = r.Body.Close()

	if err := v.Verify(r.Header, body); err != nil {
		return domain.Command{}, err
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slackapi.SlashCommandParse(r)
	if err != nil {
		return domain.Command{}, fmt.Errorf("slack: parse slash command: %w", err)
	}
	return domain.Command{
		Name:        cmd.Command,
		UserID:      cmd.UserID,
		UserName:    cmd.UserName,
		ChannelID:   cmd.ChannelID,
		Text:        cmd.Text,
		ResponseURL: cmd.ResponseURL,
	}, nil
}

// Replier posts the single reply for a command. With a bot token it posts
// into the command's channel through chat.postMessage; without one it
// answers through the command's response_url.
type Replier struct {
	api        *slackapi.Client
	httpClient *http.Client
}

type Option func(*replierOptions)

type replierOptions struct {
	apiURL     string
	httpClient *http.Client
}

// WithAPIURL points the Web API client at a different base URL. The URL must
// end with a slash.
func WithAPIURL(url string) Option {
	return func(o *replierOptions) {
		o.apiURL = url
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *replierOptions) {
		o.httpClient = c
	}
}

func NewReplier(botToken string, opts ...Option) *Replier {
	o := replierOptions{httpClient: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Replier{httpClient: o.httpClient}
	if botToken = strings.TrimSpace(botToken); botToken != "" {
		apiOpts := []slackapi.Option{slackapi.OptionHTTPClient(o.httpClient)}
		if o.apiURL != "" {
			apiOpts = append(apiOpts, slackapi.OptionAPIURL(o.apiURL))
		}
		r.api = slackapi.New(botToken, apiOpts...)
	}
	return r
}

func (r *Replier) Reply(ctx context.Context, cmd domain.Command, text string) error {
	if r.api != nil && cmd.ChannelID != "" {
		if _, _, err := r.api.PostMessageContext(ctx, cmd.ChannelID, slackapi.MsgOptionText(text, false)); err != nil {
			return fmt.Errorf("slack: post message to %s: %w", cmd.ChannelID, err)
		}
		return nil
	}
	if cmd.ResponseURL == "" {
		return errors.New("slack: command has neither channel access nor response url")
	}
	msg := &slackapi.WebhookMessage{Text: text, ResponseType: slackapi.ResponseTypeInChannel}
	if err := slackapi.PostWebhookCustomHTTPContext(ctx, cmd.ResponseURL, r.httpClient, msg); err != nil {
		return fmt.Errorf("slack: post to response url: %w", err)
	}
	return nil
}
