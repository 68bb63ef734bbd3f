package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"scenario-bot/internal/domain"
	"scenario-bot/internal/locale"
)

const defaultMaxAttempts = 2

// Generation attempt results recorded by Metrics.
const (
	attemptSuccess   = "success"
	attemptMalformed = "malformed"
	attemptUpstream  = "upstream"
)

type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
}

type Replier interface {
	Reply(ctx context.Context, cmd domain.Command, text string) error
}

type HistoryAppender interface {
	Append(ctx context.Context, userID, entry string) error
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// Config carries the tunable limits of the scenario pipeline. Zero values
// select the defaults (2 attempts, 1000 characters, 3 characters).
type Config struct {
	MaxAttempts    int
	MaxInputLength int
	MinFieldLength int
}

// ScenarioService handles one scenario command end to end: normalize the
// input, analyze the tone, generate and structure the script with bounded
// retries, record history and emit exactly one reply.
type ScenarioService struct {
	llm         Generator
	replier     Replier
	history     HistoryAppender
	loc         *locale.Locale
	normalizer  *Normalizer
	tone        *ToneAnalyzer
	maxAttempts int
	limits      limitsData
	metrics     *Metrics
	logger      *zap.Logger
}

func NewScenarioService(llm Generator, replier Replier, history HistoryAppender, loc *locale.Locale, cfg Config, metrics *Metrics, logger *zap.Logger) (*ScenarioService, error) {
	if llm == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if replier == nil {
		return nil, errors.New("usecase: replier must not be nil")
	}
	if history == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	if loc == nil {
		return nil, errors.New("usecase: locale must not be nil")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.MaxInputLength <= 0 {
		cfg.MaxInputLength = defaultMaxInputLength
	}
	if cfg.MinFieldLength <= 0 {
		cfg.MinFieldLength = defaultMinFieldLength
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tone, err := NewToneAnalyzer(llm, loc, metrics, logger)
	if err != nil {
		return nil, err
	}
	return &ScenarioService{
		llm:         llm,
		replier:     replier,
		history:     history,
		loc:         loc,
		normalizer:  NewNormalizer(loc.Input, cfg.MaxInputLength, cfg.MinFieldLength, logger),
		tone:        tone,
		maxAttempts: cfg.MaxAttempts,
		limits:      limitsData{MaxLength: cfg.MaxInputLength, MinLength: cfg.MinFieldLength},
		metrics:     metrics,
		logger:      logger.Named("scenario"),
	}, nil
}

// Run processes cmd and replies to the user exactly once. Panics are
// recovered and reported as internal errors.
func (s *ScenarioService) Run(ctx context.Context, cmd domain.Command) {
	log := s.logger.With(zap.String("user_id", cmd.UserID))
	replied := false
	reply := func(text string) {
		replied = true
		if err := s.replier.Reply(ctx, cmd, text); err != nil {
			log.Error("failed to send reply", zap.Error(err))
		}
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("panic: %v", r)
		log.Error("error in scenario command", zap.Error(err))
		if !replied {
			s.metrics.commandHandled(outcomeInternal)
			reply(renderErrorMessage(s.loc, locale.TemplateInternal, err))
		}
	}()

	log.Info("received command",
		zap.String("user_name", cmd.UserName),
		zap.String("text", preview(cmd.Text, logPreviewLength)),
	)
	text, outcome := s.process(ctx, cmd, log)
	s.metrics.commandHandled(outcome)
	reply(text)
}

func (s *ScenarioService) process(ctx context.Context, cmd domain.Command, log *zap.Logger) (string, string) {
	parsed := s.normalizer.Normalize(strings.TrimSpace(cmd.Text))
	if parsed.Err != nil {
		return renderInputError(s.loc, InputErrorReason(parsed.Err), s.limits), outcomeInvalidInput
	}

	tone := s.tone.Analyze(ctx, parsed.Topic, parsed.Outline)

	req, err := buildScenarioRequest(s.loc, parsed, tone)
	if err != nil {
		log.Error("error in scenario command", zap.Error(err))
		return renderErrorMessage(s.loc, locale.TemplateInternal, err), outcomeInternal
	}

	scenario, err := Retry(ctx, s.maxAttempts, func(ctx context.Context, _ int) (domain.StructuredScenario, error) {
		return s.generate(ctx, req)
	}, func(attempt int, err error) {
		if errorCode(err) == ErrorMalformedResponse {
			log.Warn("scenario attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return
		}
		log.Error("scenario attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	})
	if err != nil {
		switch errorCode(err) {
		case ErrorMalformedResponse:
			return s.loc.Messages.Malformed, outcomeMalformed
		case ErrorUpstream, ErrorRateLimited:
			return renderErrorMessage(s.loc, locale.TemplateUpstream, errors.Unwrap(err)), outcomeUpstream
		default:
			log.Error("error in scenario command", zap.Error(err))
			return renderErrorMessage(s.loc, locale.TemplateInternal, err), outcomeInternal
		}
	}

	if entry, err := json.Marshal(scenario); err != nil {
		log.Error("failed to serialize scenario", zap.Error(err))
	} else if err := s.history.Append(ctx, cmd.UserID, string(entry)); err != nil {
		log.Error("failed to append history", zap.Error(err))
	}

	text, err := renderScenarioReply(s.loc, parsed, tone, scenario)
	if err != nil {
		log.Error("error in scenario command", zap.Error(err))
		return renderErrorMessage(s.loc, locale.TemplateInternal, err), outcomeInternal
	}
	log.Info("generated scenario", zap.String("topic", preview(parsed.Topic, 50)))
	return text, outcomeSuccess
}

// generate runs one attempt: a generation call followed by structuring.
func (s *ScenarioService) generate(ctx context.Context, req domain.GenerationRequest) (domain.StructuredScenario, error) {
	raw, err := s.llm.Generate(ctx, req)
	if err != nil {
		s.metrics.attempt(attemptUpstream)
		if status, ok := upstreamStatusCode(err); ok && status == http.StatusTooManyRequests {
			return domain.StructuredScenario{}, newError(ErrorRateLimited, "openai_rate_limited", err)
		}
		return domain.StructuredScenario{}, newError(ErrorUpstream, "openai_error", err)
	}
	out, err := Structure(raw, s.loc.Markers)
	if err != nil {
		s.metrics.attempt(attemptMalformed)
		return domain.StructuredScenario{}, newError(ErrorMalformedResponse, "openai_malformed_response", err)
	}
	s.metrics.attempt(attemptSuccess)
	return out, nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
