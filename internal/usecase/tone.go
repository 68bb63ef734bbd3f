package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"scenario-bot/internal/domain"
	"scenario-bot/internal/locale"
)

const (
	toneMaxTokens   = 200
	toneTemperature = 0.3
)

type tonePromptData struct {
	Topic   string
	Outline string
	Default string
	Tones   []locale.Tone
}

// ToneAnalyzer picks a narrative tone for a topic. It never fails: any error
// yields the locale default tone.
type ToneAnalyzer struct {
	llm     Generator
	loc     *locale.Locale
	metrics *Metrics
	logger  *zap.Logger
}

func NewToneAnalyzer(llm Generator, loc *locale.Locale, metrics *Metrics, logger *zap.Logger) (*ToneAnalyzer, error) {
	if llm == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if loc == nil {
		return nil, errors.New("usecase: locale must not be nil")
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToneAnalyzer{llm: llm, loc: loc, metrics: metrics, logger: logger.Named("tone")}, nil
}

func (a *ToneAnalyzer) Analyze(ctx context.Context, topic, outline string) domain.ToneAnalysis {
	prompt, err := a.loc.Render(locale.TemplateToneUser, tonePromptData{
		Topic:   topic,
		Outline: outline,
		Default: a.loc.Tones.Default,
		Tones:   a.loc.Tones.Catalog,
	})
	if err != nil {
		return a.fallback(err)
	}

	raw, err := a.llm.Generate(ctx, domain.GenerationRequest{
		System:      a.loc.Prompts.ToneSystem,
		User:        prompt,
		MaxTokens:   toneMaxTokens,
		Temperature: toneTemperature,
		JSON:        true,
	})
	if err != nil {
		return a.fallback(err)
	}

	out, err := parseToneAnalysis(raw, a.loc)
	if err != nil {
		return a.fallback(err)
	}
	a.logger.Info("tone analysis", zap.String("tone", out.Tone), zap.String("reason", out.Reason))
	return out
}

func (a *ToneAnalyzer) fallback(err error) domain.ToneAnalysis {
	a.logger.Error("tone analysis error", zap.Error(err))
	a.metrics.toneFallback()
	return domain.ToneAnalysis{Tone: a.loc.Tones.Default, Reason: a.loc.Tones.DefaultReason}
}

func parseToneAnalysis(raw string, loc *locale.Locale) (domain.ToneAnalysis, error) {
	var out domain.ToneAnalysis
	dec := json.NewDecoder(bytes.NewBufferString(stripCodeFence(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return domain.ToneAnalysis{}, fmt.Errorf("usecase: decode tone analysis: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return domain.ToneAnalysis{}, errors.New("usecase: decode tone analysis: multiple JSON values")
		}
		return domain.ToneAnalysis{}, fmt.Errorf("usecase: decode tone analysis trailing data: %w", err)
	}
	out.Tone = strings.TrimSpace(out.Tone)
	out.Reason = strings.TrimSpace(out.Reason)
	if !loc.IsTone(out.Tone) {
		return domain.ToneAnalysis{}, fmt.Errorf("usecase: unknown tone %q", out.Tone)
	}
	if out.Reason == "" {
		return domain.ToneAnalysis{}, errors.New("usecase: tone analysis missing reason")
	}
	return out, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
