package usecase

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"scenario-bot/internal/domain"
	"scenario-bot/internal/locale"
)

const (
	defaultMaxInputLength = 1000
	defaultMinFieldLength = 3
	logPreviewLength      = 100
)

// Reasons attached to INVALID_INPUT errors produced by Normalize.
const (
	ReasonInputEmpty           = "input_empty"
	ReasonInputTooLong         = "input_too_long"
	ReasonDisallowedCharacters = "disallowed_characters"
	ReasonTopicTooShort        = "topic_too_short"
	ReasonOutlineTooShort      = "outline_too_short"
)

// Word characters, whitespace and , . ! ? : ; ( ) - " '
var allowedInput = regexp.MustCompile(`^[\p{L}\p{N}\p{M}_\s\p{Z},.!?:;()\-"']+$`)

// Normalizer turns raw command text into a validated topic/outline pair.
type Normalizer struct {
	maxLength int
	minLength int
	topicRe   *regexp.Regexp
	outlineRe *regexp.Regexp
	logger    *zap.Logger
}

func NewNormalizer(in locale.Input, maxLength, minLength int, logger *zap.Logger) *Normalizer {
	if maxLength <= 0 {
		maxLength = defaultMaxInputLength
	}
	if minLength <= 0 {
		minLength = defaultMinFieldLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	topic := labelPattern(in.TopicLabels)
	outline := labelPattern(in.OutlineLabels)
	return &Normalizer{
		maxLength: maxLength,
		minLength: minLength,
		topicRe:   regexp.MustCompile(`(?is)` + topic + `[:：]?\s*(.*?)(?:\s*` + outline + `|$)`),
		outlineRe: regexp.MustCompile(`(?is)` + outline + `[:：]?\s*(.*)$`),
		logger:    logger.Named("normalizer"),
	}
}

// labelPattern builds a non-capturing alternation, longest label first.
func labelPattern(labels []string) string {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			quoted = append(quoted, regexp.QuoteMeta(l))
		}
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return "(?:" + strings.Join(quoted, "|") + ")"
}

// Normalize validates text and extracts the topic and outline.
func (n *Normalizer) Normalize(text string) domain.ParsedInput {
	n.logger.Info("parsing input", zap.String("text", preview(text, logPreviewLength)))

	if strings.TrimSpace(text) == "" {
		return n.reject(domain.ParsedInput{}, ReasonInputEmpty)
	}
	if length := utf8.RuneCountInString(text); length > n.maxLength {
		n.logger.Warn("input too long", zap.Int("length", length))
		return n.reject(domain.ParsedInput{}, ReasonInputTooLong)
	}
	if !allowedInput.MatchString(text) {
		return n.reject(domain.ParsedInput{}, ReasonDisallowedCharacters)
	}

	out, labelled := n.extractLabelled(text)
	if !labelled {
		out = splitFallback(text)
	}

	if utf8.RuneCountInString(out.Topic) < n.minLength {
		return n.reject(out, ReasonTopicTooShort)
	}
	if utf8.RuneCountInString(out.Outline) < n.minLength {
		return n.reject(out, ReasonOutlineTooShort)
	}

	n.logger.Info("valid input parsed",
		zap.String("topic", preview(out.Topic, 50)),
		zap.String("outline", preview(out.Outline, 50)),
	)
	return out
}

func (n *Normalizer) extractLabelled(text string) (domain.ParsedInput, bool) {
	var out domain.ParsedInput
	found := false
	if m := n.topicRe.FindStringSubmatch(text); m != nil {
		out.Topic = strings.TrimSpace(m[1])
		found = true
	}
	if m := n.outlineRe.FindStringSubmatch(text); m != nil {
		out.Outline = strings.TrimSpace(m[1])
		found = true
	}
	return out, found
}

func splitFallback(text string) domain.ParsedInput {
	if topic, outline, ok := strings.Cut(text, ","); ok {
		return domain.ParsedInput{
			Topic:   strings.TrimSpace(topic),
			Outline: strings.TrimSpace(outline),
		}
	}
	whole := strings.TrimSpace(text)
	return domain.ParsedInput{Topic: whole, Outline: whole}
}

func (n *Normalizer) reject(out domain.ParsedInput, reason string) domain.ParsedInput {
	n.logger.Warn("input rejected", zap.String("reason", reason))
	out.Err = newError(ErrorInvalidInput, reason, nil)
	return out
}

// InputErrorReason returns the reason of an INVALID_INPUT error, or "" for
// any other error.
func InputErrorReason(err error) string {
	var ucErr *Error
	if errors.As(err, &ucErr) && ucErr.Code == ErrorInvalidInput {
		return ucErr.Reason
	}
	return ""
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
