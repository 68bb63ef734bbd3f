package usecase

import (
	"fmt"

	"scenario-bot/internal/domain"
	"scenario-bot/internal/locale"
)

type replyData struct {
	Topic    string
	Tone     string
	Reason   string
	Scenario domain.StructuredScenario
}

type inputErrorData struct {
	Reason   string
	Examples []string
}

type limitsData struct {
	MaxLength int
	MinLength int
}

type errorData struct {
	Error string
}

func renderScenarioReply(loc *locale.Locale, in domain.ParsedInput, tone domain.ToneAnalysis, s domain.StructuredScenario) (string, error) {
	return loc.Render(locale.TemplateReply, replyData{
		Topic:    in.Topic,
		Tone:     tone.Tone,
		Reason:   tone.Reason,
		Scenario: s,
	})
}

func renderInputError(loc *locale.Locale, reason string, limits limitsData) string {
	text, err := loc.Render("reason."+reason, limits)
	if err != nil {
		text = reason
	}
	out, err := loc.Render(locale.TemplateInputError, inputErrorData{Reason: text, Examples: loc.Input.Examples})
	if err != nil {
		return text
	}
	return out
}

func renderErrorMessage(loc *locale.Locale, name string, cause error) string {
	out, err := loc.Render(name, errorData{Error: cause.Error()})
	if err != nil {
		return fmt.Sprintf("%s: %v", name, cause)
	}
	return out
}
