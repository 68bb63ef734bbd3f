package usecase

import (
	"scenario-bot/internal/domain"
	"scenario-bot/internal/locale"
)

const (
	scenarioMaxTokens        = 400
	scenarioTemperature      = 0.6
	scenarioPresencePenalty  = 0.6
	scenarioFrequencyPenalty = 0.6
)

type scenarioPromptData struct {
	Topic     string
	Outline   string
	Tone      string
	Reason    string
	Guideline string
	Headers   locale.Headers
}

// buildScenarioRequest assembles the generation request for one scenario.
// The same request is reused on every retry attempt.
func buildScenarioRequest(loc *locale.Locale, in domain.ParsedInput, tone domain.ToneAnalysis) (domain.GenerationRequest, error) {
	user, err := loc.Render(locale.TemplateScenarioUser, scenarioPromptData{
		Topic:     in.Topic,
		Outline:   in.Outline,
		Tone:      tone.Tone,
		Reason:    tone.Reason,
		Guideline: loc.Guideline(tone.Tone),
		Headers:   loc.Markers.Headers,
	})
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	return domain.GenerationRequest{
		System:           loc.Prompts.ScenarioSystem,
		User:             user,
		MaxTokens:        scenarioMaxTokens,
		Temperature:      scenarioTemperature,
		PresencePenalty:  scenarioPresencePenalty,
		FrequencyPenalty: scenarioFrequencyPenalty,
	}, nil
}
