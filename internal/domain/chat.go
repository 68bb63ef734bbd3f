package domain

// ChatMessage is the provider-agnostic chat message shape used by the
// generation client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is one prompt sent to the language model together with
// its sampling parameters.
type GenerationRequest struct {
	System           string
	User             string
	MaxTokens        int
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64
	// JSON asks the model for a single JSON object reply.
	JSON bool
}

// Messages returns the request as an ordered system/user message pair.
func (r GenerationRequest) Messages() []ChatMessage {
	msgs := make([]ChatMessage, 0, 2)
	if r.System != "" {
		msgs = append(msgs, ChatMessage{Role: "system", Content: r.System})
	}
	return append(msgs, ChatMessage{Role: "user", Content: r.User})
}
