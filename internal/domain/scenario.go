package domain

// Command is a single slash command invocation delivered by the chat transport.
type Command struct {
	Name        string
	UserID      string
	UserName    string
	ChannelID   string
	Text        string
	ResponseURL string
}

// ParsedInput is the normalized topic/outline pair. Topic and Outline must not
// be used when Err is set.
type ParsedInput struct {
	Topic   string
	Outline string
	Err     error
}

// ToneAnalysis is the narrative tone chosen for a scenario.
type ToneAnalysis struct {
	Tone   string `json:"tone"`
	Reason string `json:"reason"`
}

// StructuredScenario is the three-part script parsed from a model reply.
type StructuredScenario struct {
	Opening    string   `json:"opening"`
	MainPoints []string `json:"main_points"`
	Closing    string   `json:"closing"`
}

// LogEntry is one record of the in-memory log list served by the log API.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}
