package domain

// Message is a single turn in a session transcript (user or assistant).
// Messages are never modified after they are appended.
type Message struct {
	ID        MessageID
	Role      Role
	Content   string
	CreatedAt Timestamp

	// Failure is set on synthetic assistant turns that report a provider failure.
	Failure FailureKind
}

// Snapshot is a point-in-time copy of a session's observable state.
type Snapshot struct {
	SessionID  SessionID
	Category   Category
	Title      string
	Transcript []Message
	Pending    bool
}

// Last returns the most recent transcript entry, if any.
func (s Snapshot) Last() (Message, bool) {
	if len(s.Transcript) == 0 {
		return Message{}, false
	}
	return s.Transcript[len(s.Transcript)-1], true
}

// Turn is one entry of a provider request.
type Turn struct {
	Role Role
	Text string
}

// GenerationConfig holds the sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32
}

// DefaultGenerationConfig is the fixed configuration used by chat sessions.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}
}

// GenerateRequest is what a session hands to a Provider.
type GenerateRequest struct {
	Turns     []Turn
	Directive string
	Config    GenerationConfig
}

// Reply is the provider's answer. An empty Text means the response carried
// no candidate text.
type Reply struct {
	Text string
}
