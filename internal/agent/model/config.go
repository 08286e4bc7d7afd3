package model

// ================ Config ================

// ChatModelConfig configures the generation backends and the retry policy
// around them. Durations are strings so main can parse and validate them in
// one place.
type ChatModelConfig struct {
	Model          string  `envconfig:"LLM_MODEL" default:"gemini-2.5-flash"`
	FallbackModel  string  `envconfig:"LLM_FALLBACK_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens      int     `envconfig:"LLM_MAX_TOKENS" default:"2000"`
	Temperature    float32 `envconfig:"LLM_TEMPERATURE" default:"0.4"`
	MaxRetries     int     `envconfig:"LLM_MAX_CALL_RETRIES" default:"3"`
	AttemptTimeout string  `envconfig:"LLM_ATTEMPT_TIMEOUT" default:"60s"`
}

type ConversationConfig struct {
	TTL         string `envconfig:"CONVERSATION_TTL" default:"15m"`
	TokenBudget int    `envconfig:"CONVERSATION_TOKEN_BUDGET" default:"2000"`
	Tools       struct {
		MaxRounds int `envconfig:"CONVERSATION_TOOL_MAX_ROUNDS" default:"10"`
	}
	// CheckpointRequired controls whether a missing checkpoint backend is
	// fatal at startup. When false the engine runs on the in-memory store and
	// conversations are not resumable across restarts.
	CheckpointRequired bool `envconfig:"CHECKPOINT_REQUIRED" default:"true"`
}

type PromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"Relay"`
	BusinessName  string `envconfig:"PROMPT_BUSINESS_NAME" default:"TechHub"`
}
