package config

import "time"

type AssistantConfig struct {
	Enabled         bool          `yaml:"enabled"`
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	DefaultModel    string        `yaml:"default_model"`
	Models          []string      `yaml:"models"`
	HistoryLimit    int           `yaml:"history_limit"`
	SystemPrompt    string        `yaml:"system_prompt"`
	ConversationTTL time.Duration `yaml:"conversation_ttl"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

const defaultSystemPrompt = "You are a helpful assistant for the OusTaa ride-hailing app. Answer briefly and in the language of the question."

func loadAssistantConfig() *AssistantConfig {
	apiKey := getEnv("OPENAI_API_KEY", "")
	return &AssistantConfig{
		Enabled:         getEnvAsBool("ASSISTANT_ENABLED", apiKey != ""),
		APIKey:          apiKey,
		BaseURL:         getEnv("OPENAI_BASE_URL", ""),
		DefaultModel:    getEnv("ASSISTANT_DEFAULT_MODEL", "gpt-4"),
		Models:          getEnvAsSlice("ASSISTANT_MODELS", []string{"gpt-4", "gpt-4o-mini", "gpt-3.5-turbo"}),
		HistoryLimit:    getEnvAsInt("ASSISTANT_HISTORY_LIMIT", 20),
		SystemPrompt:    getEnv("ASSISTANT_SYSTEM_PROMPT", defaultSystemPrompt),
		ConversationTTL: getEnvAsDuration("ASSISTANT_CONVERSATION_TTL", 24*time.Hour),
		RequestTimeout:  getEnvAsDuration("ASSISTANT_REQUEST_TIMEOUT", 60*time.Second),
	}
}
