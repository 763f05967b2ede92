package constants

const (
	OpenAI        = "openai"
	Gemini        = "gemini"
	Deterministic = "deterministic"
)

const (
	OpenAIModel     = "gpt-4o"
	OpenAIMaxTokens = 2048
	GeminiModel     = "gemini-2.0-flash"
	GeminiMaxTokens = 2048
	LLMTemperature  = 0.2
)
