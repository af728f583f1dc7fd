package llm

import "context"

// Environment variables consulted by the model factories
const (
	EnvEnhancer      = "CODEASSIST_ENHANCER"
	EnvEnhancerModel = "CODEASSIST_ENHANCER_MODEL"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvBaseModelURL  = "CODEASSIST_BASE_MODEL_URL"
	EnvBaseModel     = "CODEASSIST_BASE_MODEL"
	EnvOllamaURL     = "CODEASSIST_OLLAMA_URL"
	EnvOllamaToken   = "CODEASSIST_OLLAMA_TOKEN"
)

// Enhancer kinds accepted by EnvEnhancer
const (
	EnhancerAnthropic = "anthropic"
	EnhancerOllama    = "ollama"
	EnhancerNone      = "none"
)

// BaseModel produces the stage-one draft from a task-prefixed prompt. It is
// a local text-generation endpoint, so output is fast and rough; the
// enhancement stage refines it.
type BaseModel interface {
	// Generate returns the model completion for the prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// Name returns the model identifier for logs
	Name() string
}

// Enhancer refines a draft (or handles the whole task for kinds without a
// stage one) on a stronger hosted model. Implementations report transport
// and API failures as types.ErrEnhancementUnavailable so callers can degrade
// instead of failing.
type Enhancer interface {
	// Enhance returns the model completion for the prompt
	Enhance(ctx context.Context, prompt string) (string, error)

	// Name returns the model identifier for logs
	Name() string
}
