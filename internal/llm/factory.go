package llm

import (
	"fmt"
	"os"
	"strings"
)

// NewBaseModelFromEnv creates the stage-one base model client.
// CODEASSIST_BASE_MODEL_URL and CODEASSIST_BASE_MODEL override the local
// defaults; the endpoint is always constructed, and an unreachable server
// surfaces at call time.
func NewBaseModelFromEnv() BaseModel {
	return NewOllamaBase(
		os.Getenv(EnvBaseModelURL),
		os.Getenv(EnvBaseModel),
		os.Getenv(EnvOllamaToken),
	)
}

// NewEnhancerFromEnv creates the enhancement client based on environment
// variables. A nil Enhancer with nil error means enhancement is disabled;
// callers degrade per task kind.
//
// Priority:
//  1. CODEASSIST_ENHANCER (anthropic, ollama, none)
//  2. ANTHROPIC_API_KEY set: use Anthropic
//  3. Default: disabled
func NewEnhancerFromEnv() (Enhancer, error) {
	kind := strings.ToLower(os.Getenv(EnvEnhancer))
	model := os.Getenv(EnvEnhancerModel)

	switch kind {
	case EnhancerAnthropic:
		return NewAnthropicEnhancer(os.Getenv(EnvAnthropicKey), model)
	case EnhancerOllama:
		return NewOllamaEnhancer(os.Getenv(EnvOllamaURL), model, os.Getenv(EnvOllamaToken)), nil
	case EnhancerNone:
		return nil, nil
	case "":
		if key := os.Getenv(EnvAnthropicKey); key != "" {
			return NewAnthropicEnhancer(key, model)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown enhancer %q", kind)
	}
}
