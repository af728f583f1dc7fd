package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

// DefaultMaxTokens bounds enhancement responses
const DefaultMaxTokens = 1024

// AnthropicEnhancer implements Enhancer on the Anthropic Messages API
type AnthropicEnhancer struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicEnhancer creates an Anthropic-backed enhancer. The model may
// be empty, in which case the latest Sonnet alias is used.
func NewAnthropicEnhancer(apiKey, model string) (*AnthropicEnhancer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is not set")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	resolved := anthropic.ModelClaude3_7SonnetLatest
	if model != "" {
		resolved = anthropic.Model(model)
	}

	return &AnthropicEnhancer{
		client:    &client,
		model:     resolved,
		maxTokens: DefaultMaxTokens,
	}, nil
}

// Enhance sends the prompt as a single user message and concatenates the
// text blocks of the reply. Failures are reported as
// types.ErrEnhancementUnavailable.
func (a *AnthropicEnhancer) Enhance(ctx context.Context, prompt string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrEnhancementUnavailable, err)
	}

	var out strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			out.WriteString(content.Text)
		}
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("%w: empty response", types.ErrEnhancementUnavailable)
	}

	return out.String(), nil
}

// Name returns the model identifier
func (a *AnthropicEnhancer) Name() string {
	return string(a.model)
}
