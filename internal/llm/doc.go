// Package llm provides the two model clients behind the generation
// pipeline: the local base model that drafts stage one, and the enhancer
// that refines or fully handles stage two.
//
// # Base Model
//
// The base model is an Ollama-style /api/generate endpoint. It receives the
// already-prefixed task prompt and returns a raw completion:
//
//	base := llm.NewBaseModelFromEnv()
//	draft, err := base.Generate(ctx, "explain code: "+code)
//
// # Enhancer
//
// The enhancer is either the Anthropic Messages API or a local Ollama
// /api/chat model, selected by CODEASSIST_ENHANCER:
//
//	enhancer, err := llm.NewEnhancerFromEnv()
//	if err != nil {
//	    return err
//	}
//	if enhancer == nil {
//	    // enhancement disabled; tasks degrade per kind
//	}
//
// Every enhancer failure (transport, API, empty reply) is wrapped in
// types.ErrEnhancementUnavailable. Callers branch with errors.Is: tasks with
// a stage one fall back to the draft, tasks without one surface the error.
//
// # Configuration
//
//	CODEASSIST_ENHANCER        anthropic | ollama | none (default: anthropic
//	                           when ANTHROPIC_API_KEY is set, else none)
//	CODEASSIST_ENHANCER_MODEL  model override for either enhancer
//	ANTHROPIC_API_KEY          required for the Anthropic enhancer
//	CODEASSIST_BASE_MODEL_URL  base model endpoint (default localhost:11434)
//	CODEASSIST_BASE_MODEL      base model name (default codellama)
package llm
