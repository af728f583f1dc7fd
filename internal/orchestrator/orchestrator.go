package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/raglab/codeassist-mcp/internal/llm"
	"github.com/raglab/codeassist-mcp/pkg/types"
)

// ContextSource supplies retrieval for stage-two prompts. Satisfied by
// *retriever.Retriever.
type ContextSource interface {
	Retrieve(ctx context.Context, query string, k int, minScore float64) (*types.RetrievalResult, error)
}

// retrievalPolicy is the per-kind retrieval depth and similarity floor.
type retrievalPolicy struct {
	k        int
	minScore float64
}

// Retrieval defaults per task kind: fix only trusts near-identical working
// code, optimize accepts looser pattern matches, the prose tasks cast a
// wide net.
var defaultPolicies = map[types.TaskKind]retrievalPolicy{
	types.TaskExplain:  {k: 3, minScore: 0.30},
	types.TaskDocument: {k: 3, minScore: 0.30},
	types.TaskFix:      {k: 2, minScore: 0.70},
	types.TaskOptimize: {k: 2, minScore: 0.60},
	types.TaskTest:     {k: 2, minScore: 0.30},
}

// Config holds optional orchestrator settings.
type Config struct {
	// RetrievalK overrides every task kind's retrieval depth when > 0
	RetrievalK int

	// MinScore overrides every task kind's similarity floor when > 0
	MinScore float64
}

// Orchestrator runs generation tasks through the two-stage pipeline. It
// keeps no per-request state, so one instance serves concurrent requests.
type Orchestrator struct {
	base       llm.BaseModel
	enhancer   llm.Enhancer // nil = enhancement disabled
	source     ContextSource
	retrievalK int
	minScore   float64
}

// New creates an orchestrator. A nil enhancer disables the enhancement
// stage: explain and document degrade to stage-one output, the code tasks
// fail with types.ErrEnhancementUnavailable. config may be nil.
func New(base llm.BaseModel, enhancer llm.Enhancer, source ContextSource, config *Config) *Orchestrator {
	o := &Orchestrator{
		base:     base,
		enhancer: enhancer,
		source:   source,
	}

	if config != nil {
		o.retrievalK = config.RetrievalK
		o.minScore = config.MinScore
	}

	return o
}

// Process runs one generation task to completion.
func (o *Orchestrator) Process(ctx context.Context, kind types.TaskKind, code string) (*types.ProcessResult, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("code must not be empty")
	}

	req := newRequest(kind, code)
	result := &types.ProcessResult{Task: kind}

	if kind.HasStageOne() {
		req.advance(stateStageOne)
		draft, err := o.base.Generate(ctx, stageOnePrompt(kind, code))
		if err != nil {
			req.advance(stateFailed)
			return nil, fmt.Errorf("stage one (%s): %w", o.base.Name(), err)
		}
		result.BaseOutput = strings.TrimSpace(draft)
	}

	req.advance(stateRetrieveContext)
	contextBlock := o.retrieveContext(ctx, req)
	result.UsedContext = contextBlock != ""

	req.advance(stateStageTwo)
	enhanced, err := o.enhance(ctx, kind, code, result.BaseOutput, contextBlock)
	if err != nil {
		if kind.HasStageOne() {
			log.Printf("orchestrator: request %s degraded to stage-one output: %v", req.id, err)
			result.Degraded = true
			req.advance(stateMerged)
			req.advance(stateDone)
			return result, nil
		}
		req.advance(stateFailed)
		return nil, err
	}

	req.advance(stateMerged)
	merge(result, kind, enhanced, code)

	req.advance(stateDone)
	return result, nil
}

// retrieveContext embeds the task code as the retrieval query and formats
// the hits as commented blocks. Best-effort: a failed or empty retrieval
// means the request proceeds without context.
func (o *Orchestrator) retrieveContext(ctx context.Context, req *request) string {
	policy := o.policyFor(req.kind)

	res, err := o.source.Retrieve(ctx, req.code, policy.k, policy.minScore)
	if err != nil {
		log.Printf("orchestrator: request %s: retrieval skipped: %v", req.id, err)
		return ""
	}
	return formatContext(res)
}

func (o *Orchestrator) enhance(ctx context.Context, kind types.TaskKind, code, draft, contextBlock string) (string, error) {
	if o.enhancer == nil {
		return "", fmt.Errorf("%w: no enhancer configured", types.ErrEnhancementUnavailable)
	}
	return o.enhancer.Enhance(ctx, stageTwoPrompt(kind, code, draft, contextBlock))
}

func (o *Orchestrator) policyFor(kind types.TaskKind) retrievalPolicy {
	policy := defaultPolicies[kind]
	if o.retrievalK > 0 {
		policy.k = o.retrievalK
	}
	if o.minScore > 0 {
		policy.minScore = o.minScore
	}
	return policy
}
