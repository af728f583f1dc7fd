// Package orchestrator runs generation tasks through the two-stage hybrid
// pipeline behind the process_code tool.
//
// # Pipeline
//
// Every request walks a fixed state machine:
//
//	received -> stage_one -> retrieve_context -> stage_two -> merged -> done
//
// failed is terminal and reachable from every other non-terminal state.
// Explain and document run both stages: the base model drafts, retrieval
// gathers related snippets from the active index generation, and the
// enhancement model rewrites the draft with that context. Fix, optimize and
// test skip stage one and run as a single enhanced stage.
//
// # Degradation
//
// Enhancement is optional at runtime. When the enhancer is unavailable,
// explain and document return the stage-one draft with Degraded set; fix,
// optimize and test fail with types.ErrEnhancementUnavailable because they
// have no draft to fall back on. Retrieval is best-effort for every kind:
// a failed or empty retrieval clears UsedContext and the request proceeds.
// Nothing in this package ever touches the index.
//
// # Structured outputs
//
// Fix and optimize ask the enhancer for marker-formatted responses
// (FIXED_CODE: / EXPLANATION: and OPTIMIZED_CODE: / IMPROVEMENTS:). The
// merger splits on the markers and strips code fences, falling back to the
// raw response when a model ignores the format. Quick textual lint hints
// ride along on fix and optimize results.
//
// # Usage
//
//	orch := orchestrator.New(base, enhancer, retr, nil)
//
//	result, err := orch.Process(ctx, types.TaskFix, code)
//	if errors.Is(err, types.ErrEnhancementUnavailable) {
//		// enhancement outage; the index is unaffected
//	}
package orchestrator
