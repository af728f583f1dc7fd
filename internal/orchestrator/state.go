package orchestrator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

// state identifies a step in the per-request pipeline.
type state string

const (
	stateReceived        state = "received"
	stateStageOne        state = "stage_one"
	stateRetrieveContext state = "retrieve_context"
	stateStageTwo        state = "stage_two"
	stateMerged          state = "merged"
	stateDone            state = "done"
	stateFailed          state = "failed"
)

// request tracks a single task through the pipeline. A request is confined
// to one goroutine; the orchestrator shares nothing between requests.
type request struct {
	id    string
	kind  types.TaskKind
	code  string
	state state
	trace []state
}

func newRequest(kind types.TaskKind, code string) *request {
	return &request{
		id:    uuid.NewString(),
		kind:  kind,
		code:  code,
		state: stateReceived,
		trace: []state{stateReceived},
	}
}

// advance moves the request to the next state. The pipeline shape is fixed,
// so an illegal move is a bug, not a runtime condition.
func (r *request) advance(to state) {
	if !legalTransition(r.state, to) {
		panic(fmt.Sprintf("orchestrator: illegal transition %s -> %s", r.state, to))
	}
	r.state = to
	r.trace = append(r.trace, to)
}

// legalTransition reports whether the pipeline may move between two states.
// done and failed are terminal; failed is reachable from everywhere else.
// Tasks without a stage one go straight from received to retrieval.
func legalTransition(from, to state) bool {
	if from == stateDone || from == stateFailed {
		return false
	}
	if to == stateFailed {
		return true
	}

	switch from {
	case stateReceived:
		return to == stateStageOne || to == stateRetrieveContext
	case stateStageOne:
		return to == stateRetrieveContext
	case stateRetrieveContext:
		return to == stateStageTwo
	case stateStageTwo:
		return to == stateMerged
	case stateMerged:
		return to == stateDone
	default:
		return false
	}
}
