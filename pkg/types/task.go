package types

import "fmt"

// TaskKind identifies a generation task. The set is closed: every switch over
// TaskKind handles all five kinds explicitly.
type TaskKind string

const (
	TaskExplain  TaskKind = "explain"
	TaskDocument TaskKind = "document"
	TaskFix      TaskKind = "fix"
	TaskOptimize TaskKind = "optimize"
	TaskTest     TaskKind = "test"
)

// AllTaskKinds lists every valid task kind, in presentation order.
var AllTaskKinds = []TaskKind{TaskExplain, TaskDocument, TaskFix, TaskOptimize, TaskTest}

// ParseTaskKind converts a raw string into a TaskKind, rejecting anything
// outside the closed set.
func ParseTaskKind(s string) (TaskKind, error) {
	switch TaskKind(s) {
	case TaskExplain, TaskDocument, TaskFix, TaskOptimize, TaskTest:
		return TaskKind(s), nil
	default:
		return "", fmt.Errorf("unknown task kind %q (valid: explain, document, fix, optimize, test)", s)
	}
}

// Validate checks if the task kind is a member of the closed set
func (t TaskKind) Validate() error {
	_, err := ParseTaskKind(string(t))
	return err
}

// HasStageOne reports whether the task runs the base model before
// enhancement. Tasks without a stage one go straight to the enhanced stage
// and cannot degrade to a base-only result.
func (t TaskKind) HasStageOne() bool {
	switch t {
	case TaskExplain, TaskDocument:
		return true
	case TaskFix, TaskOptimize, TaskTest:
		return false
	default:
		return false
	}
}
