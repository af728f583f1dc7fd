package orchestrator

import (
	"fmt"
	"strings"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

const fence = "```"

// taskPrefixes are the stage-one instruction prefixes the base model is
// tuned on. The prefix plus the raw code is the entire stage-one prompt.
var taskPrefixes = map[types.TaskKind]string{
	types.TaskExplain:  "explain code: ",
	types.TaskDocument: "generate documentation for: ",
	types.TaskFix:      "fix bug in code: ",
	types.TaskOptimize: "optimize code: ",
	types.TaskTest:     "generate unit tests for: ",
}

func stageOnePrompt(kind types.TaskKind, code string) string {
	return taskPrefixes[kind] + code
}

// stageTwoPrompt builds the enhancement prompt: task framing, the original
// code, the stage-one draft when one exists, and retrieved context blocks.
func stageTwoPrompt(kind types.TaskKind, code, draft, contextBlock string) string {
	switch kind {
	case types.TaskExplain:
		return explainPrompt(code, draft, contextBlock)
	case types.TaskDocument:
		return documentPrompt(code, draft, contextBlock)
	case types.TaskFix:
		return fixPrompt(code, contextBlock)
	case types.TaskOptimize:
		return optimizePrompt(code, contextBlock)
	case types.TaskTest:
		return testPrompt(code, contextBlock)
	default:
		return code
	}
}

func explainPrompt(code, draft, contextBlock string) string {
	var b strings.Builder
	b.WriteString("You are enhancing a code explanation.\n\n")
	writeCodeBlock(&b, "Code", code)
	if draft != "" {
		b.WriteString("Draft explanation:\n")
		b.WriteString(draft)
		b.WriteString("\n\n")
	}
	writeContext(&b, "Related code from the codebase", contextBlock)
	b.WriteString("Expand on the logic and flow, identify bugs or logical errors such as unreachable conditions, and cover edge cases. Provide an enhanced 4-6 sentence explanation that builds on the draft.\n\nEnhanced explanation:")
	return b.String()
}

func documentPrompt(code, draft, contextBlock string) string {
	var b strings.Builder
	b.WriteString("You are enhancing code documentation.\n\n")
	writeCodeBlock(&b, "Code", code)
	if draft != "" {
		b.WriteString("Draft documentation:\n")
		b.WriteString(draft)
		b.WriteString("\n\n")
	}
	writeContext(&b, "Related code from the codebase", contextBlock)
	b.WriteString("Write a complete doc comment: a one-line summary, a detailed description, every parameter with its type and meaning, the return value, and any edge cases worth noting. Return ONLY the doc comment.\n\nEnhanced documentation:")
	return b.String()
}

func fixPrompt(code, contextBlock string) string {
	var b strings.Builder
	b.WriteString("Fix the bugs in this code. Pay special attention to logical errors like unreachable conditions.\n\n")
	writeCodeBlock(&b, "Buggy code", code)
	writeContext(&b, "Similar working code from the codebase for reference", contextBlock)
	b.WriteString("Provide your response in this EXACT format:\n\n")
	b.WriteString(markerFixedCode + "\n")
	b.WriteString(fence + "\n[corrected code]\n" + fence + "\n\n")
	b.WriteString(markerExplanation + "\n")
	b.WriteString("[what was wrong and how you fixed it]\n")
	return b.String()
}

func optimizePrompt(code, contextBlock string) string {
	var b strings.Builder
	b.WriteString("Optimize this code for performance, readability, and best practices.\n\n")
	writeCodeBlock(&b, "Code", code)
	writeContext(&b, "Optimization patterns from the codebase", contextBlock)
	b.WriteString("Provide your response in this EXACT format:\n\n")
	b.WriteString(markerOptimizedCode + "\n")
	b.WriteString(fence + "\n[optimized code]\n" + fence + "\n\n")
	b.WriteString(markerImprovements + "\n")
	b.WriteString("[what you improved and why]\n")
	return b.String()
}

func testPrompt(code, contextBlock string) string {
	var b strings.Builder
	b.WriteString("Generate comprehensive unit tests for this code.\n\n")
	writeCodeBlock(&b, "Code", code)
	writeContext(&b, "Related code from the codebase", contextBlock)
	b.WriteString("Cover normal cases, edge cases at boundary values, and error cases. Return ONLY the complete test code, imports included.\n\nTest code:")
	return b.String()
}

func writeCodeBlock(b *strings.Builder, label, code string) {
	b.WriteString(label)
	b.WriteString(":\n")
	b.WriteString(fence)
	b.WriteByte('\n')
	b.WriteString(code)
	b.WriteByte('\n')
	b.WriteString(fence)
	b.WriteString("\n\n")
}

func writeContext(b *strings.Builder, label, contextBlock string) {
	if contextBlock == "" {
		return
	}
	b.WriteString(label)
	b.WriteString(":\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\n")
}

// formatContext renders retrieval hits as commented context blocks.
func formatContext(result *types.RetrievalResult) string {
	if result == nil || result.Empty() {
		return ""
	}

	parts := make([]string, len(result.Results))
	for i, hit := range result.Results {
		parts[i] = fmt.Sprintf("// File: %s (similarity: %.2f)\n%s", hit.Snippet.FilePath, hit.Score, hit.Snippet.Content)
	}
	return strings.Join(parts, "\n\n")
}
