package orchestrator

import (
	"strings"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

// Markers the enhancement prompts request for structured responses.
const (
	markerFixedCode     = "FIXED_CODE:"
	markerExplanation   = "EXPLANATION:"
	markerOptimizedCode = "OPTIMIZED_CODE:"
	markerImprovements  = "IMPROVEMENTS:"
)

// merge shapes the raw enhanced output into the task's result form and
// attaches advisory hints.
func merge(result *types.ProcessResult, kind types.TaskKind, enhanced, code string) {
	result.EnhancedOutput = strings.TrimSpace(enhanced)

	switch kind {
	case types.TaskFix:
		result.Code, result.Explanation = parseMarked(enhanced, markerFixedCode, markerExplanation)
		result.Hints = detectFixHints(code)
	case types.TaskOptimize:
		result.Code, result.Explanation = parseMarked(enhanced, markerOptimizedCode, markerImprovements)
		result.Hints = detectOptimizeHints(code)
	case types.TaskTest:
		result.Code = fallbackCode(enhanced)
	case types.TaskExplain, types.TaskDocument:
		// Prose tasks: EnhancedOutput is the payload.
	}
}

// parseMarked splits a structured response on its two markers. When either
// marker is missing the whole response is treated as code.
func parseMarked(raw, codeMarker, textMarker string) (code, text string) {
	if !strings.Contains(raw, codeMarker) || !strings.Contains(raw, textMarker) {
		return fallbackCode(raw), ""
	}

	parts := strings.SplitN(raw, textMarker, 2)
	codePart := strings.Replace(parts[0], codeMarker, "", 1)
	text = strings.TrimSpace(parts[1])

	if block, ok := extractFencedBlock(codePart); ok {
		return block, text
	}
	return strings.TrimSpace(codePart), text
}

// fallbackCode extracts the first fenced block, or returns the trimmed raw
// text when the response has no fences at all.
func fallbackCode(raw string) string {
	if block, ok := extractFencedBlock(raw); ok {
		return block
	}
	return strings.TrimSpace(raw)
}

// extractFencedBlock returns the contents of the first markdown code fence.
// The opening fence may carry a language tag; a missing closing fence takes
// the rest of the string.
func extractFencedBlock(s string) (string, bool) {
	start := strings.Index(s, fence)
	if start == -1 {
		return "", false
	}

	rest := s[start+len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return "", false
	}
	rest = rest[nl+1:]

	if end := strings.Index(rest, fence); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}
