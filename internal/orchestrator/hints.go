package orchestrator

import "strings"

// detectFixHints runs quick textual lint checks over the code a fix task
// received. Findings are advisory; the model output stands on its own.
func detectFixHints(code string) []string {
	var hints []string

	for _, line := range strings.Split(code, "\n") {
		if !strings.Contains(line, "if ") && !strings.Contains(line, "while ") {
			continue
		}
		if containsBareAssignment(line) {
			hints = append(hints, "possible assignment instead of comparison in a conditional")
			break
		}
	}

	if unbalancedDelimiters(code) {
		hints = append(hints, "unbalanced brackets or parentheses")
	}

	return hints
}

// detectOptimizeHints flags textbook inefficiencies for optimize tasks.
func detectOptimizeHints(code string) []string {
	var hints []string

	hasLoop := strings.Contains(code, "for ") || strings.Contains(code, "while ")
	if hasLoop && strings.Contains(code, "append(") {
		hints = append(hints, "append inside a loop: preallocate the result when the final size is known")
	}
	if hasLoop && strings.Contains(code, "len(") {
		hints = append(hints, "len() called inside a loop: hoist it when the length does not change")
	}

	return hints
}

// containsBareAssignment reports a single = where a comparison would be
// expected. Compound operators (==, !=, <=, >=, :=, +=, ...) do not count.
func containsBareAssignment(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] != '=' {
			continue
		}
		if i+1 < len(line) && line[i+1] == '=' {
			i++
			continue
		}
		if i > 0 && strings.IndexByte("=!<>:+-*/%&|^", line[i-1]) != -1 {
			continue
		}
		return true
	}
	return false
}

// unbalancedDelimiters reports bracket pairs that do not close. Textual
// only; string literals are not tracked, so this stays a hint.
func unbalancedDelimiters(code string) bool {
	var parens, brackets, braces int
	for _, r := range code {
		switch r {
		case '(':
			parens++
		case ')':
			parens--
		case '[':
			brackets++
		case ']':
			brackets--
		case '{':
			braces++
		case '}':
			braces--
		}
	}
	return parens != 0 || brackets != 0 || braces != 0
}
