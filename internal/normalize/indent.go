package normalize

import "strings"

// Tokens that end a block and request a dedent when flat code is re-indented.
var dedentAfter = map[string]bool{
	"return":   true,
	"pass":     true,
	"break":    true,
	"continue": true,
	"raise":    true,
}

// Tokens that belong to the enclosing block and must shift left before
// placement.
var dedentBefore = map[string]bool{
	"else":    true,
	"elif":    true,
	"except":  true,
	"finally": true,
}

// repairIndent re-indents completions whose indentation was lost in
// transport. It only acts when no line carries leading whitespace at all;
// already-indented input is returned untouched, which makes the pass
// idempotent.
func repairIndent(src string) string {
	lines := strings.Split(src, "\n")

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line != strings.TrimLeft(line, " \t") {
			return src
		}
	}

	hasBlocks := false
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasSuffix(t, ":") && !strings.HasPrefix(t, "#") {
			hasBlocks = true
			break
		}
	}
	if !hasBlocks {
		return src
	}

	out := make([]string, 0, len(lines))
	depth := 0
	justDedented := false
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			out = append(out, "")
			continue
		}

		word := firstWord(t)
		// A block-closing statement already dedented; else/elif/except then
		// sit at the level we are at, not one further out.
		if dedentBefore[word] && depth > 0 && !justDedented {
			depth--
		}
		justDedented = false

		out = append(out, strings.Repeat("    ", depth)+t)

		if strings.HasSuffix(t, ":") && !strings.HasPrefix(t, "#") {
			depth++
		} else if dedentAfter[word] && depth > 0 {
			depth--
			justDedented = true
		}
	}

	return strings.Join(out, "\n")
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == ':' || r == '(' {
			return s[:i]
		}
	}
	return s
}
