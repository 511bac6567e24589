package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/programme-lv/analyst/internal/policy"
)

// Candidate is a code fragment considered for execution. It is produced once
// by Normalize and never mutated afterwards.
type Candidate struct {
	Source   string
	Language string

	Rejected bool
	Reason   string
}

const LangPython = "python"

var (
	fenceRe      = regexp.MustCompile("(?s)```[ \t]*([a-zA-Z0-9_+-]*)[ \t]*\n(.*?)```")
	importRe     = regexp.MustCompile(`^\s*import\s+([A-Za-z_][A-Za-z0-9_.]*)`)
	fromRe       = regexp.MustCompile(`^\s*from\s+([A-Za-z_][A-Za-z0-9_.]*)\s+import`)
	tableRowRe   = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	inlineTickRe = regexp.MustCompile("^`([^`]+)`$")
)

// Normalize cleans a raw LLM completion into an executable candidate or
// rejects it. Pure function of the input and the policy allow-list;
// idempotent on already-valid input.
func Normalize(raw string, pol *policy.Policy) Candidate {
	src := stripWrapping(raw)

	if strings.TrimSpace(src) == "" {
		return reject("the completion contains no code")
	}

	if marker, ok := findMarkdownMarker(src); ok {
		return reject(fmt.Sprintf("mixed markdown and code (found %s)", marker))
	}

	if module, ok := findDisallowedImport(src, pol); ok {
		return reject(fmt.Sprintf("import of %q is not allowed", module))
	}

	src = repairIndent(src)

	if reason, ok := cannotParse(src); ok {
		return reject(reason)
	}

	return Candidate{Source: src, Language: LangPython}
}

func reject(reason string) Candidate {
	return Candidate{Rejected: true, Reason: reason}
}

// stripWrapping removes conversational packaging: markdown fences, a leading
// bare language tag and whole-line inline backtick spans.
func stripWrapping(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	// Prefer the first fenced block when one exists; everything around it is
	// prose by definition.
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return strings.Trim(m[2], "\n")
	}

	lines := strings.Split(raw, "\n")

	// A bare "python" token on the first non-empty line is a fence remnant.
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if t == "python" || t == "py" || t == "python3" {
			lines = append(lines[:i], lines[i+1:]...)
		}
		break
	}

	for i, line := range lines {
		if m := inlineTickRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			lines[i] = m[1]
		}
	}

	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// findMarkdownMarker detects markdown structure interleaved with code lines,
// a sign the model mixed prose and code. Python comments share the heading
// prefix, so only unambiguous markers count.
func findMarkdownMarker(src string) (string, bool) {
	for _, line := range strings.Split(src, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "> ") {
			return "a blockquote", true
		}
		if tableRowRe.MatchString(line) {
			return "a markdown table", true
		}
		if strings.HasPrefix(t, "```") {
			return "a stray code fence", true
		}
	}
	return "", false
}

// findDisallowedImport statically scans import statements and matches the
// top-level module against the allow-list.
func findDisallowedImport(src string, pol *policy.Policy) (string, bool) {
	for _, line := range strings.Split(src, "\n") {
		var module string
		if m := importRe.FindStringSubmatch(line); m != nil {
			module = m[1]
		} else if m := fromRe.FindStringSubmatch(line); m != nil {
			module = m[1]
		} else {
			continue
		}
		top := strings.SplitN(module, ".", 2)[0]
		if !pol.ImportAllowed(top) {
			return top, true
		}
	}
	return "", false
}

// cannotParse runs conservative sanity checks after repair. It flags only
// what definitely cannot parse, never rewrites further. String literals and
// comments are blanked first so their content never counts as structure.
func cannotParse(src string) (string, bool) {
	code := stripLiterals(src)

	depth := 0
	for _, r := range code {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		if depth < 0 {
			return "unbalanced brackets", true
		}
	}
	if depth != 0 {
		return "unbalanced brackets", true
	}

	lines := strings.Split(code, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		t := strings.TrimSpace(lines[i])
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		if strings.HasSuffix(t, ":") {
			return "the final statement opens a block with no body", true
		}
		break
	}
	return "", false
}

// stripLiterals rewrites string literal contents to empty quotes and drops
// comments, keeping the newlines of single-quoted code intact. Handles
// backslash escapes and triple-quoted strings.
func stripLiterals(src string) string {
	var b strings.Builder
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		r := runes[i]

		if r == '#' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			continue
		}

		if r != '\'' && r != '"' {
			b.WriteRune(r)
			i++
			continue
		}

		quote := r
		b.WriteRune(quote)
		b.WriteRune(quote)
		if i+2 < len(runes) && runes[i+1] == quote && runes[i+2] == quote {
			i += 3
			for i+2 < len(runes) &&
				!(runes[i] == quote && runes[i+1] == quote && runes[i+2] == quote) {
				if runes[i] == '\\' {
					i++
				}
				i++
			}
			i += 3
			continue
		}

		i++
		for i < len(runes) && runes[i] != quote && runes[i] != '\n' {
			if runes[i] == '\\' {
				i++
			}
			i++
		}
		if i < len(runes) && runes[i] == quote {
			i++
		}
	}
	return b.String()
}
