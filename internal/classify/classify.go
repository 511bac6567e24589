// Package classify turns residual free-text runs of captured output into
// semantic content blocks. Classification is an ordered list of predicates;
// the first match wins, and adding a content kind means inserting a
// predicate here, not touching call sites.
package classify

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"github.com/programme-lv/analyst/api"
)

var (
	fencedRe    = regexp.MustCompile("(?s)^```[ \t]*([a-zA-Z0-9_+-]*)[ \t]*\n(.*?)\n?```$")
	orderedRe   = regexp.MustCompile(`^\s*\d+[.)]\s+(.*)$`)
	unorderedRe = regexp.MustCompile(`^\s*[-*•]\s+(.*)$`)
)

type predicate func(text string) (api.ContentBlock, bool)

// orderedPredicates: more specific patterns first. The default text rule is
// applied by ClassifyAndRender itself.
var orderedPredicates = []predicate{
	asTable,
	asCode,
	asJson,
	asList,
	asQuote,
}

// ClassifyAndRender classifies a single plain-text run into a content
// block. Raw always carries the literal text escaped for markup embedding;
// structured fields carry decoded values the renderer may lay out itself
// (escaping each fragment again before embedding).
func ClassifyAndRender(text string) api.ContentBlock {
	for _, pred := range orderedPredicates {
		if block, ok := pred(text); ok {
			return block
		}
	}
	return api.NewTextBlock(Escape(text))
}

// Escape renders a literal fragment inert for markup-based output. Raw text
// is never trusted markup.
func Escape(s string) string {
	return html.EscapeString(s)
}

func asCode(text string) (api.ContentBlock, bool) {
	m := fencedRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return api.ContentBlock{}, false
	}
	return api.ContentBlock{
		Kind: api.BlockCode,
		Raw:  Escape(text),
		Code: &api.CodeData{Lang: m[1], Text: m[2]},
	}, true
}

func asJson(text string) (api.ContentBlock, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return api.ContentBlock{}, false
	}
	// Bare scalars are prose more often than JSON; require structure.
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return api.ContentBlock{}, false
	}
	if !json.Valid([]byte(trimmed)) {
		// fall through to the next rule, never an error
		return api.ContentBlock{}, false
	}
	return api.ContentBlock{
		Kind: api.BlockJson,
		Raw:  Escape(text),
		Json: json.RawMessage(trimmed),
	}, true
}

func asList(text string) (api.ContentBlock, bool) {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return api.ContentBlock{}, false
	}

	ordered := orderedRe.MatchString(lines[0])
	var items []string
	for _, line := range lines {
		var m []string
		if ordered {
			m = orderedRe.FindStringSubmatch(line)
		} else {
			m = unorderedRe.FindStringSubmatch(line)
		}
		if m == nil {
			return api.ContentBlock{}, false
		}
		items = append(items, m[1])
	}
	return api.ContentBlock{
		Kind: api.BlockList,
		Raw:  Escape(text),
		List: &api.ListData{Ordered: ordered, Items: items},
	}, true
}

func asQuote(text string) (api.ContentBlock, bool) {
	trimmed := strings.TrimSpace(text)
	lines := nonEmptyLines(text)
	if len(lines) > 0 {
		allQuoted := true
		for _, line := range lines {
			if !strings.HasPrefix(strings.TrimSpace(line), "> ") {
				allQuoted = false
				break
			}
		}
		if allQuoted {
			return api.ContentBlock{Kind: api.BlockQuote, Raw: Escape(text)}, true
		}
	}
	if len(trimmed) >= 2 {
		first, last := trimmed[0], trimmed[len(trimmed)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return api.ContentBlock{Kind: api.BlockQuote, Raw: Escape(text)}, true
		}
	}
	return api.ContentBlock{}, false
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
