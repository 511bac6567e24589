package classify

import (
	"regexp"
	"strings"

	"github.com/programme-lv/analyst/api"
)

var separatorRowRe = regexp.MustCompile(`^[\s|:+-]+$`)

// asTable detects a recurring column-separator structure: every non-empty
// line split by the same separator (pipe or tab) into the header's cell
// count. Rows with a different cell count are dropped, not crashed on.
func asTable(text string) (api.ContentBlock, bool) {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return api.ContentBlock{}, false
	}

	for _, sep := range []string{"|", "\t"} {
		table, ok := parseTable(lines, sep)
		if ok {
			return api.ContentBlock{
				Kind:  api.BlockTable,
				Raw:   Escape(text),
				Table: table,
			}, true
		}
	}
	return api.ContentBlock{}, false
}

func parseTable(lines []string, sep string) (*api.TableData, bool) {
	for _, line := range lines {
		if !strings.Contains(line, sep) {
			return nil, false
		}
	}

	headers := splitRow(lines[0], sep)
	if len(headers) < 2 {
		return nil, false
	}

	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if sep == "|" && separatorRowRe.MatchString(line) {
			continue // markdown header separator (|---|---|)
		}
		cells := splitRow(line, sep)
		if len(cells) != len(headers) {
			continue
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return nil, false
	}

	return &api.TableData{Headers: headers, Rows: rows}, true
}

// splitRow cuts one line into trimmed cells, dropping the empty boundary
// cells produced by leading/trailing pipes.
func splitRow(line string, sep string) []string {
	trimmed := strings.TrimSpace(line)
	if sep == "|" {
		trimmed = strings.Trim(trimmed, "|")
	}
	parts := strings.Split(trimmed, sep)
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, strings.TrimSpace(part))
	}
	return cells
}

// Reserialize renders a table back into its canonical pipe form. Round
// tripping a parsed table through Reserialize and asTable reproduces the
// same headers and rows.
func Reserialize(table *api.TableData) string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}
	writeRow(table.Headers)
	for _, row := range table.Rows {
		writeRow(row)
	}
	return b.String()
}
