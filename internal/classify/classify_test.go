package classify_test

import (
	"testing"

	"github.com/programme-lv/analyst/api"
	"github.com/programme-lv/analyst/internal/classify"
	"github.com/stretchr/testify/require"
)

func TestClassifyTable(t *testing.T) {
	block := classify.ClassifyAndRender("| a | b |\n| 1 | 2 |\n| 3 | 4 |")
	require.Equal(t, api.BlockTable, block.Kind)
	require.Equal(t, []string{"a", "b"}, block.Table.Headers)
	require.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, block.Table.Rows)
}

func TestClassifyTableWithSeparatorRow(t *testing.T) {
	block := classify.ClassifyAndRender("| name | count |\n|------|-------|\n| x | 1 |")
	require.Equal(t, api.BlockTable, block.Kind)
	require.Equal(t, []string{"name", "count"}, block.Table.Headers)
	require.Equal(t, [][]string{{"x", "1"}}, block.Table.Rows)
}

func TestClassifyTableDropsMismatchedRows(t *testing.T) {
	block := classify.ClassifyAndRender("| a | b |\n| 1 | 2 | 3 |\n| 4 | 5 |")
	require.Equal(t, api.BlockTable, block.Kind)
	require.Equal(t, [][]string{{"4", "5"}}, block.Table.Rows)
}

func TestClassifyTabSeparated(t *testing.T) {
	block := classify.ClassifyAndRender("name\tcount\nx\t1\ny\t2")
	require.Equal(t, api.BlockTable, block.Kind)
	require.Equal(t, []string{"name", "count"}, block.Table.Headers)
	require.Len(t, block.Table.Rows, 2)
}

func TestTableRoundTrip(t *testing.T) {
	original := classify.ClassifyAndRender("| a | b |\n| 1 | 2 |\n| 3 | 4 |")
	require.Equal(t, api.BlockTable, original.Kind)

	again := classify.ClassifyAndRender(classify.Reserialize(original.Table))
	require.Equal(t, api.BlockTable, again.Kind)
	require.Equal(t, original.Table.Headers, again.Table.Headers)
	require.Equal(t, original.Table.Rows, again.Table.Rows)
}

func TestClassifyCode(t *testing.T) {
	block := classify.ClassifyAndRender("```python\nprint(1)\n```")
	require.Equal(t, api.BlockCode, block.Kind)
	require.Equal(t, "python", block.Code.Lang)
	require.Equal(t, "print(1)", block.Code.Text)
}

func TestClassifyJson(t *testing.T) {
	block := classify.ClassifyAndRender(`{"mean": 4.2, "rows": [1, 2]}`)
	require.Equal(t, api.BlockJson, block.Kind)
	require.JSONEq(t, `{"mean": 4.2, "rows": [1, 2]}`, string(block.Json))
}

func TestInvalidJsonFallsThrough(t *testing.T) {
	block := classify.ClassifyAndRender(`{"mean": 4.2,`)
	require.Equal(t, api.BlockText, block.Kind)
}

func TestScalarJsonValuesStayText(t *testing.T) {
	// bare scalars read as prose in chat output, so only objects and arrays
	// classify as JSON
	for _, raw := range []string{"42", "3.14", "true", "null"} {
		block := classify.ClassifyAndRender(raw)
		require.Equal(t, api.BlockText, block.Kind, "raw: %q", raw)
	}
}

func TestClassifyUnorderedList(t *testing.T) {
	block := classify.ClassifyAndRender("- first\n- second\n- third")
	require.Equal(t, api.BlockList, block.Kind)
	require.False(t, block.List.Ordered)
	require.Equal(t, []string{"first", "second", "third"}, block.List.Items)
}

func TestClassifyOrderedList(t *testing.T) {
	block := classify.ClassifyAndRender("1. one\n2. two")
	require.Equal(t, api.BlockList, block.Kind)
	require.True(t, block.List.Ordered)
	require.Equal(t, []string{"one", "two"}, block.List.Items)
}

func TestClassifyQuote(t *testing.T) {
	block := classify.ClassifyAndRender("> to be\n> or not to be")
	require.Equal(t, api.BlockQuote, block.Kind)

	block = classify.ClassifyAndRender(`"fully wrapped"`)
	require.Equal(t, api.BlockQuote, block.Kind)
}

func TestClassifyDefaultText(t *testing.T) {
	block := classify.ClassifyAndRender("The mean value is 4.2.")
	require.Equal(t, api.BlockText, block.Kind)
	require.Equal(t, "The mean value is 4.2.", block.Raw)
}

func TestRawIsEscaped(t *testing.T) {
	block := classify.ClassifyAndRender(`<script>alert("x")</script>`)
	require.Equal(t, api.BlockText, block.Kind)
	require.NotContains(t, block.Raw, "<script>")
	require.Contains(t, block.Raw, "&lt;script&gt;")
}

func TestTableWinsOverList(t *testing.T) {
	// pipes take precedence over a leading dash interpretation
	block := classify.ClassifyAndRender("| a | b |\n| - | - |\n| 1 | 2 |")
	require.Equal(t, api.BlockTable, block.Kind)
}
