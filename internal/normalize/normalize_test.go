package normalize_test

import (
	"testing"

	"github.com/programme-lv/analyst/internal/normalize"
	"github.com/programme-lv/analyst/internal/policy"
	"github.com/stretchr/testify/require"
)

func TestStripsFencedBlock(t *testing.T) {
	c := normalize.Normalize("Here you go:\n```python\nprint(1+1)\n```\nHope that helps!", policy.Default())
	require.False(t, c.Rejected)
	require.Equal(t, "print(1+1)", c.Source)
	require.Equal(t, normalize.LangPython, c.Language)
}

func TestStripsBareLanguageTag(t *testing.T) {
	c := normalize.Normalize("python\nprint('hi')", policy.Default())
	require.False(t, c.Rejected)
	require.Equal(t, "print('hi')", c.Source)
}

func TestUnwrapsInlineBacktickLines(t *testing.T) {
	c := normalize.Normalize("`print(42)`", policy.Default())
	require.False(t, c.Rejected)
	require.Equal(t, "print(42)", c.Source)
}

func TestRejectsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   \n\t\n", "```python\n```"} {
		c := normalize.Normalize(raw, policy.Default())
		require.True(t, c.Rejected, "raw: %q", raw)
		require.NotEmpty(t, c.Reason)
	}
}

func TestRejectsDisallowedImport(t *testing.T) {
	c := normalize.Normalize("python\nimport os\nprint('hi')", policy.Default())
	require.True(t, c.Rejected)
	require.Contains(t, c.Reason, "os")
}

func TestAllowsListedImports(t *testing.T) {
	c := normalize.Normalize("import pandas as pd\nfrom math import sqrt\nprint(sqrt(4))", policy.Default())
	require.False(t, c.Rejected)
}

func TestDottedImportChecksTopLevel(t *testing.T) {
	c := normalize.Normalize("import os.path\nprint(1)", policy.Default())
	require.True(t, c.Rejected)
	require.Contains(t, c.Reason, "os")

	c = normalize.Normalize("import matplotlib.pyplot as plt\nplt.plot([1])", policy.Default())
	require.False(t, c.Rejected)
}

func TestRejectsMarkdownInterleaved(t *testing.T) {
	c := normalize.Normalize("print(1)\n> this prints one\nprint(2)", policy.Default())
	require.True(t, c.Rejected)
	require.Contains(t, c.Reason, "markdown")

	c = normalize.Normalize("x = 1\n| a | b |\n| 1 | 2 |", policy.Default())
	require.True(t, c.Rejected)
}

func TestRepairsFlatIndentation(t *testing.T) {
	raw := "for i in range(3):\nprint(i)\nprint('done')"
	c := normalize.Normalize(raw, policy.Default())
	require.False(t, c.Rejected)
	require.Equal(t, "for i in range(3):\n    print(i)\n    print('done')", c.Source)
}

func TestRepairDedentTokens(t *testing.T) {
	raw := "def f(x):\nif x > 0:\nreturn x\nelse:\nreturn -x"
	c := normalize.Normalize(raw, policy.Default())
	require.False(t, c.Rejected)
	want := "def f(x):\n    if x > 0:\n        return x\n    else:\n        return -x"
	require.Equal(t, want, c.Source)
}

func TestIdempotentOnValidInput(t *testing.T) {
	raw := "def f(x):\n    return x * 2\n\nprint(f(21))"
	first := normalize.Normalize(raw, policy.Default())
	require.False(t, first.Rejected)
	second := normalize.Normalize(first.Source, policy.Default())
	require.False(t, second.Rejected)
	require.Equal(t, first.Source, second.Source)
}

func TestRejectsDanglingBlock(t *testing.T) {
	c := normalize.Normalize("x = 1\nfor i in range(3):", policy.Default())
	require.True(t, c.Rejected)
	require.Contains(t, c.Reason, "block")
}

func TestRejectsUnbalancedBrackets(t *testing.T) {
	c := normalize.Normalize("print((1+2)", policy.Default())
	require.True(t, c.Rejected)
	require.Contains(t, c.Reason, "brackets")
}

func TestBracketsInStringsAreNotStructure(t *testing.T) {
	for _, raw := range []string{
		`print(":)")`,
		`s = "("`,
		`print("say \"hi\" :)")`,
		"s = ')]}'\nprint(s)",
		"text = '''unmatched ( [ {'''\nprint(text)",
	} {
		c := normalize.Normalize(raw, policy.Default())
		require.False(t, c.Rejected, "raw: %q reason: %s", raw, c.Reason)
	}
}

func TestBracketsInCommentsAreNotStructure(t *testing.T) {
	c := normalize.Normalize("x = 1  # :-(\nprint(x)", policy.Default())
	require.False(t, c.Rejected, "reason: %s", c.Reason)
}

func TestColonInsideStringNotDanglingBlock(t *testing.T) {
	c := normalize.Normalize(`print("note:")`, policy.Default())
	require.False(t, c.Rejected, "reason: %s", c.Reason)
}

func TestTrailingCommentDoesNotHideDanglingBlock(t *testing.T) {
	c := normalize.Normalize("for i in range(3):  # loop", policy.Default())
	require.True(t, c.Rejected)
	require.Contains(t, c.Reason, "block")
}
