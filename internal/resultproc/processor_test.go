package resultproc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/analyst/api"
	"github.com/programme-lv/analyst/internal/marker"
	"github.com/programme-lv/analyst/internal/resultproc"
	"github.com/programme-lv/analyst/internal/sandbox"
	"github.com/stretchr/testify/require"
)

func successOutcome(stdout string) *sandbox.Outcome {
	return &sandbox.Outcome{
		Status: api.Success,
		Stdout: []byte(stdout),
	}
}

func TestPlainStdoutBecomesTextBlock(t *testing.T) {
	blocks := resultproc.Process(successOutcome("2\n"))
	require.Len(t, blocks, 1)
	require.Equal(t, api.BlockText, blocks[0].Kind)
	require.Equal(t, "2\n", blocks[0].Raw)
}

func TestInlineImageRoundTrip(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x7f}
	stdout := marker.WrapInline(0, payload) + "\ndone"

	blocks := resultproc.Process(successOutcome(stdout))
	require.Len(t, blocks, 2)

	require.Equal(t, api.BlockImage, blocks[0].Kind)
	require.Equal(t, payload, blocks[0].Image.Bytes)

	require.Equal(t, api.BlockText, blocks[1].Kind)
	require.Equal(t, "\ndone", blocks[1].Raw)
}

func TestFileMarkerResolved(t *testing.T) {
	scratch := t.TempDir()
	payload := []byte("fake png bytes")
	require.NoError(t, os.WriteFile(filepath.Join(scratch, "chart.png"), payload, 0644))

	outcome := successOutcome(marker.WrapFile(0, "chart.png"))
	outcome.ScratchDir = scratch

	blocks := resultproc.Process(outcome)
	require.Len(t, blocks, 1)
	require.Equal(t, api.BlockImage, blocks[0].Kind)
	require.Equal(t, payload, blocks[0].Image.Bytes)
}

func TestMissingFileBecomesTextBlock(t *testing.T) {
	outcome := successOutcome(marker.WrapFile(0, "nope.png"))
	outcome.ScratchDir = t.TempDir()

	blocks := resultproc.Process(outcome)
	require.Len(t, blocks, 1)
	require.Equal(t, api.BlockText, blocks[0].Kind)
	require.Contains(t, blocks[0].Raw, "nope.png")
}

func TestEscapingPathBecomesTextBlock(t *testing.T) {
	scratch := t.TempDir()
	for _, path := range []string{"../outside.png", "/etc/passwd"} {
		outcome := successOutcome(marker.WrapFile(0, path))
		outcome.ScratchDir = scratch

		blocks := resultproc.Process(outcome)
		require.Len(t, blocks, 1, "path: %s", path)
		require.Equal(t, api.BlockText, blocks[0].Kind)
		require.Contains(t, blocks[0].Raw, "invalid path")
	}
}

func TestMalformedMarkerStaysText(t *testing.T) {
	blocks := resultproc.Process(successOutcome("<<analyst:artifact seq=0 kind=inline>>\nAAAA\nno close"))
	require.Len(t, blocks, 1)
	require.Equal(t, api.BlockText, blocks[0].Kind)
}

func TestOrderPreserved(t *testing.T) {
	stdout := "intro\n" + marker.WrapInline(0, []byte("img")) + "\noutro\n"
	blocks := resultproc.Process(successOutcome(stdout))
	require.Len(t, blocks, 3)
	require.Equal(t, api.BlockText, blocks[0].Kind)
	require.Equal(t, api.BlockImage, blocks[1].Kind)
	require.Equal(t, api.BlockText, blocks[2].Kind)
}

func TestFailureAppendsSummaryBlock(t *testing.T) {
	outcome := &sandbox.Outcome{
		Status:     api.Timeout,
		Stdout:     []byte("partial output\n"),
		Stderr:     []byte("KeyboardInterrupt"),
		WallMillis: 5000,
	}
	blocks := resultproc.Process(outcome)
	require.Len(t, blocks, 2)
	require.Equal(t, "partial output\n", blocks[0].Raw)

	last := blocks[len(blocks)-1]
	require.Equal(t, api.BlockText, last.Kind)
	require.Contains(t, last.Raw, "timed out after 5.0s")
	require.Contains(t, last.Raw, "KeyboardInterrupt")
}

func TestTimeoutWithoutMeasuredWallOmitsDuration(t *testing.T) {
	outcome := &sandbox.Outcome{Status: api.Timeout}
	blocks := resultproc.Process(outcome)
	require.Len(t, blocks, 1)
	require.Contains(t, blocks[0].Raw, "timed out")
	require.NotContains(t, blocks[0].Raw, "0.0s")
}

func TestFailureWithNoOutputStillRenderable(t *testing.T) {
	outcome := &sandbox.Outcome{Status: api.RuntimeError, ExitCode: 1}
	blocks := resultproc.Process(outcome)
	require.Len(t, blocks, 1)
	require.Contains(t, blocks[0].Raw, "exit code 1")
}

func TestProcessIdempotent(t *testing.T) {
	outcome := successOutcome("| a | b |\n| 1 | 2 |\n| 3 | 4 |")
	first := resultproc.Process(outcome)
	second := resultproc.Process(outcome)
	require.Equal(t, first, second)

	require.Len(t, first, 1)
	require.Equal(t, api.BlockTable, first[0].Kind)
}

func TestClassifierAppliedToTextRuns(t *testing.T) {
	blocks := resultproc.Process(successOutcome(`{"mean": 3.5}`))
	require.Len(t, blocks, 1)
	require.Equal(t, api.BlockJson, blocks[0].Kind)
}
