// Package resultproc turns a terminal execution outcome into the ordered
// content block sequence the chat UI renders. It is restartable: processing
// the same outcome twice yields the same blocks.
package resultproc

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/programme-lv/analyst/api"
	"github.com/programme-lv/analyst/internal/classify"
	"github.com/programme-lv/analyst/internal/marker"
	"github.com/programme-lv/analyst/internal/sandbox"
)

// stderr truncation bounds for failure summary blocks
const (
	maxStderrHeight = 40
	maxStderrWidth  = 80
)

// Process splits the captured stdout into text and artifact segments,
// resolves artifact payloads and classifies the text runs, preserving the
// exact interleaving order the program emitted. On a non-success status it
// recovers whatever blocks it can and appends a plain-language failure
// summary, so the caller always has something renderable.
func Process(outcome *sandbox.Outcome) []api.ContentBlock {
	blocks := []api.ContentBlock{}

	for _, seg := range marker.Split(outcome.Stdout) {
		switch seg.Kind {
		case marker.SegText:
			text := string(seg.Text)
			if strings.TrimSpace(text) == "" {
				continue
			}
			blocks = append(blocks, classify.ClassifyAndRender(text))
		case marker.SegInline:
			blocks = append(blocks, decodeInline(seg))
		case marker.SegFile:
			blocks = append(blocks, resolveFile(seg, outcome.ScratchDir))
		}
	}

	if outcome.Status != api.Success {
		blocks = append(blocks, failureBlock(outcome))
	}

	return blocks
}

func decodeInline(seg marker.Segment) api.ContentBlock {
	payload, err := base64.StdEncoding.DecodeString(string(seg.Payload))
	if err != nil {
		return api.NewTextBlock(classify.Escape(fmt.Sprintf(
			"[artifact %d could not be decoded: %v]", seg.Seq, err)))
	}
	return api.NewImageBlock(payload)
}

// resolveFile reads a referenced artifact from the scratch directory. A path
// pointing outside it, or a missing file, yields an explanatory text block
// instead of an image block.
func resolveFile(seg marker.Segment, scratchDir string) api.ContentBlock {
	rel := string(seg.Payload)

	// Workers reference artifacts relative to the scratch dir; anything
	// absolute or traversing upwards stays text.
	if !filepath.IsLocal(rel) {
		return api.NewTextBlock(classify.Escape(fmt.Sprintf(
			"[artifact %d references an invalid path %q]", seg.Seq, rel)))
	}

	payload, err := os.ReadFile(filepath.Join(scratchDir, rel))
	if err != nil {
		return api.NewTextBlock(classify.Escape(fmt.Sprintf(
			"[artifact %d could not be read: %q is missing or unreadable]", seg.Seq, rel)))
	}
	return api.NewImageBlock(payload)
}

// failureBlock summarizes a failed execution in plain language the chat UI
// can display directly.
func failureBlock(outcome *sandbox.Outcome) api.ContentBlock {
	var msg string
	switch outcome.Status {
	case api.Timeout:
		if outcome.WallMillis > 0 {
			msg = fmt.Sprintf("execution timed out after %.1fs", float64(outcome.WallMillis)/1000)
		} else {
			msg = "execution timed out"
		}
	case api.MemExceeded:
		msg = "execution exceeded its memory limit"
	case api.OutputExceeded:
		msg = "execution produced too much output and was stopped"
	case api.Cancelled:
		msg = "execution was cancelled"
	case api.RuntimeError:
		msg = fmt.Sprintf("execution failed with exit code %d", outcome.ExitCode)
	default:
		msg = "execution failed"
	}

	stderr := trimStrToRect(string(outcome.Stderr), maxStderrHeight, maxStderrWidth)
	if strings.TrimSpace(stderr) != "" {
		msg += "\n\n" + stderr
	}
	return api.NewTextBlock(classify.Escape(msg))
}

func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	// split into lines
	res := ""
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	for i, line := range lines {
		if i > 0 {
			res += "\n"
		}
		if len(line) > maxWidth {
			res += line[:maxWidth] + "[...]"
		} else {
			res += line
		}
	}
	return res
}
