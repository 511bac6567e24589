package marker

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Split scans a captured stdout stream left to right and cuts it into
// alternating text runs and artifact spans. Malformed spans (bad header,
// missing close, unknown kind) degrade to literal text; Split never fails.
// Deterministic: the same stream always yields the same segments.
func Split(stream []byte) []Segment {
	var segments []Segment

	appendText := func(text []byte) {
		if len(text) == 0 {
			return
		}
		if n := len(segments); n > 0 && segments[n-1].Kind == SegText {
			segments[n-1].Text = append(segments[n-1].Text, text...)
			return
		}
		segments = append(segments, Segment{Kind: SegText, Text: append([]byte(nil), text...)})
	}

	rest := stream
	for {
		open := bytes.Index(rest, []byte(OpenPrefix))
		if open < 0 {
			appendText(rest)
			break
		}
		appendText(rest[:open])
		rest = rest[open:]

		seg, consumed, ok := parseSpan(rest)
		if !ok {
			// Emit the opener literally and keep scanning after it; the
			// rest of the broken span stays text on its own.
			appendText(rest[:len(OpenPrefix)])
			rest = rest[len(OpenPrefix):]
			continue
		}
		segments = append(segments, seg)
		rest = rest[consumed:]
	}

	return segments
}

// parseSpan parses one artifact span at the start of data. Returns the
// segment, the byte count consumed, and whether the span was well-formed.
func parseSpan(data []byte) (Segment, int, bool) {
	headerEnd := bytes.Index(data, []byte(OpenSuffix))
	if headerEnd < 0 {
		return Segment{}, 0, false
	}
	attrs := string(data[len(OpenPrefix):headerEnd])

	// Header stays on one line; a newline before >> means the opener was
	// plain text that happened to share the prefix.
	if strings.ContainsAny(attrs, "\n\r") {
		return Segment{}, 0, false
	}

	seq, kind, err := parseAttrs(attrs)
	if err != nil {
		return Segment{}, 0, false
	}

	closeTag := []byte(fmt.Sprintf(CloseFmt, seq))
	bodyStart := headerEnd + len(OpenSuffix)
	closeAt := bytes.Index(data[bodyStart:], closeTag)
	if closeAt < 0 {
		return Segment{}, 0, false
	}

	payload := bytes.TrimSpace(data[bodyStart : bodyStart+closeAt])
	consumed := bodyStart + closeAt + len(closeTag)

	seg := Segment{Seq: seq, Payload: append([]byte(nil), payload...)}
	switch kind {
	case KindInline:
		seg.Kind = SegInline
	case KindFile:
		seg.Kind = SegFile
	default:
		return Segment{}, 0, false
	}
	return seg, consumed, true
}

func parseAttrs(attrs string) (seq int, kind string, err error) {
	seq = -1
	for _, field := range strings.Fields(attrs) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			return 0, "", fmt.Errorf("malformed attribute %q", field)
		}
		switch key {
		case "seq":
			seq, err = strconv.Atoi(value)
			if err != nil {
				return 0, "", err
			}
		case "kind":
			kind = value
		default:
			return 0, "", fmt.Errorf("unknown attribute %q", key)
		}
	}
	if seq < 0 || kind == "" {
		return 0, "", fmt.Errorf("incomplete marker header")
	}
	return seq, kind, nil
}
