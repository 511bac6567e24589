// Package marker implements the in-band protocol a sandboxed program uses to
// emit binary artifacts inside its stdout stream. A marker span looks like
//
//	<<analyst:artifact seq=0 kind=inline>>
//	...base64 payload...
//	<<analyst:end seq=0>>
//
// with kind=file carrying a path relative to the scratch directory instead
// of an inline payload. Anything that is not a complete, well-formed span
// stays literal text.
package marker

import (
	"encoding/base64"
	"fmt"
)

const (
	OpenPrefix = "<<analyst:artifact "
	OpenSuffix = ">>"
	CloseFmt   = "<<analyst:end seq=%d>>"

	KindInline = "inline"
	KindFile   = "file"
)

// SegmentKind tags one parsed stream segment.
type SegmentKind int

const (
	SegText SegmentKind = iota
	SegInline
	SegFile
)

// Segment is one run of the stdout stream: either literal text or a
// well-formed artifact span.
type Segment struct {
	Kind SegmentKind

	// Literal bytes, only for SegText.
	Text []byte

	// Marker sequence number, only for artifact segments.
	Seq int

	// Base64 payload (SegInline) or scratch-relative path (SegFile).
	Payload []byte
}

// WrapInline renders a complete inline marker span. Used by tests and by the
// worker prelude generator.
func WrapInline(seq int, payload []byte) string {
	encoded := base64.StdEncoding.EncodeToString(payload)
	return fmt.Sprintf("%sseq=%d kind=%s%s\n%s\n"+CloseFmt,
		OpenPrefix, seq, KindInline, OpenSuffix, encoded, seq)
}

// WrapFile renders a complete file-reference marker span.
func WrapFile(seq int, path string) string {
	return fmt.Sprintf("%sseq=%d kind=%s%s\n%s\n"+CloseFmt,
		OpenPrefix, seq, KindFile, OpenSuffix, path, seq)
}
