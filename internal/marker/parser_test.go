package marker_test

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/programme-lv/analyst/internal/marker"
	"github.com/stretchr/testify/require"
)

func TestSplitPlainText(t *testing.T) {
	segs := marker.Split([]byte("hello\nworld\n"))
	require.Len(t, segs, 1)
	require.Equal(t, marker.SegText, segs[0].Kind)
	require.Equal(t, "hello\nworld\n", string(segs[0].Text))
}

func TestSplitEmptyStream(t *testing.T) {
	require.Empty(t, marker.Split(nil))
}

func TestSplitInlineMarker(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	stream := "before\n" + marker.WrapInline(0, payload) + "\nafter\n"

	segs := marker.Split([]byte(stream))
	require.Len(t, segs, 3)

	require.Equal(t, marker.SegText, segs[0].Kind)
	require.Equal(t, "before\n", string(segs[0].Text))

	require.Equal(t, marker.SegInline, segs[1].Kind)
	require.Equal(t, 0, segs[1].Seq)
	decoded, err := base64.StdEncoding.DecodeString(string(segs[1].Payload))
	require.NoError(t, err)
	require.Equal(t, payload, decoded)

	require.Equal(t, marker.SegText, segs[2].Kind)
	require.Equal(t, "\nafter\n", string(segs[2].Text))
}

func TestSplitFileMarker(t *testing.T) {
	stream := marker.WrapFile(3, "chart.png") + "done\n"
	segs := marker.Split([]byte(stream))
	require.Len(t, segs, 2)
	require.Equal(t, marker.SegFile, segs[0].Kind)
	require.Equal(t, 3, segs[0].Seq)
	require.Equal(t, "chart.png", string(segs[0].Payload))
	require.Equal(t, "done\n", string(segs[1].Text))
}

func TestSplitInterleavedOrderPreserved(t *testing.T) {
	stream := "first\n" +
		marker.WrapInline(0, []byte("a")) + "\n" +
		"middle\n" +
		marker.WrapFile(1, "b.png") + "\n" +
		"last\n"
	segs := marker.Split([]byte(stream))
	require.Len(t, segs, 5)
	require.Equal(t, marker.SegText, segs[0].Kind)
	require.Equal(t, marker.SegInline, segs[1].Kind)
	require.Equal(t, marker.SegText, segs[2].Kind)
	require.Equal(t, marker.SegFile, segs[3].Kind)
	require.Equal(t, marker.SegText, segs[4].Kind)
}

func TestMissingCloseDegradesToText(t *testing.T) {
	stream := "x\n<<analyst:artifact seq=0 kind=inline>>\nAAAA\nno close here"
	segs := marker.Split([]byte(stream))
	require.Len(t, segs, 1)
	require.Equal(t, marker.SegText, segs[0].Kind)
	require.Equal(t, stream, string(segs[0].Text))
}

func TestMismatchedSeqDegradesToText(t *testing.T) {
	stream := "<<analyst:artifact seq=1 kind=inline>>\nAAAA\n<<analyst:end seq=2>>"
	segs := marker.Split([]byte(stream))
	require.Len(t, segs, 1)
	require.Equal(t, marker.SegText, segs[0].Kind)
	require.Equal(t, stream, string(segs[0].Text))
}

func TestUnknownKindDegradesToText(t *testing.T) {
	stream := "<<analyst:artifact seq=0 kind=video>>\nzzz\n<<analyst:end seq=0>>"
	segs := marker.Split([]byte(stream))
	require.Len(t, segs, 1)
	require.Equal(t, marker.SegText, segs[0].Kind)
}

func TestMalformedHeaderNewlineDegradesToText(t *testing.T) {
	stream := "<<analyst:artifact seq=0\nkind=inline>>\nAAAA\n<<analyst:end seq=0>>"
	segs := marker.Split([]byte(stream))
	require.Len(t, segs, 1)
	require.Equal(t, marker.SegText, segs[0].Kind)
	require.Equal(t, stream, string(segs[0].Text))
}

func TestBrokenSpanFollowedByValidOne(t *testing.T) {
	stream := "<<analyst:artifact seq=0 kind=inline>> unterminated\n" +
		marker.WrapInline(1, []byte("ok"))
	segs := marker.Split([]byte(stream))
	require.Len(t, segs, 2)
	require.Equal(t, marker.SegText, segs[0].Kind)
	require.Equal(t, marker.SegInline, segs[1].Kind)
	require.Equal(t, 1, segs[1].Seq)
}

func TestSplitDeterministic(t *testing.T) {
	stream := []byte(fmt.Sprintf("a\n%s\nb", marker.WrapInline(7, []byte("x"))))
	first := marker.Split(stream)
	second := marker.Split(stream)
	require.Equal(t, first, second)
}
