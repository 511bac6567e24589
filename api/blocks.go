package api

import "encoding/json"

// BlockKind is the semantic type of a classified content block.
type BlockKind string

const (
	BlockTable BlockKind = "table"
	BlockCode  BlockKind = "code"
	BlockJson  BlockKind = "json"
	BlockList  BlockKind = "list"
	BlockQuote BlockKind = "quote"
	BlockImage BlockKind = "image"
	BlockText  BlockKind = "text"
)

// ContentBlock is one renderable unit of classified output. Raw carries the
// literal text already escaped for embedding into markup. Exactly one of the
// structured fields matching Kind may be set.
type ContentBlock struct {
	Kind BlockKind `json:"kind"`
	Raw  string    `json:"raw,omitempty"`

	Table *TableData      `json:"table,omitempty"`
	Code  *CodeData       `json:"code,omitempty"`
	Json  json.RawMessage `json:"json,omitempty"`
	List  *ListData       `json:"list,omitempty"`
	Image *ImageData      `json:"image,omitempty"`
}

// TableData holds a decoded table. Cells are escaped individually.
type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// CodeData retains the fence language tag and the exact code text.
type CodeData struct {
	Lang string `json:"lang,omitempty"`
	Text string `json:"text"`
}

// ListData holds an ordered or unordered list.
type ListData struct {
	Ordered bool     `json:"ordered"`
	Items   []string `json:"items"`
}

// ImageData references a stored artifact. Bytes is populated only while the
// block travels through the core; it is replaced by Url before the block
// sequence is returned and never serialized.
type ImageData struct {
	Url   string `json:"url,omitempty"`
	Bytes []byte `json:"-"`
}

func NewTextBlock(escaped string) ContentBlock {
	return ContentBlock{Kind: BlockText, Raw: escaped}
}

func NewImageBlock(payload []byte) ContentBlock {
	return ContentBlock{Kind: BlockImage, Image: &ImageData{Bytes: payload}}
}
