package model

// BlockKind names a Block variant. It doubles as the wire discriminator.
type BlockKind string

const (
	KindParagraph   BlockKind = "paragraph"
	KindInlineMedia BlockKind = "inline_media"
)

// Block is one entry of a Document. The set of variants is closed:
// Paragraph and InlineMedia.
type Block interface {
	// ID returns the stable local id the merge engine tracks the block by.
	ID() string
	// Kind returns the variant discriminator.
	Kind() BlockKind

	isBlock()
}

// Paragraph is a text block with list and direction flags.
type Paragraph struct {
	LocalID       string  `json:"localId"`
	Content       Content `json:"content"`
	UnorderedList bool    `json:"unorderedList,omitempty"`
	RightToLeft   bool    `json:"rightToLeft,omitempty"`
}

func (p Paragraph) ID() string      { return p.LocalID }
func (p Paragraph) Kind() BlockKind { return KindParagraph }
func (Paragraph) isBlock()          {}

// InlineMedia is an opaque block embedding a media attachment. It is only
// ever replaced as a whole.
type InlineMedia struct {
	LocalID string `json:"localId"`
	Media   Media  `json:"media"`
}

func (m InlineMedia) ID() string      { return m.LocalID }
func (m InlineMedia) Kind() BlockKind { return KindInlineMedia }
func (InlineMedia) isBlock()          {}

// CloneBlock returns a deep copy of b.
func CloneBlock(b Block) Block {
	switch v := b.(type) {
	case Paragraph:
		v.Content = v.Content.Clone()
		return v
	case InlineMedia:
		v.Media = v.Media.Clone()
		return v
	}
	return b
}

// EndOffset returns the offset just past the last character of b. Blocks
// without text report zero.
func EndOffset(b Block) int {
	if p, ok := b.(Paragraph); ok {
		return p.Content.TextLen()
	}
	return 0
}

var (
	_ Block = Paragraph{}
	_ Block = InlineMedia{}
)
