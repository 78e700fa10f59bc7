package model

// Scope says what kind of item a Diff targets.
type Scope int

const (
	ScopeBlock Scope = iota
	ScopeMedia
	ScopeStroke
)

// Diff is one atomic recorded change scoped to a single block, media item
// or stroke. The set of variants is closed; every merge stage switches on
// the concrete type.
type Diff interface {
	// Scope reports which list the diff applies to.
	Scope() Scope
	// Target returns the id of the block, media item or stroke.
	Target() string

	isDiff()
}

// Block level.

type BlockInsertion struct {
	Block Block `json:"block"`
	Index int   `json:"index"`
}

type BlockDeletion struct {
	BlockID string `json:"blockId"`
}

type BlockUpdate struct {
	Block Block `json:"block"`
}

type UnorderedListInsertion struct {
	BlockID string `json:"blockId"`
}

type UnorderedListDeletion struct {
	BlockID string `json:"blockId"`
}

type RightToLeftInsertion struct {
	BlockID string `json:"blockId"`
}

type RightToLeftDeletion struct {
	BlockID string `json:"blockId"`
}

// Text level.

// BlockTextInsertion inserts Text before rune offset Index.
type BlockTextInsertion struct {
	BlockID string `json:"blockId"`
	Text    string `json:"text"`
	Index   int    `json:"index"`
}

// BlockTextDeletion removes the runes Start through End, both inclusive.
type BlockTextDeletion struct {
	BlockID string `json:"blockId"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Span level.

type SpanInsertion struct {
	BlockID string `json:"blockId"`
	Span    Span   `json:"span"`
}

type SpanDeletion struct {
	BlockID string `json:"blockId"`
	Span    Span   `json:"span"`
}

// Media level.

type MediaInsertion struct {
	Index int   `json:"index"`
	Media Media `json:"media"`
}

type MediaDeletion struct {
	LocalID string `json:"localId"`
}

type MediaUpdateRemoteID struct {
	LocalID  string  `json:"localId"`
	RemoteID *string `json:"remoteId"`
}

type MediaUpdateLocalURL struct {
	LocalID  string  `json:"localId"`
	LocalURL *string `json:"localUrl"`
}

type MediaUpdateMimeType struct {
	LocalID  string `json:"localId"`
	MimeType string `json:"mimeType"`
}

type MediaUpdateAltText struct {
	LocalID string  `json:"localId"`
	AltText *string `json:"altText"`
}

type MediaUpdateImageDimensions struct {
	LocalID         string      `json:"localId"`
	ImageDimensions *Dimensions `json:"imageDimensions"`
}

type MediaUpdateLastModified struct {
	LocalID      string `json:"localId"`
	LastModified int64  `json:"lastModified"`
}

// Ink level.

type StrokeInsertion struct {
	StrokeID string `json:"strokeId"`
	Stroke   Stroke `json:"stroke"`
	Index    int    `json:"index"`
}

type StrokeDeletion struct {
	StrokeID string `json:"strokeId"`
}

func (d BlockInsertion) Target() string         { return blockID(d.Block) }
func (d BlockDeletion) Target() string          { return d.BlockID }
func (d BlockUpdate) Target() string            { return blockID(d.Block) }
func (d UnorderedListInsertion) Target() string { return d.BlockID }
func (d UnorderedListDeletion) Target() string  { return d.BlockID }
func (d RightToLeftInsertion) Target() string   { return d.BlockID }
func (d RightToLeftDeletion) Target() string    { return d.BlockID }
func (d BlockTextInsertion) Target() string     { return d.BlockID }
func (d BlockTextDeletion) Target() string      { return d.BlockID }
func (d SpanInsertion) Target() string          { return d.BlockID }
func (d SpanDeletion) Target() string           { return d.BlockID }

func (d MediaInsertion) Target() string             { return d.Media.LocalID }
func (d MediaDeletion) Target() string              { return d.LocalID }
func (d MediaUpdateRemoteID) Target() string        { return d.LocalID }
func (d MediaUpdateLocalURL) Target() string        { return d.LocalID }
func (d MediaUpdateMimeType) Target() string        { return d.LocalID }
func (d MediaUpdateAltText) Target() string         { return d.LocalID }
func (d MediaUpdateImageDimensions) Target() string { return d.LocalID }
func (d MediaUpdateLastModified) Target() string    { return d.LocalID }

func (d StrokeInsertion) Target() string { return d.StrokeID }
func (d StrokeDeletion) Target() string  { return d.StrokeID }

func (BlockInsertion) Scope() Scope         { return ScopeBlock }
func (BlockDeletion) Scope() Scope          { return ScopeBlock }
func (BlockUpdate) Scope() Scope            { return ScopeBlock }
func (UnorderedListInsertion) Scope() Scope { return ScopeBlock }
func (UnorderedListDeletion) Scope() Scope  { return ScopeBlock }
func (RightToLeftInsertion) Scope() Scope   { return ScopeBlock }
func (RightToLeftDeletion) Scope() Scope    { return ScopeBlock }
func (BlockTextInsertion) Scope() Scope     { return ScopeBlock }
func (BlockTextDeletion) Scope() Scope      { return ScopeBlock }
func (SpanInsertion) Scope() Scope          { return ScopeBlock }
func (SpanDeletion) Scope() Scope           { return ScopeBlock }

func (MediaInsertion) Scope() Scope             { return ScopeMedia }
func (MediaDeletion) Scope() Scope              { return ScopeMedia }
func (MediaUpdateRemoteID) Scope() Scope        { return ScopeMedia }
func (MediaUpdateLocalURL) Scope() Scope        { return ScopeMedia }
func (MediaUpdateMimeType) Scope() Scope        { return ScopeMedia }
func (MediaUpdateAltText) Scope() Scope         { return ScopeMedia }
func (MediaUpdateImageDimensions) Scope() Scope { return ScopeMedia }
func (MediaUpdateLastModified) Scope() Scope    { return ScopeMedia }

func (StrokeInsertion) Scope() Scope { return ScopeStroke }
func (StrokeDeletion) Scope() Scope  { return ScopeStroke }

func (BlockInsertion) isDiff()             {}
func (BlockDeletion) isDiff()              {}
func (BlockUpdate) isDiff()                {}
func (UnorderedListInsertion) isDiff()     {}
func (UnorderedListDeletion) isDiff()      {}
func (RightToLeftInsertion) isDiff()       {}
func (RightToLeftDeletion) isDiff()        {}
func (BlockTextInsertion) isDiff()         {}
func (BlockTextDeletion) isDiff()          {}
func (SpanInsertion) isDiff()              {}
func (SpanDeletion) isDiff()               {}
func (MediaInsertion) isDiff()             {}
func (MediaDeletion) isDiff()              {}
func (MediaUpdateRemoteID) isDiff()        {}
func (MediaUpdateLocalURL) isDiff()        {}
func (MediaUpdateMimeType) isDiff()        {}
func (MediaUpdateAltText) isDiff()         {}
func (MediaUpdateImageDimensions) isDiff() {}
func (MediaUpdateLastModified) isDiff()    {}
func (StrokeInsertion) isDiff()            {}
func (StrokeDeletion) isDiff()             {}

func blockID(b Block) string {
	if b == nil {
		return ""
	}
	return b.ID()
}

// ScopedTo reports whether d targets the item with the given scope and id.
func ScopedTo(d Diff, scope Scope, id string) bool {
	return d.Scope() == scope && d.Target() == id
}

// Partition splits diffs into those satisfying match and the rest, preserving
// order on both sides. The input slice is not modified.
func Partition(diffs []Diff, match func(Diff) bool) (matched, rest []Diff) {
	for _, d := range diffs {
		if match(d) {
			matched = append(matched, d)
		} else {
			rest = append(rest, d)
		}
	}
	return matched, rest
}
