package model

import "fmt"

// SelectionFrom records which edit session owns cursor authorship.
type SelectionFrom int

const (
	SelectionFromPrimary SelectionFrom = iota
	SelectionFromSecondary
)

func (s SelectionFrom) String() string {
	switch s {
	case SelectionFromPrimary:
		return "primary"
	case SelectionFromSecondary:
		return "secondary"
	default:
		return fmt.Sprintf("SelectionFrom(%d)", int(s))
	}
}

// ParseSelectionFrom maps "primary" / "secondary" to a SelectionFrom.
func ParseSelectionFrom(s string) (SelectionFrom, error) {
	switch s {
	case "primary", "":
		return SelectionFromPrimary, nil
	case "secondary":
		return SelectionFromSecondary, nil
	default:
		return SelectionFromPrimary, fmt.Errorf("unknown selection owner %q", s)
	}
}

// MarshalText encodes the owner as "primary" or "secondary".
func (s SelectionFrom) MarshalText() ([]byte, error) {
	switch s {
	case SelectionFromPrimary, SelectionFromSecondary:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("unknown selection owner %d", int(s))
	}
}

// UnmarshalText is the inverse of MarshalText.
func (s *SelectionFrom) UnmarshalText(text []byte) error {
	v, err := ParseSelectionFrom(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SelectionRange is a cursor or highlight expressed as block index + offset
// pairs.
type SelectionRange struct {
	StartBlock  int `json:"startBlock"`
	StartOffset int `json:"startOffset"`
	EndBlock    int `json:"endBlock"`
	EndOffset   int `json:"endOffset"`
}

// SelectionIDs names the blocks a selection starts and ends in.
type SelectionIDs struct {
	StartBlockID string `json:"startBlockId"`
	EndBlockID   string `json:"endBlockId"`
}

// SelectionInfo is what a caller hands the document merge about the cursor.
type SelectionInfo struct {
	Selection    SelectionRange `json:"selection"`
	SelectionIDs SelectionIDs   `json:"selectionIds"`
	From         SelectionFrom  `json:"selectionFrom"`
}

// Document is a note body: ordered blocks, independent ink and a selection.
type Document struct {
	Blocks    []Block        `json:"blocks"`
	Strokes   []Stroke       `json:"strokes,omitempty"`
	Selection SelectionRange `json:"selection"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{Selection: d.Selection}
	if d.Blocks != nil {
		out.Blocks = make([]Block, len(d.Blocks))
		for i, b := range d.Blocks {
			out.Blocks[i] = CloneBlock(b)
		}
	}
	if d.Strokes != nil {
		out.Strokes = make([]Stroke, len(d.Strokes))
		for i, s := range d.Strokes {
			out.Strokes[i] = s.Clone()
		}
	}
	return out
}

// IndexOf returns the position of the block with the given id, or -1.
func (d Document) IndexOf(id string) int {
	for i, b := range d.Blocks {
		if b.ID() == id {
			return i
		}
	}
	return -1
}

// SelectionInfoFor derives SelectionInfo from the document's own selection,
// resolving block indices to ids. Out-of-range indices leave the id empty.
func (d Document) SelectionInfoFor(from SelectionFrom) SelectionInfo {
	info := SelectionInfo{Selection: d.Selection, From: from}
	if i := d.Selection.StartBlock; i >= 0 && i < len(d.Blocks) {
		info.SelectionIDs.StartBlockID = d.Blocks[i].ID()
	}
	if i := d.Selection.EndBlock; i >= 0 && i < len(d.Blocks) {
		info.SelectionIDs.EndBlockID = d.Blocks[i].ID()
	}
	return info
}
