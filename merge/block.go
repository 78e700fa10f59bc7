package merge

import "github.com/c0deZ3R0/go-note-merge/model"

// BlockResult is a merged block with the selection offsets inside it.
type BlockResult struct {
	Block          model.Block
	SelectionStart *int
	SelectionEnd   *int
}

// MergeBlock reconciles one block with the diffs both sides scoped to it.
//
// Paragraphs merge their list and direction flags (primary's operation wins,
// then secondary's) and their content. Every other block kind is replaced
// whole by a BlockUpdate, primary's first.
func (m *Merger) MergeBlock(block model.Block, primary, secondary []model.Diff, selectionStart, selectionEnd *int, from model.SelectionFrom) BlockResult {
	return m.newRun().mergeBlock(block, primary, secondary, selectionStart, selectionEnd, from)
}

// MergeBlock runs the default Merger.
func MergeBlock(block model.Block, primary, secondary []model.Diff, selectionStart, selectionEnd *int, from model.SelectionFrom) BlockResult {
	return defaultMerger().MergeBlock(block, primary, secondary, selectionStart, selectionEnd, from)
}

func (r *run) mergeBlock(block model.Block, primary, secondary []model.Diff, selectionStart, selectionEnd *int, from model.SelectionFrom) BlockResult {
	switch b := block.(type) {
	case model.Paragraph:
		b.UnorderedList = mergeFlag(b.UnorderedList, primary, secondary, unorderedListOp)
		b.RightToLeft = mergeFlag(b.RightToLeft, primary, secondary, rightToLeftOp)

		content := r.mergeContent(b.LocalID, b.Content, primary, secondary, selectionStart, selectionEnd, from)
		b.Content = content.Content
		return BlockResult{Block: b, SelectionStart: content.SelectionStart, SelectionEnd: content.SelectionEnd}

	case model.InlineMedia:
		if updated, ok := blockUpdate(primary); ok {
			block = updated
		} else if updated, ok := blockUpdate(secondary); ok {
			block = updated
		}
		return BlockResult{Block: block, SelectionStart: selectionStart, SelectionEnd: selectionEnd}
	}

	// A nil block has nothing to merge.
	return BlockResult{Block: block, SelectionStart: selectionStart, SelectionEnd: selectionEnd}
}

// flagOp extracts a set/clear operation on a paragraph flag from d.
type flagOp func(d model.Diff) (value, ok bool)

func unorderedListOp(d model.Diff) (bool, bool) {
	switch d.(type) {
	case model.UnorderedListInsertion:
		return true, true
	case model.UnorderedListDeletion:
		return false, true
	default:
		return false, false
	}
}

func rightToLeftOp(d model.Diff) (bool, bool) {
	switch d.(type) {
	case model.RightToLeftInsertion:
		return true, true
	case model.RightToLeftDeletion:
		return false, true
	default:
		return false, false
	}
}

// mergeFlag returns primary's first operation on the flag, else secondary's,
// else current.
func mergeFlag(current bool, primary, secondary []model.Diff, op flagOp) bool {
	for _, diffs := range [][]model.Diff{primary, secondary} {
		for _, d := range diffs {
			if v, ok := op(d); ok {
				return v
			}
		}
	}
	return current
}

func blockUpdate(diffs []model.Diff) (model.Block, bool) {
	for _, d := range diffs {
		if u, ok := d.(model.BlockUpdate); ok && u.Block != nil {
			return u.Block, true
		}
	}
	return nil, false
}
