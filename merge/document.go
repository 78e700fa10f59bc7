package merge

import (
	"log/slog"
	"slices"

	"github.com/c0deZ3R0/go-note-merge/model"
)

// DocumentResult is a merged document. Selection is always resolved and is
// also stored on Document.
type DocumentResult struct {
	Document  model.Document
	Selection model.SelectionRange
	Stats     Stats
}

// anchor is a selection end tracked by block id while block positions move.
type anchor struct {
	blockID string
	offset  int
	set     bool
}

func (a *anchor) track(blockID string, offset int) {
	*a = anchor{blockID: blockID, offset: offset, set: true}
}

// resolve maps a tracked anchor to its block's final position, falling
// back to the original numeric position when untracked or the block is gone.
func (a anchor) resolve(blocks []model.Block, block, offset int) (int, int) {
	if !a.set {
		return block, offset
	}
	at := slices.IndexFunc(blocks, func(b model.Block) bool { return b.ID() == a.blockID })
	if at < 0 {
		return block, offset
	}
	return at, a.offset
}

var blockList = listSpec[model.Block]{
	scope: model.ScopeBlock,
	id:    model.Block.ID,
	insertion: func(d model.Diff) (model.Block, int, bool) {
		if ins, ok := d.(model.BlockInsertion); ok && ins.Block != nil {
			return ins.Block, ins.Index, true
		}
		return nil, 0, false
	},
	deletion: func(d model.Diff) bool {
		_, ok := d.(model.BlockDeletion)
		return ok
	},
}

// MergeDocument reconciles base with the primary and secondary diff lists.
//
// Blocks are visited in base order. A block primary deletes is gone; a
// block secondary deletes is gone unless primary edited it, in which case
// the edit wins. Every other block with diffs is merged with MergeBlock.
// Insertions follow: secondary's (minus the blocks primary also inserts),
// then primary's. The selection follows the blocks it was in by id, and
// moves to the end of the previous block when its block is deleted. Strokes
// are merged from the stroke diffs in the same lists.
func (m *Merger) MergeDocument(base model.Document, selection model.SelectionInfo, primary, secondary []model.Diff) DocumentResult {
	r := m.newRun()

	strokes := r.mergeStrokes(base.Strokes, primary, secondary)
	primary, _ = model.Partition(primary, inScope(model.ScopeBlock))
	secondary, _ = model.Partition(secondary, inScope(model.ScopeBlock))

	result := slices.Clone(base.Blocks)
	var primaryDeleted, secondaryDeleted []int
	var start, end anchor
	ids := selection.SelectionIDs
	sel := selection.Selection

	for i, block := range base.Blocks {
		id := block.ID()

		var selStart, selEnd *int
		if ids.StartBlockID == id {
			v := sel.StartOffset
			selStart = &v
		}
		if ids.EndBlockID == id {
			v := sel.EndOffset
			selEnd = &v
		}

		scoped := func(d model.Diff) bool {
			if _, _, ok := blockList.insertion(d); ok {
				return false
			}
			return d.Target() == id
		}
		var p, s []model.Diff
		p, primary = model.Partition(primary, scoped)
		s, secondary = model.Partition(secondary, scoped)

		if len(p) == 0 && len(s) == 0 {
			if selStart != nil {
				start.track(id, *selStart)
			}
			if selEnd != nil {
				end.track(id, *selEnd)
			}
			continue
		}

		if slices.ContainsFunc(p, blockList.deletion) {
			primaryDeleted = append(primaryDeleted, i)
			result = r.deleteBlock(result, id, selStart != nil, selEnd != nil, &start, &end)
			continue
		}

		if slices.ContainsFunc(s, blockList.deletion) {
			if len(p) == 0 {
				secondaryDeleted = append(secondaryDeleted, i)
				result = r.deleteBlock(result, id, selStart != nil, selEnd != nil, &start, &end)
				continue
			}
			s = r.dropDeletions(s, blockList.deletion)
		}

		merged := r.mergeBlock(block, p, s, selStart, selEnd, selection.From)
		if at := slices.IndexFunc(result, func(b model.Block) bool { return b.ID() == id }); at >= 0 {
			result[at] = merged.Block
		}
		if merged.SelectionStart != nil {
			start.track(merged.Block.ID(), *merged.SelectionStart)
		}
		if merged.SelectionEnd != nil {
			end.track(merged.Block.ID(), *merged.SelectionEnd)
		}
	}

	pIns, primary := extractInsertions(primary, blockList.insertion)
	sIns, secondary := extractInsertions(secondary, blockList.insertion)
	r.discardAll(primary, ReasonUnknownTarget)
	r.discardAll(secondary, ReasonUnknownTarget)
	result = applyBothInsertions(r, result, blockList.id, pIns, sIns, primaryDeleted, secondaryDeleted)

	var out model.SelectionRange
	out.StartBlock, out.StartOffset = start.resolve(result, sel.StartBlock, sel.StartOffset)
	out.EndBlock, out.EndOffset = end.resolve(result, sel.EndBlock, sel.EndOffset)

	r.m.logger.Debug("document merged",
		slog.Int("blocks", len(result)),
		slog.Int("strokes", len(strokes)),
		slog.Int("discarded", r.stats.Discarded),
	)

	return DocumentResult{
		Document:  model.Document{Blocks: result, Strokes: strokes, Selection: out},
		Selection: out,
		Stats:     r.stats,
	}
}

// MergeDocument runs the default Merger.
func MergeDocument(base model.Document, selection model.SelectionInfo, primary, secondary []model.Diff) DocumentResult {
	return defaultMerger().MergeDocument(base, selection, primary, secondary)
}

// deleteBlock removes the block with the given id. A selection end held by
// that block moves to the end of the block before it; with no block before
// it the anchor is left as it was.
func (r *run) deleteBlock(blocks []model.Block, id string, holdsStart, holdsEnd bool, start, end *anchor) []model.Block {
	at := slices.IndexFunc(blocks, func(b model.Block) bool { return b.ID() == id })
	if at < 0 {
		return blocks
	}
	if at > 0 {
		prev := blocks[at-1]
		if holdsStart {
			start.track(prev.ID(), model.EndOffset(prev))
		}
		if holdsEnd {
			end.track(prev.ID(), model.EndOffset(prev))
		}
	}
	r.stats.Deleted++
	return slices.Delete(blocks, at, at+1)
}
