package merge

import (
	"fmt"
	"unicode/utf8"

	"github.com/c0deZ3R0/go-note-merge/internal/ranges"
	"github.com/c0deZ3R0/go-note-merge/model"
)

// Strategy is how a paragraph's content is reconciled.
type Strategy int

const (
	// StrategyBoth applies both sides, cascading their indices.
	StrategyBoth Strategy = iota
	// StrategyPrimary applies primary's diffs only.
	StrategyPrimary
	// StrategySecondary applies secondary's diffs only.
	StrategySecondary
)

func (s Strategy) String() string {
	switch s {
	case StrategyBoth:
		return "both"
	case StrategyPrimary:
		return "primary"
	case StrategySecondary:
		return "secondary"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// textKinds counts the distinct text diff types (insert, delete) in diffs.
func textKinds(diffs []model.Diff) (inserts, deletes bool) {
	for _, d := range diffs {
		switch d.(type) {
		case model.BlockTextInsertion:
			inserts = true
		case model.BlockTextDeletion:
			deletes = true
		}
	}
	return inserts, deletes
}

func kindCount(inserts, deletes bool) int {
	n := 0
	if inserts {
		n++
	}
	if deletes {
		n++
	}
	return n
}

// MergeStrategy picks the content strategy from the text diffs alone.
// No text edits anywhere, or a single matching kind of edit on each side,
// merges both. Text edits only on secondary take secondary. Anything else is
// ambiguous and primary wins outright.
func MergeStrategy(primary, secondary []model.Diff) Strategy {
	pIns, pDel := textKinds(primary)
	sIns, sDel := textKinds(secondary)
	p, s := kindCount(pIns, pDel), kindCount(sIns, sDel)

	switch {
	case p == 0 && s == 0:
		return StrategyBoth
	case p == 0:
		return StrategySecondary
	case p == 1 && s == 1 && pIns == sIns:
		return StrategyBoth
	default:
		return StrategyPrimary
	}
}

// ContentResult is a merged paragraph content with the selection offsets
// that fell inside it. Nil offsets mean the selection is elsewhere.
type ContentResult struct {
	Content        model.Content
	SelectionStart *int
	SelectionEnd   *int
}

// MergeContent reconciles content with the text and span diffs of both
// sides. from decides whether a one-sided merge may move the selection.
func (m *Merger) MergeContent(content model.Content, primary, secondary []model.Diff, selectionStart, selectionEnd *int, from model.SelectionFrom) ContentResult {
	r := m.newRun()
	return r.mergeContent("", content, primary, secondary, selectionStart, selectionEnd, from)
}

// MergeContent runs the default Merger.
func MergeContent(content model.Content, primary, secondary []model.Diff, selectionStart, selectionEnd *int, from model.SelectionFrom) ContentResult {
	return defaultMerger().MergeContent(content, primary, secondary, selectionStart, selectionEnd, from)
}

func (r *run) mergeContent(blockID string, content model.Content, primary, secondary []model.Diff, selectionStart, selectionEnd *int, from model.SelectionFrom) ContentResult {
	strategy := MergeStrategy(primary, secondary)
	r.strategy(blockID, strategy)

	switch strategy {
	case StrategyPrimary:
		return basicStrategy(content, primary, selectionStart, selectionEnd, from == model.SelectionFromSecondary)
	case StrategySecondary:
		return basicStrategy(content, secondary, selectionStart, selectionEnd, from == model.SelectionFromPrimary)
	case StrategyBoth:
		return bothStrategy(content, primary, secondary, selectionStart, selectionEnd)
	}

	return ContentResult{Content: content.Normalize(), SelectionStart: selectionStart, SelectionEnd: selectionEnd}
}

// bothStrategy applies deletes then inserts from each side, primary first,
// each side seeing the other's indices. Spans follow, secondary's insertions
// before primary's. The selection moves with secondary's edits.
func bothStrategy(content model.Content, primary, secondary []model.Diff, selectionStart, selectionEnd *int) ContentResult {
	text, pDeleted, primary := ApplyTextDeletes(primary, content.Text, nil)
	text, sDeleted, secondary := ApplyTextDeletes(secondary, text, pDeleted)
	text, pInserted, primary := ApplyTextInserts(primary, text, sDeleted, nil)
	text, sInserted, secondary := ApplyTextInserts(secondary, text, pDeleted, pInserted)

	spans, primary := ApplySpanDeletes(primary, content.Spans)
	spans, secondary = ApplySpanDeletes(secondary, spans)
	spans, _ = ApplySpanInserts(secondary, spans, utf8.RuneCountInString(text), pDeleted, pInserted)
	spans, _ = ApplySpanInserts(primary, spans, utf8.RuneCountInString(text), sDeleted, sInserted)

	return ContentResult{
		Content:        model.Content{Text: text, Spans: spans}.Normalize(),
		SelectionStart: shiftOffset(selectionStart, sDeleted, sInserted),
		SelectionEnd:   shiftOffset(selectionEnd, sDeleted, sInserted),
	}
}

// basicStrategy applies one side's diffs wholesale. The selection only moves
// when modifySelection is set, which is when the other side owns it.
func basicStrategy(content model.Content, diffs []model.Diff, selectionStart, selectionEnd *int, modifySelection bool) ContentResult {
	text, deleted, diffs := ApplyTextDeletes(diffs, content.Text, nil)
	text, inserted, diffs := ApplyTextInserts(diffs, text, nil, nil)
	spans, diffs := ApplySpanDeletes(diffs, content.Spans)
	spans, _ = ApplySpanInserts(diffs, spans, utf8.RuneCountInString(text), nil, nil)

	res := ContentResult{
		Content:        model.Content{Text: text, Spans: spans}.Normalize(),
		SelectionStart: selectionStart,
		SelectionEnd:   selectionEnd,
	}
	if modifySelection {
		res.SelectionStart = shiftOffset(selectionStart, deleted, inserted)
		res.SelectionEnd = shiftOffset(selectionEnd, deleted, inserted)
	}
	return res
}

func shiftOffset(offset *int, deleted, inserted []int) *int {
	if offset == nil {
		return nil
	}
	v := ranges.OffsetModifiedByDeletes(*offset, deleted, true)
	v = ranges.OffsetModifiedByInserts(v, inserted, true)
	return &v
}
