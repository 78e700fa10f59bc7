package merge

import (
	"unicode/utf8"

	"github.com/c0deZ3R0/go-note-merge/internal/ranges"
	"github.com/c0deZ3R0/go-note-merge/model"
)

// ApplyTextInserts applies every BlockTextInsertion in diffs to base, in
// list order, and returns the new text, the rune indices the insertions now
// occupy, and the diffs it did not consume.
//
// previouslyDeleted and previouslyInserted are the indices the other side
// already deleted from or inserted into the text. An insertion whose span,
// after shifting for those deletes, lands on an index the other side
// inserted is a conflict and is dropped. Insertions that end up outside
// [0, len(text)] are dropped as well. Every BlockTextInsertion is consumed.
func ApplyTextInserts(diffs []model.Diff, base string, previouslyDeleted, previouslyInserted []int) (string, []int, []model.Diff) {
	text := []rune(base)
	var inserted []int
	var rest []model.Diff

	for _, d := range diffs {
		ins, ok := d.(model.BlockTextInsertion)
		if !ok {
			rest = append(rest, d)
			continue
		}

		n := utf8.RuneCountInString(ins.Text)
		shifted := ranges.ModifiedByDeletes(ins.Index, ins.Index+n, previouslyDeleted)
		if shifted.ContainsAny(previouslyInserted) {
			continue
		}

		at := ranges.ModifiedByInserts(shifted.Start, shifted.End, previouslyInserted)
		if at.Start < 0 || at.Start > len(text) {
			continue
		}

		out := make([]rune, 0, len(text)+n)
		out = append(out, text[:at.Start]...)
		out = append(out, []rune(ins.Text)...)
		out = append(out, text[at.Start:]...)
		text = out
		inserted = append(inserted, at.Indices()...)
	}

	return string(text), inserted, rest
}

// ApplyTextDeletes applies every BlockTextDeletion in diffs to base, in list
// order. A deletion removes the runes Start through End inclusive.
//
// A deletion overlapping previouslyDeleted was already carried out by the
// other side and is dropped. Otherwise it is shifted left past the other
// side's deletions and applied if it still fits the text. The returned
// indices are the deletion ranges as recorded in the diffs. Every
// BlockTextDeletion is consumed.
func ApplyTextDeletes(diffs []model.Diff, base string, previouslyDeleted []int) (string, []int, []model.Diff) {
	text := []rune(base)
	var deleted []int
	var rest []model.Diff

	for _, d := range diffs {
		del, ok := d.(model.BlockTextDeletion)
		if !ok {
			rest = append(rest, d)
			continue
		}

		if (ranges.Range{Start: del.Start, End: del.End}).ContainsAny(previouslyDeleted) {
			continue
		}

		at := ranges.ModifiedByDeletes(del.Start, del.End, previouslyDeleted)
		if at.Start < 0 || at.End < at.Start || at.End >= len(text) {
			continue
		}

		text = append(text[:at.Start], text[at.End+1:]...)
		deleted = append(deleted, ranges.Range{Start: del.Start, End: del.End + 1}.Indices()...)
	}

	return string(text), deleted, rest
}
