package merge

import (
	"slices"

	"github.com/c0deZ3R0/go-note-merge/internal/ranges"
	"github.com/c0deZ3R0/go-note-merge/model"
)

// ApplySpanDeletes removes every span equal in value to the span of any
// SpanDeletion in diffs. Duplicate spans are all removed. Every SpanDeletion
// is consumed.
func ApplySpanDeletes(diffs []model.Diff, spans []model.Span) ([]model.Span, []model.Diff) {
	var doomed []model.Span
	var rest []model.Diff
	for _, d := range diffs {
		if del, ok := d.(model.SpanDeletion); ok {
			doomed = append(doomed, del.Span)
			continue
		}
		rest = append(rest, d)
	}

	out := make([]model.Span, 0, len(spans))
	for _, s := range spans {
		if !slices.Contains(doomed, s) {
			out = append(out, s)
		}
	}
	return out, rest
}

// ApplySpanInserts adds every SpanInsertion in diffs to spans, in list order.
//
// Each span is first moved past the other side's deletes and inserts and
// clamped to [0, textLen], then clipped against every index already styled,
// either by spans or by a span inserted earlier in this call. The first span
// to claim an index keeps it. Zero-length spans are never clipped. A span
// clipped away entirely is dropped. The result is sorted by (Start, End).
// Every SpanInsertion is consumed.
func ApplySpanInserts(diffs []model.Diff, spans []model.Span, textLen int, previouslyDeleted, previouslyInserted []int) ([]model.Span, []model.Diff) {
	out := append([]model.Span(nil), spans...)
	covered := make([]ranges.Range, 0, len(spans))
	for _, s := range spans {
		covered = append(covered, ranges.Range{Start: s.Start, End: s.End}.Clamp(0, textLen))
	}

	// Offsets in the inserting side's text never exceed the current text
	// plus what the other side deleted.
	limit := textLen + len(previouslyDeleted)

	var rest []model.Diff
	for _, d := range diffs {
		ins, ok := d.(model.SpanInsertion)
		if !ok {
			rest = append(rest, d)
			continue
		}

		span := ins.Span
		r := ranges.Range{Start: span.Start, End: span.End}.Clamp(0, limit)
		r = ranges.ModifiedByDeletes(r.Start, r.End, previouslyDeleted)
		r = ranges.ModifiedByInserts(r.Start, r.End, previouslyInserted)
		r = r.Clamp(0, textLen)

		if r.Start < r.End {
			for _, taken := range ranges.Union(covered) {
				r = r.Remove(taken)
				if r.End < r.Start {
					break
				}
			}
		}
		if r.End < r.Start {
			continue
		}

		span.Start, span.End = r.Start, r.End
		out = append(out, span)
		covered = append(covered, r)
	}

	model.SortSpans(out)
	return out, rest
}
