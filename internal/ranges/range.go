// Package ranges implements the interval and index arithmetic the merge
// engine uses to shift positions across concurrent inserts and deletes.
package ranges

import "sort"

// Range is the half-open interval [Start, End). A Range with End < Start is
// empty and is what Remove returns when nothing is left.
type Range struct {
	Start int
	End   int
}

// Len returns End - Start, which is negative for an inverted range.
func (r Range) Len() int { return r.End - r.Start }

// Empty reports whether r covers no index.
func (r Range) Empty() bool { return r.End <= r.Start }

// Indices enumerates Start, Start+1, ..., End-1.
func (r Range) Indices() []int {
	if r.End <= r.Start {
		return nil
	}
	out := make([]int, 0, r.End-r.Start)
	for i := r.Start; i < r.End; i++ {
		out = append(out, i)
	}
	return out
}

// ContainsAny reports whether any of indices lies in [Start, End).
func (r Range) ContainsAny(indices []int) bool {
	for _, i := range indices {
		if i >= r.Start && i < r.End {
			return true
		}
	}
	return false
}

// Contains reports whether inner lies entirely within r.
func (r Range) Contains(inner Range) bool {
	return r.Start <= inner.Start && inner.End <= r.End
}

// Remove subtracts other from r and collapses what is left to a single
// contiguous range: the first run of surviving indices. Indices past a gap
// are lost, so Range{5, 15}.Remove(Range{10, 12}) is Range{5, 10}. When
// nothing survives the result is the inverted Range{r.Start, r.Start - 1}.
func (r Range) Remove(other Range) Range {
	if r.Empty() {
		return Range{Start: r.Start, End: r.Start - 1}
	}
	if other.Empty() || other.End <= r.Start || other.Start >= r.End {
		return r
	}
	if other.Start > r.Start {
		return Range{Start: r.Start, End: other.Start}
	}
	if other.End < r.End {
		return Range{Start: other.End, End: r.End}
	}
	return Range{Start: r.Start, End: r.Start - 1}
}

// Clamp limits r to [lo, hi]. A range entirely past hi becomes the
// inverted Range{r.Start, hi}.
func (r Range) Clamp(lo, hi int) Range {
	r.Start = max(r.Start, lo)
	r.End = min(r.End, hi)
	return r
}

// Union merges rs into maximal disjoint runs in ascending order. Touching
// runs merge and empty ranges are skipped, so Union gives the same runs as
// ToRanges over the ranges' indices.
func Union(rs []Range) []Range {
	sorted := make([]Range, 0, len(rs))
	for _, r := range rs {
		if !r.Empty() {
			sorted = append(sorted, r)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End {
			last.End = max(last.End, r.End)
			continue
		}
		out = append(out, r)
	}
	return out
}

// ToRanges collapses a set of indices into maximal contiguous [start, end)
// runs in ascending order. Duplicates are ignored.
func ToRanges(indices []int) []Range {
	if len(indices) == 0 {
		return nil
	}
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)

	var out []Range
	cur := Range{Start: sorted[0], End: sorted[0] + 1}
	for _, i := range sorted[1:] {
		switch {
		case i < cur.End:
			// duplicate
		case i == cur.End:
			cur.End++
		default:
			out = append(out, cur)
			cur = Range{Start: i, End: i + 1}
		}
	}
	return append(out, cur)
}

// ModifiedByInserts shifts [start, end) right by the number of previously
// inserted indices strictly before start.
func ModifiedByInserts(start, end int, inserted []int) Range {
	n := countBefore(inserted, start)
	return Range{Start: start + n, End: end + n}
}

// ModifiedByDeletes shifts [start, end) left by the number of previously
// deleted indices strictly before start.
func ModifiedByDeletes(start, end int, deleted []int) Range {
	n := countBefore(deleted, start)
	return Range{Start: start - n, End: end - n}
}

func countBefore(indices []int, pos int) int {
	n := 0
	for _, i := range indices {
		if i < pos {
			n++
		}
	}
	return n
}
