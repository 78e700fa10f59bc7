package merge

import (
	"slices"

	"github.com/c0deZ3R0/go-note-merge/model"
)

// insertion is a pending list insertion recovered from a diff.
type insertion[T any] struct {
	item  T
	index int
	diff  model.Diff
}

// listSpec describes how a flat, id-keyed list is merged.
type listSpec[T any] struct {
	scope model.Scope
	id    func(T) string
	// insertion recognizes an insertion diff for this list.
	insertion func(model.Diff) (T, int, bool)
	// deletion recognizes a deletion diff for this list.
	deletion func(model.Diff) bool
	// update applies the non-structural diffs of one item. Nil when the list
	// has none.
	update func(item T, primary, secondary []model.Diff) T
}

// mergeList reconciles a flat list: per-item deletions and updates in one
// pass over base, then insertions from both sides.
func mergeList[T any](r *run, spec listSpec[T], base []T, primary, secondary []model.Diff) []T {
	result := slices.Clone(base)
	var primaryDeleted, secondaryDeleted []int

	for i, item := range base {
		id := spec.id(item)
		scoped := func(d model.Diff) bool {
			if _, _, ok := spec.insertion(d); ok {
				return false
			}
			return model.ScopedTo(d, spec.scope, id)
		}

		var p, s []model.Diff
		p, primary = model.Partition(primary, scoped)
		s, secondary = model.Partition(secondary, scoped)
		if len(p) == 0 && len(s) == 0 {
			continue
		}

		if slices.ContainsFunc(p, spec.deletion) {
			primaryDeleted = append(primaryDeleted, i)
			result = removeByID(result, spec.id, id)
			r.stats.Deleted++
			continue
		}

		if slices.ContainsFunc(s, spec.deletion) {
			if len(p) == 0 {
				secondaryDeleted = append(secondaryDeleted, i)
				result = removeByID(result, spec.id, id)
				r.stats.Deleted++
				continue
			}
			s = r.dropDeletions(s, spec.deletion)
		}

		if spec.update != nil {
			if at := indexByID(result, spec.id, id); at >= 0 {
				result[at] = spec.update(result[at], p, s)
			}
		}
	}

	pIns, primary := extractInsertions(primary, spec.insertion)
	sIns, secondary := extractInsertions(secondary, spec.insertion)
	r.discardAll(primary, ReasonUnknownTarget)
	r.discardAll(secondary, ReasonUnknownTarget)

	return applyBothInsertions(r, result, spec.id, pIns, sIns, primaryDeleted, secondaryDeleted)
}

// applyBothInsertions drops secondary insertions of items primary also
// inserts, then applies secondary's insertions followed by primary's. Each
// side's indices are corrected for what the other side deleted; secondary's
// also for the duplicates just removed.
func applyBothInsertions[T any](r *run, items []T, id func(T) string, primary, secondary []insertion[T], primaryDeleted, secondaryDeleted []int) []T {
	secondary, duplicates := dropDuplicateInsertions(r, primary, secondary, id)
	items = applyInsertions(r, items, secondary, append(slices.Clone(primaryDeleted), duplicates...))
	return applyInsertions(r, items, primary, secondaryDeleted)
}

func dropDuplicateInsertions[T any](r *run, primary, secondary []insertion[T], id func(T) string) ([]insertion[T], []int) {
	inPrimary := make(map[string]struct{}, len(primary))
	for _, ins := range primary {
		inPrimary[id(ins.item)] = struct{}{}
	}

	var kept []insertion[T]
	var removed []int
	for _, ins := range secondary {
		if _, dup := inPrimary[id(ins.item)]; dup {
			removed = append(removed, ins.index)
			r.discard(ins.diff, ReasonDuplicateInsertion)
			continue
		}
		kept = append(kept, ins)
	}
	return kept, removed
}

// applyInsertions inserts each item at its recorded index minus the number
// of previously deleted positions before that index.
func applyInsertions[T any](r *run, items []T, pending []insertion[T], previouslyDeleted []int) []T {
	for _, ins := range pending {
		at := ins.index
		for _, d := range previouslyDeleted {
			if d < ins.index {
				at--
			}
		}
		if at < 0 || at > len(items) {
			r.discard(ins.diff, ReasonOutOfRange)
			continue
		}
		items = slices.Insert(items, at, ins.item)
		r.stats.Inserted++
	}
	return items
}

func (r *run) dropDeletions(diffs []model.Diff, deletion func(model.Diff) bool) []model.Diff {
	dropped, rest := model.Partition(diffs, deletion)
	for _, d := range dropped {
		r.discard(d, ReasonDeletionOverridden)
	}
	return rest
}

func (r *run) discardAll(diffs []model.Diff, reason Reason) {
	for _, d := range diffs {
		r.discard(d, reason)
	}
}

func extractInsertions[T any](diffs []model.Diff, match func(model.Diff) (T, int, bool)) ([]insertion[T], []model.Diff) {
	var out []insertion[T]
	var rest []model.Diff
	for _, d := range diffs {
		if item, index, ok := match(d); ok {
			out = append(out, insertion[T]{item: item, index: index, diff: d})
			continue
		}
		rest = append(rest, d)
	}
	return out, rest
}

func indexByID[T any](items []T, id func(T) string, want string) int {
	return slices.IndexFunc(items, func(item T) bool { return id(item) == want })
}

func removeByID[T any](items []T, id func(T) string, want string) []T {
	if at := indexByID(items, id, want); at >= 0 {
		return slices.Delete(items, at, at+1)
	}
	return items
}
