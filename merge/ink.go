package merge

import "github.com/c0deZ3R0/go-note-merge/model"

// StrokeResult is a merged stroke list.
type StrokeResult struct {
	Strokes []model.Stroke
	Stats   Stats
}

var strokeList = listSpec[model.Stroke]{
	scope: model.ScopeStroke,
	id:    model.Stroke.ID,
	insertion: func(d model.Diff) (model.Stroke, int, bool) {
		if ins, ok := d.(model.StrokeInsertion); ok {
			return ins.Stroke, ins.Index, true
		}
		return model.Stroke{}, 0, false
	},
	deletion: func(d model.Diff) bool {
		_, ok := d.(model.StrokeDeletion)
		return ok
	},
}

// MergeStrokes reconciles an ink stroke list. Strokes are only inserted or
// deleted whole; a stroke both sides inserted appears once.
func (m *Merger) MergeStrokes(base []model.Stroke, primary, secondary []model.Diff) StrokeResult {
	r := m.newRun()
	strokes := r.mergeStrokes(base, primary, secondary)
	return StrokeResult{Strokes: strokes, Stats: r.stats}
}

// MergeStrokes runs the default Merger.
func MergeStrokes(base []model.Stroke, primary, secondary []model.Diff) StrokeResult {
	return defaultMerger().MergeStrokes(base, primary, secondary)
}

func (r *run) mergeStrokes(base []model.Stroke, primary, secondary []model.Diff) []model.Stroke {
	p, _ := model.Partition(primary, inScope(model.ScopeStroke))
	s, _ := model.Partition(secondary, inScope(model.ScopeStroke))
	return mergeList(r, strokeList, base, p, s)
}
