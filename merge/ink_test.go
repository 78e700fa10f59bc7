package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c0deZ3R0/go-note-merge/model"
)

func stroke(id string) model.Stroke {
	return model.Stroke{StrokeID: id, Points: []model.InkPoint{{X: 0, Y: 0}, {X: 1, Y: 1, Pressure: 0.5}}}
}

func strokeIns(id string, at int) model.Diff {
	return model.StrokeInsertion{StrokeID: id, Stroke: stroke(id), Index: at}
}

func TestMergeStrokes(t *testing.T) {
	s1, s2 := stroke("s1"), stroke("s2")

	tests := []struct {
		name      string
		primary   []model.Diff
		secondary []model.Diff
		want      []model.Stroke
	}{
		{
			name:      "same stroke inserted by both sides",
			primary:   []model.Diff{strokeIns("s3", 0)},
			secondary: []model.Diff{strokeIns("s3", 0)},
			want:      []model.Stroke{stroke("s3"), s1, s2},
		},
		{
			name:      "secondary insertion after primary deletion",
			primary:   []model.Diff{model.StrokeDeletion{StrokeID: "s1"}},
			secondary: []model.Diff{strokeIns("s4", 2)},
			want:      []model.Stroke{s2, stroke("s4")},
		},
		{
			name:      "primary insertion after secondary deletion",
			primary:   []model.Diff{strokeIns("s4", 2)},
			secondary: []model.Diff{model.StrokeDeletion{StrokeID: "s2"}},
			want:      []model.Stroke{s1, stroke("s4")},
		},
		{
			name:      "both delete the same stroke",
			primary:   []model.Diff{model.StrokeDeletion{StrokeID: "s1"}},
			secondary: []model.Diff{model.StrokeDeletion{StrokeID: "s1"}},
			want:      []model.Stroke{s2},
		},
		{
			name: "no diffs",
			want: []model.Stroke{s1, s2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := MergeStrokes([]model.Stroke{s1, s2}, tt.primary, tt.secondary)
			assert.Equal(t, tt.want, res.Strokes)
		})
	}
}

func TestMergeStrokes_OutOfRange(t *testing.T) {
	var discarded []model.Diff
	m := New(WithHooks(Hooks{OnDiscarded: func(d model.Diff, _ Reason) { discarded = append(discarded, d) }}))

	bad := strokeIns("s9", 7)
	res := m.MergeStrokes([]model.Stroke{stroke("s1")}, []model.Diff{bad}, nil)

	assert.Equal(t, []model.Stroke{stroke("s1")}, res.Strokes)
	assert.Equal(t, []model.Diff{bad}, discarded)
	assert.Equal(t, Stats{Discarded: 1}, res.Stats)
}

func TestStats_Add(t *testing.T) {
	a := Stats{BothStrategy: 1, Deleted: 2, Discarded: 1}
	b := Stats{PrimaryStrategy: 3, Deleted: 1, Inserted: 4}
	assert.Equal(t, Stats{BothStrategy: 1, PrimaryStrategy: 3, Deleted: 3, Inserted: 4, Discarded: 1}, a.Add(b))
}
