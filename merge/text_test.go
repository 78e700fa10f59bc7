package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c0deZ3R0/go-note-merge/model"
)

func TestApplyTextInserts(t *testing.T) {
	tests := []struct {
		name               string
		diffs              []model.Diff
		base               string
		previouslyDeleted  []int
		previouslyInserted []int
		wantText           string
		wantInserted       []int
	}{
		{
			name:         "single insertion",
			diffs:        []model.Diff{model.BlockTextInsertion{BlockID: "b", Text: " black", Index: 3}},
			base:         "the cat",
			wantText:     "the black cat",
			wantInserted: []int{3, 4, 5, 6, 7, 8},
		},
		{
			name:               "conflicts with the other side's insertion",
			diffs:              []model.Diff{model.BlockTextInsertion{BlockID: "b", Text: "x", Index: 3}},
			base:               "the big cat",
			previouslyInserted: []int{3, 4, 5, 6},
			wantText:           "the big cat",
		},
		{
			name:               "shifted past the other side's insertion",
			diffs:              []model.Diff{model.BlockTextInsertion{BlockID: "b", Text: "!", Index: 7}},
			base:               "big the cat",
			previouslyInserted: []int{0, 1, 2, 3},
			wantText:           "big the cat!",
			wantInserted:       []int{11},
		},
		{
			name:              "shifted past the other side's deletion",
			diffs:             []model.Diff{model.BlockTextInsertion{BlockID: "b", Text: "s", Index: 13}},
			base:              "the cat",
			previouslyDeleted: []int{4, 5, 6, 7, 8, 9},
			wantText:          "the cats",
			wantInserted:      []int{7},
		},
		{
			name:     "out of bounds is dropped",
			diffs:    []model.Diff{model.BlockTextInsertion{BlockID: "b", Text: "x", Index: 50}},
			base:     "the cat",
			wantText: "the cat",
		},
		{
			name:     "negative index is dropped",
			diffs:    []model.Diff{model.BlockTextInsertion{BlockID: "b", Text: "x", Index: -2}},
			base:     "the cat",
			wantText: "the cat",
		},
		{
			name:         "runes not bytes",
			diffs:        []model.Diff{model.BlockTextInsertion{BlockID: "b", Text: "ü", Index: 1}},
			base:         "héllo",
			wantText:     "hüéllo",
			wantInserted: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, inserted, rest := ApplyTextInserts(tt.diffs, tt.base, tt.previouslyDeleted, tt.previouslyInserted)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantInserted, inserted)
			assert.Empty(t, rest, "text insertions are always consumed")
		})
	}
}

func TestApplyTextInserts_LeavesOtherDiffs(t *testing.T) {
	span := model.SpanInsertion{BlockID: "b", Span: model.Span{Style: model.StyleBold, Start: 0, End: 3}}
	del := model.BlockTextDeletion{BlockID: "b", Start: 0, End: 1}
	diffs := []model.Diff{span, model.BlockTextInsertion{BlockID: "b", Text: "a", Index: 0}, del}

	text, _, rest := ApplyTextInserts(diffs, "bc", nil, nil)
	assert.Equal(t, "abc", text)
	assert.Equal(t, []model.Diff{span, del}, rest)
}

func TestApplyTextInserts_InOrder(t *testing.T) {
	diffs := []model.Diff{
		model.BlockTextInsertion{BlockID: "b", Text: "big ", Index: 4},
		model.BlockTextInsertion{BlockID: "b", Text: "!", Index: 11},
	}
	text, inserted, _ := ApplyTextInserts(diffs, "the cat", nil, nil)
	assert.Equal(t, "the big cat!", text)
	assert.Equal(t, []int{4, 5, 6, 7, 11}, inserted)
}

func TestApplyTextDeletes(t *testing.T) {
	tests := []struct {
		name              string
		diffs             []model.Diff
		base              string
		previouslyDeleted []int
		wantText          string
		wantDeleted       []int
	}{
		{
			name:        "inclusive range",
			diffs:       []model.Diff{model.BlockTextDeletion{BlockID: "b", Start: 4, End: 9}},
			base:        "the black cat",
			wantText:    "the cat",
			wantDeleted: []int{4, 5, 6, 7, 8, 9},
		},
		{
			name:              "already deleted by the other side",
			diffs:             []model.Diff{model.BlockTextDeletion{BlockID: "b", Start: 5, End: 7}},
			base:              "the cat",
			previouslyDeleted: []int{4, 5, 6, 7, 8, 9},
			wantText:          "the cat",
		},
		{
			name:              "shifted past the other side's deletion",
			diffs:             []model.Diff{model.BlockTextDeletion{BlockID: "b", Start: 10, End: 12}},
			base:              "the cat",
			previouslyDeleted: []int{4, 5, 6, 7, 8, 9},
			wantText:          "the ",
			wantDeleted:       []int{10, 11, 12},
		},
		{
			name:     "end past the text is dropped",
			diffs:    []model.Diff{model.BlockTextDeletion{BlockID: "b", Start: 4, End: 7}},
			base:     "the cat",
			wantText: "the cat",
		},
		{
			name:     "negative start is dropped",
			diffs:    []model.Diff{model.BlockTextDeletion{BlockID: "b", Start: -1, End: 2}},
			base:     "the cat",
			wantText: "the cat",
		},
		{
			name:     "inverted range is dropped",
			diffs:    []model.Diff{model.BlockTextDeletion{BlockID: "b", Start: 5, End: 2}},
			base:     "the cat",
			wantText: "the cat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, deleted, rest := ApplyTextDeletes(tt.diffs, tt.base, tt.previouslyDeleted)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantDeleted, deleted)
			assert.Empty(t, rest)
		})
	}
}
