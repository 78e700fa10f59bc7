package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c0deZ3R0/go-note-merge/model"
)

func intp(v int) *int { return &v }

func textIns(text string, at int) model.Diff {
	return model.BlockTextInsertion{BlockID: "b", Text: text, Index: at}
}

func textDel(start, end int) model.Diff {
	return model.BlockTextDeletion{BlockID: "b", Start: start, End: end}
}

func TestMergeStrategy(t *testing.T) {
	tests := []struct {
		name      string
		primary   []model.Diff
		secondary []model.Diff
		want      Strategy
	}{
		{name: "no text diffs", want: StrategyBoth},
		{name: "span diffs only", primary: []model.Diff{spanIns(bold(0, 1))}, secondary: []model.Diff{spanDel(bold(0, 1))}, want: StrategyBoth},
		{name: "secondary only", secondary: []model.Diff{textIns("a", 0)}, want: StrategySecondary},
		{name: "primary only", primary: []model.Diff{textIns("a", 0)}, want: StrategyPrimary},
		{name: "both insert", primary: []model.Diff{textIns("a", 0)}, secondary: []model.Diff{textIns("b", 1), textIns("c", 2)}, want: StrategyBoth},
		{name: "both delete", primary: []model.Diff{textDel(0, 1)}, secondary: []model.Diff{textDel(2, 3)}, want: StrategyBoth},
		{name: "insert against delete", primary: []model.Diff{textIns("a", 0)}, secondary: []model.Diff{textDel(2, 3)}, want: StrategyPrimary},
		{name: "mixed against insert", primary: []model.Diff{textIns("a", 0), textDel(2, 3)}, secondary: []model.Diff{textIns("b", 1)}, want: StrategyPrimary},
		{name: "insert against mixed", primary: []model.Diff{textIns("a", 0)}, secondary: []model.Diff{textIns("b", 1), textDel(2, 3)}, want: StrategyPrimary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeStrategy(tt.primary, tt.secondary))
		})
	}
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "both", StrategyBoth.String())
	assert.Equal(t, "primary", StrategyPrimary.String())
	assert.Equal(t, "secondary", StrategySecondary.String())
	assert.Equal(t, "Strategy(9)", Strategy(9).String())
}

func TestMergeContent_Both(t *testing.T) {
	t.Run("concurrent inserts", func(t *testing.T) {
		res := MergeContent(model.Content{Text: "the cat"},
			[]model.Diff{textIns(" black", 3)},
			[]model.Diff{textIns("A ", 0)},
			intp(7), nil, model.SelectionFromPrimary)

		assert.Equal(t, "A the black cat", res.Content.Text)
		require.NotNil(t, res.SelectionStart)
		assert.Equal(t, 9, *res.SelectionStart)
		assert.Nil(t, res.SelectionEnd)
	})

	t.Run("concurrent deletes", func(t *testing.T) {
		res := MergeContent(model.Content{Text: "the black cat"},
			[]model.Diff{textDel(4, 9)},
			[]model.Diff{textDel(0, 3)},
			nil, nil, model.SelectionFromPrimary)

		assert.Equal(t, "cat", res.Content.Text)
	})

	t.Run("overlapping deletes apply once", func(t *testing.T) {
		res := MergeContent(model.Content{Text: "the black cat"},
			[]model.Diff{textDel(4, 9)},
			[]model.Diff{textDel(4, 9)},
			nil, nil, model.SelectionFromPrimary)

		assert.Equal(t, "the cat", res.Content.Text)
	})

	t.Run("spans from both sides", func(t *testing.T) {
		res := MergeContent(model.Content{Text: "the cat"},
			[]model.Diff{spanIns(bold(0, 3))},
			[]model.Diff{spanIns(italic(2, 5))},
			nil, nil, model.SelectionFromPrimary)

		assert.Equal(t, "the cat", res.Content.Text)
		assert.Equal(t, []model.Span{bold(0, 2), italic(2, 5)}, res.Content.Spans)
	})

	t.Run("span deletion from secondary", func(t *testing.T) {
		res := MergeContent(model.Content{Text: "the cat", Spans: []model.Span{bold(0, 3)}},
			nil,
			[]model.Diff{spanDel(bold(0, 3))},
			nil, nil, model.SelectionFromPrimary)

		assert.Empty(t, res.Content.Spans)
	})
}

func TestMergeContent_Primary(t *testing.T) {
	base := model.Content{Text: "hello world"}
	primary := []model.Diff{textDel(0, 5), textIns("new ", 0)}
	secondary := []model.Diff{textIns("X", 0)}

	t.Run("selection owned by primary stays", func(t *testing.T) {
		res := MergeContent(base, primary, secondary, intp(11), intp(11), model.SelectionFromPrimary)
		assert.Equal(t, "new world", res.Content.Text)
		assert.Equal(t, 11, *res.SelectionStart)
		assert.Equal(t, 11, *res.SelectionEnd)
	})

	t.Run("selection owned by secondary follows primary's edits", func(t *testing.T) {
		res := MergeContent(base, primary, secondary, intp(11), intp(11), model.SelectionFromSecondary)
		assert.Equal(t, "new world", res.Content.Text)
		assert.Equal(t, 9, *res.SelectionStart)
		assert.Equal(t, 9, *res.SelectionEnd)
	})
}

func TestMergeContent_Secondary(t *testing.T) {
	res := MergeContent(model.Content{Text: "cat"},
		[]model.Diff{spanIns(bold(0, 3))},
		[]model.Diff{textIns("s", 3)},
		intp(3), nil, model.SelectionFromPrimary)

	assert.Equal(t, "cats", res.Content.Text)
	assert.Empty(t, res.Content.Spans, "primary's span is not applied")
	assert.Equal(t, 4, *res.SelectionStart)
}

func TestMergeContent_SpansStayInBounds(t *testing.T) {
	res := MergeContent(model.Content{Text: "the black cat", Spans: []model.Span{bold(4, 13)}},
		[]model.Diff{textDel(4, 9)},
		nil, nil, nil, model.SelectionFromPrimary)

	assert.Equal(t, "the cat", res.Content.Text)
	for _, s := range res.Content.Spans {
		assert.GreaterOrEqual(t, s.Start, 0)
		assert.LessOrEqual(t, s.End, res.Content.TextLen())
		assert.LessOrEqual(t, s.Start, s.End)
	}
}

func TestMerger_Hooks(t *testing.T) {
	var strategies []Strategy
	m := New(WithHooks(Hooks{
		OnStrategy: func(_ string, s Strategy) { strategies = append(strategies, s) },
	}))

	m.MergeContent(model.Content{Text: "abc"}, []model.Diff{textIns("x", 0)}, nil, nil, nil, model.SelectionFromPrimary)
	m.MergeContent(model.Content{Text: "abc"}, nil, []model.Diff{textIns("x", 0)}, nil, nil, model.SelectionFromPrimary)

	assert.Equal(t, []Strategy{StrategyPrimary, StrategySecondary}, strategies)
}
