package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Content
		spans []Span
	}{
		{
			name:  "clamps into the text",
			in:    Content{Text: "abc", Spans: []Span{{Style: StyleBold, Start: -2, End: 10}}},
			spans: []Span{{Style: StyleBold, Start: 0, End: 3}},
		},
		{
			name:  "drops inverted and detached spans",
			in:    Content{Text: "abc", Spans: []Span{{Start: 2, End: 1}, {Start: 5, End: 6}}},
			spans: nil,
		},
		{
			name: "sorts by start then end",
			in: Content{Text: "abcdef", Spans: []Span{
				{Style: StyleItalic, Start: 2, End: 4},
				{Style: StyleBold, Start: 0, End: 5},
				{Style: StyleUnderline, Start: 0, End: 2},
			}},
			spans: []Span{
				{Style: StyleUnderline, Start: 0, End: 2},
				{Style: StyleBold, Start: 0, End: 5},
				{Style: StyleItalic, Start: 2, End: 4},
			},
		},
		{
			name:  "nil stays nil",
			in:    Content{Text: "abc"},
			spans: nil,
		},
		{
			name:  "length counts runes",
			in:    Content{Text: "héé", Spans: []Span{{Start: 0, End: 5}}},
			spans: []Span{{Start: 0, End: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.in.Text, got.Text)
			assert.Equal(t, tt.spans, got.Spans)
		})
	}
}

func TestContent_Clone(t *testing.T) {
	c := Content{Text: "abc", Spans: []Span{{Start: 0, End: 1}}}
	clone := c.Clone()
	clone.Spans[0].End = 3
	assert.Equal(t, 1, c.Spans[0].End)
}

func TestPartition(t *testing.T) {
	diffs := []Diff{
		BlockDeletion{BlockID: "a"},
		MediaDeletion{LocalID: "m"},
		BlockTextInsertion{BlockID: "a", Text: "x"},
		StrokeDeletion{StrokeID: "s"},
	}

	matched, rest := Partition(diffs, func(d Diff) bool { return ScopedTo(d, ScopeBlock, "a") })

	assert.Equal(t, []Diff{diffs[0], diffs[2]}, matched)
	assert.Equal(t, []Diff{diffs[1], diffs[3]}, rest)
	assert.Len(t, diffs, 4)
}

func TestDiff_Target(t *testing.T) {
	assert.Equal(t, "p", BlockInsertion{Block: Paragraph{LocalID: "p"}}.Target())
	assert.Equal(t, "", BlockUpdate{}.Target())
	assert.Equal(t, "m", MediaInsertion{Media: Media{LocalID: "m"}}.Target())
	assert.Equal(t, ScopeStroke, StrokeInsertion{StrokeID: "s"}.Scope())
	assert.Equal(t, ScopeMedia, MediaUpdateLastModified{}.Scope())
}

func TestDocument_SelectionInfoFor(t *testing.T) {
	doc := Document{
		Blocks:    []Block{Paragraph{LocalID: "a"}, InlineMedia{LocalID: "b"}},
		Selection: SelectionRange{StartBlock: 0, StartOffset: 2, EndBlock: 5, EndOffset: 0},
	}

	info := doc.SelectionInfoFor(SelectionFromSecondary)
	assert.Equal(t, "a", info.SelectionIDs.StartBlockID)
	assert.Empty(t, info.SelectionIDs.EndBlockID)
	assert.Equal(t, SelectionFromSecondary, info.From)
	assert.Equal(t, doc.Selection, info.Selection)

	assert.Equal(t, 1, doc.IndexOf("b"))
	assert.Equal(t, -1, doc.IndexOf("z"))
}

func TestParseSelectionFrom(t *testing.T) {
	for in, want := range map[string]SelectionFrom{
		"":          SelectionFromPrimary,
		"primary":   SelectionFromPrimary,
		"secondary": SelectionFromSecondary,
	} {
		got, err := ParseSelectionFrom(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		if in != "" {
			assert.Equal(t, in, got.String())
		}
	}

	_, err := ParseSelectionFrom("tertiary")
	assert.Error(t, err)
}

func TestEndOffset(t *testing.T) {
	assert.Equal(t, 4, EndOffset(Paragraph{Content: Content{Text: "naïf"}}))
	assert.Equal(t, 0, EndOffset(InlineMedia{}))
}

func TestSelectionInfo_JSON(t *testing.T) {
	info := SelectionInfo{
		Selection:    SelectionRange{StartBlock: 1, StartOffset: 2, EndBlock: 1, EndOffset: 4},
		SelectionIDs: SelectionIDs{StartBlockID: "b", EndBlockID: "b"},
		From:         SelectionFromSecondary,
	}

	raw, err := json.Marshal(info)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"selectionFrom":"secondary"`)

	var back SelectionInfo
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, info, back)
}

func TestDocument_Clone(t *testing.T) {
	alt := "a cat"
	doc := Document{
		Blocks: []Block{
			Paragraph{LocalID: "p", Content: Content{Text: "hi", Spans: []Span{{Style: StyleBold, Start: 0, End: 2}}}},
			InlineMedia{LocalID: "m", Media: Media{LocalID: "img", AltText: &alt}},
		},
		Strokes:   []Stroke{{StrokeID: "s", Points: []InkPoint{{X: 1, Y: 2}}}},
		Selection: SelectionRange{EndOffset: 1},
	}

	cp := doc.Clone()
	require.Equal(t, doc, cp)

	cp.Blocks[0].(Paragraph).Content.Spans[0].End = 1
	*cp.Blocks[1].(InlineMedia).Media.AltText = "a dog"
	cp.Strokes[0].Points[0].X = 5
	cp.Blocks[0] = Paragraph{LocalID: "q"}

	assert.Equal(t, 2, doc.Blocks[0].(Paragraph).Content.Spans[0].End)
	assert.Equal(t, "a cat", *doc.Blocks[1].(InlineMedia).Media.AltText)
	assert.Equal(t, 1.0, doc.Strokes[0].Points[0].X)
	assert.Equal(t, "p", doc.Blocks[0].ID())
}

func TestCloneMedia(t *testing.T) {
	assert.Nil(t, CloneMedia(nil))

	url := "file:///a.png"
	media := []Media{{LocalID: "a", LocalURL: &url, ImageDimensions: &Dimensions{Width: 2, Height: 3}}}
	cp := CloneMedia(media)
	require.Equal(t, media, cp)

	cp[0].ImageDimensions.Width = 9
	*cp[0].LocalURL = "file:///b.png"
	assert.Equal(t, 2, media[0].ImageDimensions.Width)
	assert.Equal(t, "file:///a.png", *media[0].LocalURL)
}
