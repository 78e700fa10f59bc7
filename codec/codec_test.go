package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/merge"
	"github.com/c0deZ3R0/go-note-merge/model"
)

func strp(s string) *string { return &s }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Kinds())

	r.Register(valueCodec[model.BlockDeletion]{kind: KindBlockDeletion})
	r.Register(valueCodec[model.StrokeDeletion]{kind: KindStrokeDeletion})

	c, ok := r.Get(KindBlockDeletion)
	require.True(t, ok)
	assert.Equal(t, KindBlockDeletion, c.Kind())

	_, ok = r.Get("nonexistent")
	assert.False(t, ok)

	assert.Equal(t, []string{KindBlockDeletion, KindStrokeDeletion}, r.Kinds())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			r.Register(valueCodec[model.BlockDeletion]{kind: string(rune('a' + id))})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = DefaultRegistry.Get(KindSpanInsertion)
		}()
	}
	wg.Wait()
	assert.Len(t, r.Kinds(), 50)
}

func TestDefaultRegistry_CoversModel(t *testing.T) {
	kinds := DefaultRegistry.Kinds()
	assert.Len(t, kinds, 23)
	assert.Contains(t, kinds, string(model.KindParagraph))
	assert.Contains(t, kinds, string(model.KindInlineMedia))
	assert.Contains(t, kinds, KindBlockTextInsertion)
}

func TestDiff_RoundTrip(t *testing.T) {
	para := model.Paragraph{
		LocalID:       "p1",
		Content:       model.Content{Text: "hi", Spans: []model.Span{{Style: model.StyleBold, Start: 0, End: 2}}},
		UnorderedList: true,
	}
	media := model.Media{LocalID: "m1", MimeType: "image/png", AltText: strp("cat")}

	diffs := []model.Diff{
		model.BlockInsertion{Block: para, Index: 2},
		model.BlockDeletion{BlockID: "p1"},
		model.BlockUpdate{Block: model.InlineMedia{LocalID: "im", Media: media}},
		model.UnorderedListInsertion{BlockID: "p1"},
		model.UnorderedListDeletion{BlockID: "p1"},
		model.RightToLeftInsertion{BlockID: "p1"},
		model.RightToLeftDeletion{BlockID: "p1"},
		model.BlockTextInsertion{BlockID: "p1", Text: "héllo", Index: 3},
		model.BlockTextDeletion{BlockID: "p1", Start: 1, End: 4},
		model.SpanInsertion{BlockID: "p1", Span: model.Span{Style: model.StyleItalic, Start: 1, End: 2, Flag: 33}},
		model.SpanDeletion{BlockID: "p1", Span: model.Span{Style: model.StyleUnderline, Start: 0, End: 1}},
		model.MediaInsertion{Index: 0, Media: media},
		model.MediaDeletion{LocalID: "m1"},
		model.MediaUpdateRemoteID{LocalID: "m1", RemoteID: strp("r1")},
		model.MediaUpdateLocalURL{LocalID: "m1", LocalURL: nil},
		model.MediaUpdateMimeType{LocalID: "m1", MimeType: "image/gif"},
		model.MediaUpdateAltText{LocalID: "m1", AltText: strp("dog")},
		model.MediaUpdateImageDimensions{LocalID: "m1", ImageDimensions: &model.Dimensions{Width: 3, Height: 4}},
		model.MediaUpdateLastModified{LocalID: "m1", LastModified: 1700000000},
		model.StrokeInsertion{StrokeID: "s1", Stroke: model.Stroke{StrokeID: "s1", Points: []model.InkPoint{{X: 1, Y: 2, Pressure: 0.3}}}, Index: 1},
		model.StrokeDeletion{StrokeID: "s1"},
	}

	raw, err := EncodeDiffs(diffs)
	require.NoError(t, err)

	back, err := DecodeDiffs(raw)
	require.NoError(t, err)
	assert.Equal(t, diffs, back)
}

func TestEncodeDiff_Shape(t *testing.T) {
	raw, err := EncodeDiff(model.BlockTextInsertion{BlockID: "b", Text: " black", Index: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"block_text_insertion","blockId":"b","text":" black","index":3}`, string(raw))

	raw, err = EncodeDiff(model.BlockInsertion{Block: model.Paragraph{LocalID: "p"}, Index: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"block_insertion","index":1,"block":{"type":"paragraph","localId":"p","content":{"text":""}}}`, string(raw))
}

func TestDecodeDiff_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unknown type", raw: `{"type":"teleport"}`},
		{name: "missing type", raw: `{"blockId":"b"}`},
		{name: "not an object", raw: `[1,2]`},
		{name: "bad field", raw: `{"type":"block_text_insertion","index":"three"}`},
		{name: "block is not a diff", raw: `{"type":"paragraph","localId":"p"}`},
		{name: "block insertion without block", raw: `{"type":"block_insertion","index":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDiff(json.RawMessage(tt.raw))
			require.Error(t, err)
			var me *mergeErrors.MergeError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, mergeErrors.ErrCodeCodecFailure, me.Code)
			assert.Equal(t, mergeErrors.KindInvalid, mergeErrors.KindOf(err))
		})
	}
}

func TestEncodeDiff_Errors(t *testing.T) {
	_, err := EncodeDiff(nil)
	assert.Error(t, err)

	_, err = EncodeDiff(model.BlockUpdate{})
	assert.Error(t, err)

	_, err = EncodeDiffs([]model.Diff{model.BlockDeletion{BlockID: "a"}, nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diff 1")
}

func TestDecodeDiffs_Null(t *testing.T) {
	diffs, err := DecodeDiffs(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, diffs)
}

func TestDocument_RoundTrip(t *testing.T) {
	doc := model.Document{
		Blocks: []model.Block{
			model.Paragraph{LocalID: "a", Content: model.Content{Text: "hello"}, RightToLeft: true},
			model.InlineMedia{LocalID: "b", Media: model.Media{LocalID: "m", MimeType: "image/png"}},
		},
		Strokes:   []model.Stroke{{StrokeID: "s", Points: []model.InkPoint{{X: 1, Y: 1}}}},
		Selection: model.SelectionRange{StartBlock: 0, StartOffset: 1, EndBlock: 0, EndOffset: 3},
	}

	raw, err := EncodeDocument(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"inline_media"`)

	back, err := DecodeDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestDecodeDocument_BadBlock(t *testing.T) {
	_, err := DecodeDocument([]byte(`{"blocks":[{"type":"table"}]}`))
	assert.Equal(t, mergeErrors.KindInvalid, mergeErrors.KindOf(err))
}

func TestMergeRequest_RoundTrip(t *testing.T) {
	in := `{
		"document": {"blocks": [{"type": "paragraph", "localId": "b", "content": {"text": "the cat"}}]},
		"selection": {"selection": {"startBlock": 0, "startOffset": 7, "endBlock": 0, "endOffset": 7},
		              "selectionIds": {"startBlockId": "b", "endBlockId": "b"},
		              "selectionFrom": "secondary"},
		"primary": [{"type": "block_text_insertion", "blockId": "b", "text": " black", "index": 3}],
		"secondary": []
	}`

	req, err := ReadRequest(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, model.SelectionFromSecondary, req.Selection.From)
	require.Len(t, req.Primary, 1)
	assert.Empty(t, req.Secondary)

	res := merge.MergeDocument(req.Document.Model(), req.Selection, req.Primary, req.Secondary)

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, MergeResponse{
		Document:  Document(res.Document),
		Selection: res.Selection,
		Stats:     res.Stats,
	}))

	var out struct {
		Document struct {
			Blocks []struct {
				Content model.Content `json:"content"`
			} `json:"blocks"`
		} `json:"document"`
		Selection model.SelectionRange `json:"selection"`
		Stats     merge.Stats          `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "the black cat", out.Document.Blocks[0].Content.Text)
	assert.Equal(t, 12, out.Selection.EndOffset)
	assert.Equal(t, 1, out.Stats.PrimaryStrategy)
}

func TestReadRequest_Errors(t *testing.T) {
	_, err := ReadRequest(strings.NewReader(`{"documnet": {}}`))
	assert.Equal(t, mergeErrors.KindInvalid, mergeErrors.KindOf(err))

	_, err = ReadRequest(strings.NewReader(`{"primary": [{"type": "nope"}]}`))
	assert.Equal(t, mergeErrors.KindInvalid, mergeErrors.KindOf(err))
}
