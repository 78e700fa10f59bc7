package codec

import (
	"encoding/json"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/model"
)

// Diffs is a diff list that marshals through DefaultRegistry.
type Diffs []model.Diff

func (d Diffs) MarshalJSON() ([]byte, error) {
	return EncodeDiffs(d)
}

func (d *Diffs) UnmarshalJSON(b []byte) error {
	diffs, err := DecodeDiffs(b)
	if err != nil {
		return err
	}
	*d = diffs
	return nil
}

// Document is a model.Document that marshals its blocks through
// DefaultRegistry.
type Document model.Document

type documentWire struct {
	Blocks    []json.RawMessage    `json:"blocks"`
	Strokes   []model.Stroke       `json:"strokes,omitempty"`
	Selection model.SelectionRange `json:"selection"`
}

func (d Document) MarshalJSON() ([]byte, error) {
	wire := documentWire{
		Blocks:    make([]json.RawMessage, 0, len(d.Blocks)),
		Strokes:   d.Strokes,
		Selection: d.Selection,
	}
	for _, b := range d.Blocks {
		raw, err := EncodeBlock(b)
		if err != nil {
			return nil, err
		}
		wire.Blocks = append(wire.Blocks, raw)
	}
	return json.Marshal(wire)
}

func (d *Document) UnmarshalJSON(b []byte) error {
	var wire documentWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return mergeErrors.NewCodecError(mergeErrors.OpDecode, err)
	}
	doc := Document{Strokes: wire.Strokes, Selection: wire.Selection}
	for _, raw := range wire.Blocks {
		block, err := DecodeBlock(raw)
		if err != nil {
			return err
		}
		doc.Blocks = append(doc.Blocks, block)
	}
	*d = doc
	return nil
}

// Model returns d as a model.Document.
func (d Document) Model() model.Document { return model.Document(d) }

// EncodeDocument marshals doc.
func EncodeDocument(doc model.Document) ([]byte, error) {
	return json.Marshal(Document(doc))
}

// DecodeDocument unmarshals a document written by EncodeDocument.
func DecodeDocument(b []byte) (model.Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return model.Document{}, err
	}
	return doc.Model(), nil
}
