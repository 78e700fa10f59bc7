package codec

import (
	"encoding/json"
	"io"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/merge"
	"github.com/c0deZ3R0/go-note-merge/model"
)

// MergeRequest is the input of a file merge: a base note and the diff lists
// of both edit sessions.
type MergeRequest struct {
	Document  Document            `json:"document"`
	Media     []model.Media       `json:"media,omitempty"`
	Selection model.SelectionInfo `json:"selection"`
	Primary   Diffs               `json:"primary"`
	Secondary Diffs               `json:"secondary"`
}

// MergeResponse is the output of a file merge.
type MergeResponse struct {
	Document  Document             `json:"document"`
	Media     []model.Media        `json:"media,omitempty"`
	Selection model.SelectionRange `json:"selection"`
	Stats     merge.Stats          `json:"stats"`
}

// ApplyRequest is the input of a merge against a stored note. Without a
// selection the note's stored selection is carried through.
type ApplyRequest struct {
	Selection *model.SelectionInfo `json:"selection,omitempty"`
	Primary   Diffs                `json:"primary"`
	Secondary Diffs                `json:"secondary"`
}

// NoteFile is a stored note as imported and shown by the CLI.
type NoteFile struct {
	ID       string        `json:"id,omitempty"`
	Revision int64         `json:"revision,omitempty"`
	Document Document      `json:"document"`
	Media    []model.Media `json:"media,omitempty"`
}

// ReadRequest decodes a MergeRequest. Unknown top-level fields are rejected.
func ReadRequest(r io.Reader) (MergeRequest, error) {
	var req MergeRequest
	if err := ReadJSON(r, &req); err != nil {
		return MergeRequest{}, err
	}
	return req, nil
}

// ReadJSON decodes one JSON value into v, rejecting unknown fields.
func ReadJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if mergeErrors.KindOf(err) != mergeErrors.KindUnknown {
			return err
		}
		return mergeErrors.NewCodecError(mergeErrors.OpDecode, err)
	}
	return nil
}

// WriteResponse encodes resp as indented JSON.
func WriteResponse(w io.Writer, resp MergeResponse) error {
	return WriteJSON(w, resp)
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		if mergeErrors.KindOf(err) != mergeErrors.KindUnknown {
			return err
		}
		return mergeErrors.NewCodecError(mergeErrors.OpEncode, err)
	}
	return nil
}
