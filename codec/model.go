package codec

import (
	"encoding/json"
	"fmt"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/model"
)

// Diff kinds as written to the "type" field.
const (
	KindBlockInsertion             = "block_insertion"
	KindBlockDeletion              = "block_deletion"
	KindBlockUpdate                = "block_update"
	KindUnorderedListInsertion     = "unordered_list_insertion"
	KindUnorderedListDeletion      = "unordered_list_deletion"
	KindRightToLeftInsertion       = "right_to_left_insertion"
	KindRightToLeftDeletion        = "right_to_left_deletion"
	KindBlockTextInsertion         = "block_text_insertion"
	KindBlockTextDeletion          = "block_text_deletion"
	KindSpanInsertion              = "span_insertion"
	KindSpanDeletion               = "span_deletion"
	KindMediaInsertion             = "media_insertion"
	KindMediaDeletion              = "media_deletion"
	KindMediaUpdateRemoteID        = "media_update_remote_id"
	KindMediaUpdateLocalURL        = "media_update_local_url"
	KindMediaUpdateMimeType        = "media_update_mime_type"
	KindMediaUpdateAltText         = "media_update_alt_text"
	KindMediaUpdateImageDimensions = "media_update_image_dimensions"
	KindMediaUpdateLastModified    = "media_update_last_modified"
	KindStrokeInsertion            = "stroke_insertion"
	KindStrokeDeletion             = "stroke_deletion"
)

// DiffKind returns the wire discriminator of d, or "" for a nil diff.
func DiffKind(d model.Diff) string {
	switch d.(type) {
	case model.BlockInsertion:
		return KindBlockInsertion
	case model.BlockDeletion:
		return KindBlockDeletion
	case model.BlockUpdate:
		return KindBlockUpdate
	case model.UnorderedListInsertion:
		return KindUnorderedListInsertion
	case model.UnorderedListDeletion:
		return KindUnorderedListDeletion
	case model.RightToLeftInsertion:
		return KindRightToLeftInsertion
	case model.RightToLeftDeletion:
		return KindRightToLeftDeletion
	case model.BlockTextInsertion:
		return KindBlockTextInsertion
	case model.BlockTextDeletion:
		return KindBlockTextDeletion
	case model.SpanInsertion:
		return KindSpanInsertion
	case model.SpanDeletion:
		return KindSpanDeletion
	case model.MediaInsertion:
		return KindMediaInsertion
	case model.MediaDeletion:
		return KindMediaDeletion
	case model.MediaUpdateRemoteID:
		return KindMediaUpdateRemoteID
	case model.MediaUpdateLocalURL:
		return KindMediaUpdateLocalURL
	case model.MediaUpdateMimeType:
		return KindMediaUpdateMimeType
	case model.MediaUpdateAltText:
		return KindMediaUpdateAltText
	case model.MediaUpdateImageDimensions:
		return KindMediaUpdateImageDimensions
	case model.MediaUpdateLastModified:
		return KindMediaUpdateLastModified
	case model.StrokeInsertion:
		return KindStrokeInsertion
	case model.StrokeDeletion:
		return KindStrokeDeletion
	default:
		return ""
	}
}

// RegisterModel registers a codec for every block and diff variant.
func RegisterModel(r *Registry) {
	r.Register(valueCodec[model.Paragraph]{kind: string(model.KindParagraph)})
	r.Register(valueCodec[model.InlineMedia]{kind: string(model.KindInlineMedia)})

	r.Register(blockDiffCodec{kind: KindBlockInsertion, reg: r})
	r.Register(blockDiffCodec{kind: KindBlockUpdate, reg: r})
	r.Register(valueCodec[model.BlockDeletion]{kind: KindBlockDeletion})
	r.Register(valueCodec[model.UnorderedListInsertion]{kind: KindUnorderedListInsertion})
	r.Register(valueCodec[model.UnorderedListDeletion]{kind: KindUnorderedListDeletion})
	r.Register(valueCodec[model.RightToLeftInsertion]{kind: KindRightToLeftInsertion})
	r.Register(valueCodec[model.RightToLeftDeletion]{kind: KindRightToLeftDeletion})
	r.Register(valueCodec[model.BlockTextInsertion]{kind: KindBlockTextInsertion})
	r.Register(valueCodec[model.BlockTextDeletion]{kind: KindBlockTextDeletion})
	r.Register(valueCodec[model.SpanInsertion]{kind: KindSpanInsertion})
	r.Register(valueCodec[model.SpanDeletion]{kind: KindSpanDeletion})
	r.Register(valueCodec[model.MediaInsertion]{kind: KindMediaInsertion})
	r.Register(valueCodec[model.MediaDeletion]{kind: KindMediaDeletion})
	r.Register(valueCodec[model.MediaUpdateRemoteID]{kind: KindMediaUpdateRemoteID})
	r.Register(valueCodec[model.MediaUpdateLocalURL]{kind: KindMediaUpdateLocalURL})
	r.Register(valueCodec[model.MediaUpdateMimeType]{kind: KindMediaUpdateMimeType})
	r.Register(valueCodec[model.MediaUpdateAltText]{kind: KindMediaUpdateAltText})
	r.Register(valueCodec[model.MediaUpdateImageDimensions]{kind: KindMediaUpdateImageDimensions})
	r.Register(valueCodec[model.MediaUpdateLastModified]{kind: KindMediaUpdateLastModified})
	r.Register(valueCodec[model.StrokeInsertion]{kind: KindStrokeInsertion})
	r.Register(valueCodec[model.StrokeDeletion]{kind: KindStrokeDeletion})
}

// valueCodec handles variants whose fields marshal directly.
type valueCodec[T any] struct{ kind string }

func (c valueCodec[T]) Kind() string { return c.kind }

func (c valueCodec[T]) Encode(v any) (json.RawMessage, error) {
	t, ok := v.(T)
	if !ok {
		return nil, fmt.Errorf("%s codec cannot encode %T", c.kind, v)
	}
	return json.Marshal(t)
}

func (c valueCodec[T]) Decode(raw json.RawMessage) (any, error) {
	var t T
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return t, nil
}

// blockDiffCodec handles BlockInsertion and BlockUpdate, whose block field
// is itself a typed value.
type blockDiffCodec struct {
	kind string
	reg  *Registry
}

type blockDiffWire struct {
	Block json.RawMessage `json:"block"`
	Index int             `json:"index,omitempty"`
}

func (c blockDiffCodec) Kind() string { return c.kind }

func (c blockDiffCodec) Encode(v any) (json.RawMessage, error) {
	var wire blockDiffWire
	var block model.Block
	switch d := v.(type) {
	case model.BlockInsertion:
		block, wire.Index = d.Block, d.Index
	case model.BlockUpdate:
		block = d.Block
	default:
		return nil, fmt.Errorf("%s codec cannot encode %T", c.kind, v)
	}
	raw, err := c.reg.EncodeBlock(block)
	if err != nil {
		return nil, err
	}
	wire.Block = raw
	return json.Marshal(wire)
}

func (c blockDiffCodec) Decode(raw json.RawMessage) (any, error) {
	var wire blockDiffWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	block, err := c.reg.DecodeBlock(wire.Block)
	if err != nil {
		return nil, err
	}
	if c.kind == KindBlockUpdate {
		return model.BlockUpdate{Block: block}, nil
	}
	return model.BlockInsertion{Block: block, Index: wire.Index}, nil
}

// EncodeDiff writes d as a type-discriminated JSON object.
func (r *Registry) EncodeDiff(d model.Diff) (json.RawMessage, error) {
	kind := DiffKind(d)
	if kind == "" {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpEncode, fmt.Errorf("unsupported diff %T", d))
	}
	return r.encode(kind, d)
}

// DecodeDiff reads one type-discriminated diff.
func (r *Registry) DecodeDiff(raw json.RawMessage) (model.Diff, error) {
	v, err := r.decode(raw)
	if err != nil {
		return nil, err
	}
	d, ok := v.(model.Diff)
	if !ok {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpDecode, fmt.Errorf("%T is not a diff", v))
	}
	return d, nil
}

// EncodeBlock writes b as a type-discriminated JSON object.
func (r *Registry) EncodeBlock(b model.Block) (json.RawMessage, error) {
	if b == nil {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpEncode, fmt.Errorf("nil block"))
	}
	return r.encode(string(b.Kind()), b)
}

// DecodeBlock reads one type-discriminated block.
func (r *Registry) DecodeBlock(raw json.RawMessage) (model.Block, error) {
	v, err := r.decode(raw)
	if err != nil {
		return nil, err
	}
	b, ok := v.(model.Block)
	if !ok {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpDecode, fmt.Errorf("%T is not a block", v))
	}
	return b, nil
}

// EncodeDiffs writes a diff list as a JSON array.
func (r *Registry) EncodeDiffs(diffs []model.Diff) (json.RawMessage, error) {
	items := make([]json.RawMessage, 0, len(diffs))
	for i, d := range diffs {
		raw, err := r.EncodeDiff(d)
		if err != nil {
			return nil, mergeErrors.E(mergeErrors.OpEncode, mergeErrors.Component("codec"), mergeErrors.ErrCodeCodecFailure, mergeErrors.KindInvalid, err, fmt.Sprintf("diff %d", i))
		}
		items = append(items, raw)
	}
	return json.Marshal(items)
}

// DecodeDiffs reads a JSON array of diffs. A null array decodes to nil.
func (r *Registry) DecodeDiffs(raw json.RawMessage) ([]model.Diff, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpDecode, err)
	}
	var diffs []model.Diff
	for i, item := range items {
		d, err := r.DecodeDiff(item)
		if err != nil {
			return nil, mergeErrors.E(mergeErrors.OpDecode, mergeErrors.Component("codec"), mergeErrors.ErrCodeCodecFailure, mergeErrors.KindInvalid, err, fmt.Sprintf("diff %d", i))
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}

func (r *Registry) encode(kind string, v any) (json.RawMessage, error) {
	c, ok := r.Get(kind)
	if !ok {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpEncode, fmt.Errorf("no codec for %q", kind))
	}
	body, err := c.Encode(v)
	if err != nil {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpEncode, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpEncode, err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	fields["type"], _ = json.Marshal(kind)
	return json.Marshal(fields)
}

func (r *Registry) decode(raw json.RawMessage) (any, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpDecode, err)
	}
	if head.Type == "" {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpDecode, fmt.Errorf("missing type"))
	}
	c, ok := r.Get(head.Type)
	if !ok {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpDecode, fmt.Errorf("unknown type %q", head.Type))
	}
	v, err := c.Decode(raw)
	if err != nil {
		return nil, mergeErrors.NewCodecError(mergeErrors.OpDecode, fmt.Errorf("%s: %w", head.Type, err))
	}
	return v, nil
}

// EncodeDiff encodes d with DefaultRegistry.
func EncodeDiff(d model.Diff) (json.RawMessage, error) { return DefaultRegistry.EncodeDiff(d) }

// DecodeDiff decodes a diff with DefaultRegistry.
func DecodeDiff(raw json.RawMessage) (model.Diff, error) { return DefaultRegistry.DecodeDiff(raw) }

// EncodeBlock encodes b with DefaultRegistry.
func EncodeBlock(b model.Block) (json.RawMessage, error) { return DefaultRegistry.EncodeBlock(b) }

// DecodeBlock decodes a block with DefaultRegistry.
func DecodeBlock(raw json.RawMessage) (model.Block, error) { return DefaultRegistry.DecodeBlock(raw) }

// EncodeDiffs encodes diffs with DefaultRegistry.
func EncodeDiffs(diffs []model.Diff) (json.RawMessage, error) {
	return DefaultRegistry.EncodeDiffs(diffs)
}

// DecodeDiffs decodes a diff array with DefaultRegistry.
func DecodeDiffs(raw json.RawMessage) ([]model.Diff, error) {
	return DefaultRegistry.DecodeDiffs(raw)
}
