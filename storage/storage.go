// Package storage defines where notes and their merge history live. The
// sqlite and postgres subpackages implement NoteStore.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c0deZ3R0/go-note-merge/codec"
	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/merge"
	"github.com/c0deZ3R0/go-note-merge/model"
)

var (
	ErrStoreClosed      = errors.New("store is closed")
	ErrNoteNotFound     = errors.New("note not found")
	ErrRevisionConflict = errors.New("note revision changed concurrently")
)

// DefaultListLimit is what ListRecords uses for a non-positive limit.
const DefaultListLimit = 50

// Note is the stored state of one note.
type Note struct {
	ID       string
	Document model.Document
	Media    []model.Media
	// Revision counts saves. A note that was never saved has revision 0.
	Revision  int64
	UpdatedAt time.Time
}

// MergeRecord is the audit entry of one reconcile.
type MergeRecord struct {
	ID             string
	NoteID         string
	Timestamp      time.Time
	Duration       time.Duration
	PrimaryDiffs   []model.Diff
	SecondaryDiffs []model.Diff
	Stats          merge.Stats
	SelectionFrom  model.SelectionFrom
	BaseRevision   int64
	ResultRevision int64
}

// NoteStore persists notes and merge records. Implementations are safe for
// concurrent use.
type NoteStore interface {
	// SaveNote inserts or updates note. note.Revision must equal the stored
	// revision (0 for a new note), otherwise ErrRevisionConflict is
	// returned. On success note.Revision is incremented and UpdatedAt set.
	SaveNote(ctx context.Context, note *Note) error
	// LoadNote returns the note with the given id, or a not-found error.
	LoadNote(ctx context.Context, id string) (*Note, error)
	// SaveRecord appends a merge record, assigning an ID if it has none.
	SaveRecord(ctx context.Context, record *MergeRecord) error
	// ListRecords returns up to limit records of a note, newest first.
	ListRecords(ctx context.Context, noteID string, limit int) ([]MergeRecord, error)
	Close() error
}

// Fail wraps a driver error as a retryable storage failure.
func Fail(op, component string, err error) error {
	if err == nil {
		return nil
	}
	return &mergeErrors.MergeError{
		Op:        mergeErrors.Operation(op),
		Component: component,
		Kind:      mergeErrors.KindInternal,
		Code:      mergeErrors.ErrCodeStorageFailure,
		Retryable: true,
		Err:       err,
	}
}

// NotFound reports a missing note.
func NotFound(op, component, id string) error {
	e := mergeErrors.NewNotFoundError(mergeErrors.Operation(op), component, ErrNoteNotFound)
	e.Metadata = map[string]interface{}{"note_id": id}
	return e
}

// Conflict reports a stale revision.
func Conflict(op, component, id string, expected, actual int64) error {
	e := mergeErrors.NewConflictError(mergeErrors.Operation(op), ErrRevisionConflict)
	e.Component = component
	e.Retryable = true
	e.Metadata = map[string]interface{}{"note_id": id, "expected": expected, "actual": actual}
	return e
}

// ValidateNote rejects notes a store cannot key.
func ValidateNote(note *Note) error {
	if note == nil {
		return mergeErrors.NewValidationError(mergeErrors.OpStore, errors.New("nil note"))
	}
	if note.ID == "" {
		return mergeErrors.NewValidationError(mergeErrors.OpStore, errors.New("note id is required"))
	}
	return nil
}

// PrepareRecord validates record and assigns its ID and Timestamp if unset.
func PrepareRecord(record *MergeRecord, now time.Time) error {
	if record == nil {
		return mergeErrors.NewValidationError(mergeErrors.OpStore, errors.New("nil merge record"))
	}
	if record.NoteID == "" {
		return mergeErrors.NewValidationError(mergeErrors.OpStore, errors.New("merge record note id is required"))
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = now
	}
	return nil
}

// Limit returns limit, or DefaultListLimit when limit is not positive.
func Limit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// NoteBody is the serialized form of a note's document and media.
type NoteBody struct {
	Document []byte
	Media    []byte
}

// EncodeNote serializes the document and media of note.
func EncodeNote(note *Note) (NoteBody, error) {
	doc, err := codec.EncodeDocument(note.Document)
	if err != nil {
		return NoteBody{}, err
	}
	media := note.Media
	if media == nil {
		media = []model.Media{}
	}
	raw, err := json.Marshal(media)
	if err != nil {
		return NoteBody{}, mergeErrors.NewCodecError(mergeErrors.OpEncode, err)
	}
	return NoteBody{Document: doc, Media: raw}, nil
}

// DecodeNote fills the document and media of note from body.
func DecodeNote(note *Note, body NoteBody) error {
	doc, err := codec.DecodeDocument(body.Document)
	if err != nil {
		return err
	}
	note.Document = doc
	note.Media = nil
	if len(body.Media) > 0 {
		if err := json.Unmarshal(body.Media, &note.Media); err != nil {
			return mergeErrors.NewCodecError(mergeErrors.OpDecode, err)
		}
		if len(note.Media) == 0 {
			note.Media = nil
		}
	}
	return nil
}

// RecordBody is the serialized form of a record's diffs and stats.
type RecordBody struct {
	Primary   []byte
	Secondary []byte
	Stats     []byte
}

// EncodeRecord serializes the diff lists and stats of record.
func EncodeRecord(record *MergeRecord) (RecordBody, error) {
	primary, err := codec.EncodeDiffs(record.PrimaryDiffs)
	if err != nil {
		return RecordBody{}, err
	}
	secondary, err := codec.EncodeDiffs(record.SecondaryDiffs)
	if err != nil {
		return RecordBody{}, err
	}
	stats, err := json.Marshal(record.Stats)
	if err != nil {
		return RecordBody{}, mergeErrors.NewCodecError(mergeErrors.OpEncode, err)
	}
	return RecordBody{Primary: primary, Secondary: secondary, Stats: stats}, nil
}

// DecodeRecord fills the diff lists and stats of record from body.
func DecodeRecord(record *MergeRecord, body RecordBody) error {
	var err error
	if record.PrimaryDiffs, err = codec.DecodeDiffs(body.Primary); err != nil {
		return err
	}
	if record.SecondaryDiffs, err = codec.DecodeDiffs(body.Secondary); err != nil {
		return err
	}
	if err := json.Unmarshal(body.Stats, &record.Stats); err != nil {
		return mergeErrors.NewCodecError(mergeErrors.OpDecode, fmt.Errorf("stats: %w", err))
	}
	return nil
}
