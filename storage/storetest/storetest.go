// Package storetest runs the behaviour every storage.NoteStore must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/merge"
	"github.com/c0deZ3R0/go-note-merge/model"
	"github.com/c0deZ3R0/go-note-merge/storage"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) storage.NoteStore

// SampleNote returns a note with one of every block kind, a stroke and media.
func SampleNote(id string) *storage.Note {
	return &storage.Note{
		ID: id,
		Document: model.Document{
			Blocks: []model.Block{
				model.Paragraph{
					LocalID:       "p1",
					Content:       model.Content{Text: "héllo world", Spans: []model.Span{{Style: model.StyleBold, Start: 0, End: 5}}},
					UnorderedList: true,
				},
				model.InlineMedia{LocalID: "m1", Media: model.Media{LocalID: "media-1", MimeType: "image/png"}},
			},
			Strokes:   []model.Stroke{{StrokeID: "s1", Points: []model.InkPoint{{X: 1, Y: 2, Pressure: 0.5}}}},
			Selection: model.SelectionRange{StartBlock: 0, StartOffset: 1, EndBlock: 0, EndOffset: 3},
		},
		Media: []model.Media{{LocalID: "media-1", MimeType: "image/png"}},
	}
}

// Run exercises newStore against the storage.NoteStore contract.
func Run(t *testing.T, newStore Factory) {
	open := func(t *testing.T) storage.NoteStore {
		t.Helper()
		s := newStore(t)
		t.Cleanup(func() { s.Close() })
		return s
	}

	t.Run("save and load", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		note := SampleNote("note-1")
		require.NoError(t, s.SaveNote(ctx, note))
		assert.Equal(t, int64(1), note.Revision)
		assert.False(t, note.UpdatedAt.IsZero())

		loaded, err := s.LoadNote(ctx, "note-1")
		require.NoError(t, err)
		assert.Equal(t, note.Document, loaded.Document)
		assert.Equal(t, note.Media, loaded.Media)
		assert.Equal(t, int64(1), loaded.Revision)
		assert.WithinDuration(t, note.UpdatedAt, loaded.UpdatedAt, time.Millisecond)
	})

	t.Run("update bumps revision", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		note := SampleNote("note-1")
		require.NoError(t, s.SaveNote(ctx, note))

		note.Media = nil
		note.UpdatedAt = time.Time{}
		require.NoError(t, s.SaveNote(ctx, note))
		assert.Equal(t, int64(2), note.Revision)

		loaded, err := s.LoadNote(ctx, "note-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), loaded.Revision)
		assert.Nil(t, loaded.Media)
	})

	t.Run("stale revision conflicts", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.SaveNote(ctx, SampleNote("note-1")))

		stale := SampleNote("note-1")
		err := s.SaveNote(ctx, stale)
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrRevisionConflict))
		assert.Equal(t, mergeErrors.KindConflict, mergeErrors.KindOf(err))
		assert.True(t, mergeErrors.IsRetryable(err))
		assert.Equal(t, int64(0), stale.Revision)
	})

	t.Run("new note with revision conflicts", func(t *testing.T) {
		s := open(t)
		note := SampleNote("note-1")
		note.Revision = 3
		err := s.SaveNote(context.Background(), note)
		assert.ErrorIs(t, err, storage.ErrRevisionConflict)
	})

	t.Run("missing note", func(t *testing.T) {
		s := open(t)
		_, err := s.LoadNote(context.Background(), "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrNoteNotFound)
		assert.True(t, mergeErrors.IsNotFound(err))
	})

	t.Run("invalid note", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		assert.Equal(t, mergeErrors.KindInvalid, mergeErrors.KindOf(s.SaveNote(ctx, nil)))
		assert.Equal(t, mergeErrors.KindInvalid, mergeErrors.KindOf(s.SaveNote(ctx, &storage.Note{})))
	})

	t.Run("records newest first", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			rec := &storage.MergeRecord{
				NoteID:         "note-1",
				Duration:       time.Duration(i+1) * time.Millisecond,
				PrimaryDiffs:   []model.Diff{model.BlockTextInsertion{BlockID: "p1", Index: i, Text: fmt.Sprint(i)}},
				SecondaryDiffs: []model.Diff{model.BlockDeletion{BlockID: "m1"}},
				Stats:          merge.Stats{Inserted: i, PrimaryStrategy: 1},
				SelectionFrom:  model.SelectionFromSecondary,
				BaseRevision:   int64(i),
				ResultRevision: int64(i + 1),
			}
			require.NoError(t, s.SaveRecord(ctx, rec))
			assert.NotEmpty(t, rec.ID)
			assert.False(t, rec.Timestamp.IsZero())
		}
		require.NoError(t, s.SaveRecord(ctx, &storage.MergeRecord{NoteID: "other"}))

		records, err := s.ListRecords(ctx, "note-1", 0)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, int64(3), records[0].ResultRevision)
		assert.Equal(t, int64(1), records[2].ResultRevision)

		newest := records[0]
		assert.Equal(t, "note-1", newest.NoteID)
		assert.Equal(t, 3*time.Millisecond, newest.Duration)
		assert.Equal(t, []model.Diff{model.BlockTextInsertion{BlockID: "p1", Index: 2, Text: "2"}}, newest.PrimaryDiffs)
		assert.Equal(t, []model.Diff{model.BlockDeletion{BlockID: "m1"}}, newest.SecondaryDiffs)
		assert.Equal(t, merge.Stats{Inserted: 2, PrimaryStrategy: 1}, newest.Stats)
		assert.Equal(t, model.SelectionFromSecondary, newest.SelectionFrom)

		limited, err := s.ListRecords(ctx, "note-1", 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)

		none, err := s.ListRecords(ctx, "missing", 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("record requires note id", func(t *testing.T) {
		s := open(t)
		err := s.SaveRecord(context.Background(), &storage.MergeRecord{})
		assert.Equal(t, mergeErrors.KindInvalid, mergeErrors.KindOf(err))
	})

	t.Run("concurrent saves of one revision", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.SaveNote(ctx, SampleNote("note-1")))

		const writers = 8
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				note := SampleNote("note-1")
				note.Revision = 1
				errs[i] = s.SaveNote(ctx, note)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded)

		loaded, err := s.LoadNote(ctx, "note-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), loaded.Revision)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, s.SaveNote(ctx, SampleNote("note-1")), context.Canceled)
		_, err := s.LoadNote(ctx, "note-1")
		assert.ErrorIs(t, err, context.Canceled)
		_, err = s.ListRecords(ctx, "note-1", 1)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed store", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())

		ctx := context.Background()
		assert.ErrorIs(t, s.SaveNote(ctx, SampleNote("note-1")), storage.ErrStoreClosed)
		_, err := s.LoadNote(ctx, "note-1")
		assert.ErrorIs(t, err, storage.ErrStoreClosed)
		assert.ErrorIs(t, s.SaveRecord(ctx, &storage.MergeRecord{NoteID: "n"}), storage.ErrStoreClosed)
		_, err = s.ListRecords(ctx, "note-1", 1)
		assert.ErrorIs(t, err, storage.ErrStoreClosed)
	})
}
