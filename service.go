// Package notemerge reconciles stored notes with the diffs of two concurrent
// edit sessions. A Service loads the base note from a storage.NoteStore, runs
// the merge engine, saves the merged note and appends an audit record.
package notemerge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/logging"
	"github.com/c0deZ3R0/go-note-merge/merge"
	"github.com/c0deZ3R0/go-note-merge/model"
	"github.com/c0deZ3R0/go-note-merge/storage"
)

const component = "notemerge"

// ErrServiceClosed is returned by every method after Close.
var ErrServiceClosed = errors.New("service is closed")

// ReconcileRequest names a stored note and the diff lists to merge into it.
type ReconcileRequest struct {
	NoteID string
	// Selection is the cursor to carry through the merge. When nil the
	// note's stored selection is used, owned by From.
	Selection *model.SelectionInfo
	From      model.SelectionFrom
	Primary   []model.Diff
	Secondary []model.Diff
}

// ReconcileResult is the merged note and the record written for it.
type ReconcileResult struct {
	NoteID       string
	Document     model.Document
	Media        []model.Media
	Selection    model.SelectionRange
	Stats        merge.Stats
	BaseRevision int64
	Revision     int64
	RecordID     string
	Attempts     int
	StartTime    time.Time
	Duration     time.Duration
}

// Service reconciles notes held in a NoteStore. It is safe for concurrent use.
type Service struct {
	store        storage.NoteStore
	logger       *logging.Logger
	hooks        merge.Hooks
	merger       *merge.Merger
	now          func() time.Time
	retry        *RetryConfig
	historyLimit int

	mu          sync.RWMutex
	subscribers []func(*ReconcileResult)
	closed      bool
}

// NewService constructs a Service. WithStore is required.
func NewService(opts ...Option) (*Service, error) {
	svc := &Service{
		now:          time.Now,
		retry:        DefaultRetryConfig(),
		historyLimit: storage.DefaultListLimit,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, optionError(err)
		}
	}
	if svc.store == nil {
		return nil, optionError(errors.New("store is required (use WithStore(...))"))
	}
	if svc.logger == nil {
		svc.logger = logging.Default()
	}
	svc.merger = merge.New(merge.WithLogger(svc.logger), merge.WithHooks(svc.hooks))
	svc.logger = svc.logger.WithComponent(logging.Component(component))
	return svc, nil
}

func (s *Service) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrServiceClosed
	}
	return nil
}

// CreateNote stores a new note at revision 1. It fails with a conflict if
// the id is taken.
func (s *Service) CreateNote(ctx context.Context, id string, doc model.Document, media []model.Media) (*storage.Note, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	note := &storage.Note{ID: id, Document: doc, Media: media, UpdatedAt: s.now()}
	if err := s.store.SaveNote(ctx, note); err != nil {
		return nil, err
	}
	s.logger.Info("note created", slog.String("note_id", id))
	return note, nil
}

// Note returns the stored note.
func (s *Service) Note(ctx context.Context, id string) (*storage.Note, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.store.LoadNote(ctx, id)
}

// History returns up to limit merge records of a note, newest first. A
// non-positive limit uses the configured history limit.
func (s *Service) History(ctx context.Context, noteID string, limit int) ([]storage.MergeRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.store.ListRecords(ctx, noteID, limit)
}

// Reconcile merges req's diffs into the stored note and saves the result.
//
// If the note changes between load and save, the merge is rerun on the new
// revision according to the retry policy. The merge record is written once
// the note is saved; when that write fails the result is still returned
// together with the error.
func (s *Service) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if req.NoteID == "" {
		return nil, mergeErrors.NewValidationError(mergeErrors.OpReconcile, errors.New("note id is required"))
	}

	logger := s.logger.WithOperation(logging.Operation(mergeErrors.OpReconcile))
	result := &ReconcileResult{NoteID: req.NoteID, StartTime: s.now()}

	err := s.withRetry(ctx, logger, func() error {
		result.Attempts++
		return s.mergeOnce(ctx, req, result)
	})
	if err != nil {
		logger.LogError(ctx, err, "reconcile failed", slog.String("note_id", req.NoteID))
		return nil, err
	}
	result.Duration = s.now().Sub(result.StartTime)

	from := req.From
	if req.Selection != nil {
		from = req.Selection.From
	}
	record := &storage.MergeRecord{
		ID:             uuid.NewString(),
		NoteID:         req.NoteID,
		Timestamp:      result.StartTime,
		Duration:       result.Duration,
		PrimaryDiffs:   req.Primary,
		SecondaryDiffs: req.Secondary,
		Stats:          result.Stats,
		SelectionFrom:  from,
		BaseRevision:   result.BaseRevision,
		ResultRevision: result.Revision,
	}
	if err := s.store.SaveRecord(ctx, record); err != nil {
		logger.LogError(ctx, err, "merge record not saved",
			slog.String("note_id", req.NoteID),
			slog.Int64("revision", result.Revision),
		)
		return result, fmt.Errorf("note saved at revision %d: %w", result.Revision, err)
	}
	result.RecordID = record.ID

	logger.Info("note reconciled",
		slog.String("note_id", req.NoteID),
		slog.Int64("revision", result.Revision),
		slog.Int("attempts", result.Attempts),
		slog.Int("discarded", result.Stats.Discarded),
		slog.Duration("duration", result.Duration),
	)
	s.notifySubscribers(result)
	return result, nil
}

// mergeOnce loads the note, merges and saves it. result is overwritten.
func (s *Service) mergeOnce(ctx context.Context, req ReconcileRequest, result *ReconcileResult) error {
	note, err := s.store.LoadNote(ctx, req.NoteID)
	if err != nil {
		return err
	}

	selection := note.Document.SelectionInfoFor(req.From)
	if req.Selection != nil {
		selection = *req.Selection
	}

	doc := s.merger.MergeDocument(note.Document, selection, req.Primary, req.Secondary)
	media := s.merger.MergeMedia(note.Media, req.Primary, req.Secondary)

	result.BaseRevision = note.Revision
	note.Document = doc.Document
	note.Media = media.Media
	note.UpdatedAt = s.now()
	if err := s.store.SaveNote(ctx, note); err != nil {
		return err
	}

	result.Document = note.Document
	result.Media = note.Media
	result.Selection = doc.Selection
	result.Stats = doc.Stats.Add(media.Stats)
	result.Revision = note.Revision
	return nil
}

type exponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

func (eb *exponentialBackoff) nextDelay(attempt int) time.Duration {
	delay := float64(eb.initialDelay)
	for i := 0; i < attempt; i++ {
		delay *= eb.multiplier
	}
	if d := time.Duration(delay); d < eb.maxDelay {
		return d
	}
	return eb.maxDelay
}

// withRetry runs operation until it succeeds, fails with a non-retryable
// error or the attempts run out.
func (s *Service) withRetry(ctx context.Context, logger *logging.Logger, operation func() error) error {
	if s.retry == nil {
		return operation()
	}

	eb := &exponentialBackoff{
		initialDelay: s.retry.InitialDelay,
		maxDelay:     s.retry.MaxDelay,
		multiplier:   s.retry.Multiplier,
	}

	err := operation()
	for attempt := 1; err != nil && attempt < s.retry.MaxAttempts; attempt++ {
		if !mergeErrors.IsRetryable(err) {
			return err
		}

		delay := eb.nextDelay(attempt - 1)
		logger.Debug("retrying after retryable error",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		err = operation()
	}
	return err
}

// Subscribe registers handler for every successful Reconcile. Handlers run
// on their own goroutine and each receives its own copy of the result.
func (s *Service) Subscribe(handler func(*ReconcileResult)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServiceClosed
	}
	s.subscribers = append(s.subscribers, handler)
	return nil
}

func (s *Service) notifySubscribers(result *ReconcileResult) {
	s.mu.RLock()
	subscribers := append(([]func(*ReconcileResult))(nil), s.subscribers...)
	s.mu.RUnlock()

	for _, handler := range subscribers {
		go func(h func(*ReconcileResult), result *ReconcileResult) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("reconcile subscriber panicked", slog.Any("panic", r))
				}
			}()
			h(result)
		}(handler, result.clone())
	}
}

// clone deep-copies r so subscribers and the caller never share slices.
func (r *ReconcileResult) clone() *ReconcileResult {
	out := *r
	out.Document = r.Document.Clone()
	out.Media = model.CloneMedia(r.Media)
	return &out
}

// Close closes the store. Closing twice is a no-op.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.store.Close(); err != nil {
		return mergeErrors.NewWithComponent(mergeErrors.OpClose, component, err)
	}
	return nil
}
