package notemerge

import (
	"errors"
	"time"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/logging"
	"github.com/c0deZ3R0/go-note-merge/merge"
	"github.com/c0deZ3R0/go-note-merge/storage"
)

// Option configures a Service via NewService.
type Option func(*Service) error

// RetryConfig controls how Reconcile retries retryable failures, such as a
// note saved concurrently by another writer.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig retries three times starting at 10ms.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// WithStore sets the NoteStore. Required.
func WithStore(s storage.NoteStore) Option {
	return func(svc *Service) error {
		if s == nil {
			return errors.New("store cannot be nil")
		}
		svc.store = s
		return nil
	}
}

// WithLogger sets the logger of the service and of its Merger.
func WithLogger(l *logging.Logger) Option {
	return func(svc *Service) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		svc.logger = l
		return nil
	}
}

// WithHooks observes the merge decisions of every Reconcile.
func WithHooks(h merge.Hooks) Option {
	return func(svc *Service) error {
		svc.hooks = h
		return nil
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		svc.now = now
		return nil
	}
}

// WithRetry sets the retry policy. A nil config disables retries.
func WithRetry(config *RetryConfig) Option {
	return func(svc *Service) error {
		if config != nil && config.MaxAttempts < 1 {
			return errors.New("retry max attempts must be at least 1")
		}
		svc.retry = config
		return nil
	}
}

// WithHistoryLimit sets how many records History returns by default.
func WithHistoryLimit(limit int) Option {
	return func(svc *Service) error {
		if limit < 0 {
			return errors.New("history limit cannot be negative")
		}
		svc.historyLimit = limit
		return nil
	}
}

func optionError(err error) error {
	return mergeErrors.E(
		mergeErrors.Op("NewService"),
		mergeErrors.Component("notemerge"),
		mergeErrors.KindInvalid,
		mergeErrors.ErrCodeValidationFailure,
		err,
	)
}
