// Package merge reconciles two concurrent edit sessions (primary and
// secondary) made against a common base note.
//
// Every entry point is synchronous and side-effect free apart from logging
// and hooks: diff lists are consumed as snapshots and a new value is
// returned. Diffs that cannot be applied cleanly are dropped, never reported
// as errors.
package merge

import (
	"log/slog"
	"sync"

	"github.com/c0deZ3R0/go-note-merge/logging"
	"github.com/c0deZ3R0/go-note-merge/model"
)

// Reason explains why a diff was discarded at block, media or stroke level.
type Reason string

const (
	// ReasonDeletionOverridden: secondary deleted an item primary edited.
	ReasonDeletionOverridden Reason = "deletion_overridden"
	// ReasonDuplicateInsertion: both sides inserted the same item.
	ReasonDuplicateInsertion Reason = "duplicate_insertion"
	// ReasonOutOfRange: an insertion index fell outside the list.
	ReasonOutOfRange Reason = "out_of_range"
	// ReasonUnknownTarget: the diff names an item the base does not hold.
	ReasonUnknownTarget Reason = "unknown_target"
)

// Hooks observes merge decisions. All hooks are optional; nil functions are
// no-ops. Hooks run synchronously on the merging goroutine.
type Hooks struct {
	OnStrategy  func(blockID string, strategy Strategy)
	OnDiscarded func(diff model.Diff, reason Reason)
}

// Stats summarizes one merge call.
type Stats struct {
	BothStrategy      int `json:"both_strategy"`
	PrimaryStrategy   int `json:"primary_strategy"`
	SecondaryStrategy int `json:"secondary_strategy"`
	Deleted           int `json:"deleted"`
	Inserted          int `json:"inserted"`
	Discarded         int `json:"discarded"`
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		BothStrategy:      s.BothStrategy + o.BothStrategy,
		PrimaryStrategy:   s.PrimaryStrategy + o.PrimaryStrategy,
		SecondaryStrategy: s.SecondaryStrategy + o.SecondaryStrategy,
		Deleted:           s.Deleted + o.Deleted,
		Inserted:          s.Inserted + o.Inserted,
		Discarded:         s.Discarded + o.Discarded,
	}
}

// Merger runs merges with a logger and hooks attached. A Merger holds no
// per-call state and is safe for concurrent use.
type Merger struct {
	logger *logging.Logger
	hooks  Hooks
}

// Option configures a Merger.
type Option interface{ apply(*Merger) }

type optionFn func(*Merger)

func (f optionFn) apply(m *Merger) { f(m) }

// WithLogger sets the logger dropped diffs and conflicts are reported to.
func WithLogger(l *logging.Logger) Option {
	return optionFn(func(m *Merger) {
		if l != nil {
			m.logger = l.WithComponent(logging.Component("merge"))
		}
	})
}

// WithHooks sets observability hooks. Zero-value safe.
func WithHooks(h Hooks) Option { return optionFn(func(m *Merger) { m.hooks = h }) }

// New constructs a Merger.
func New(opts ...Option) *Merger {
	m := &Merger{}
	for _, opt := range opts {
		opt.apply(m)
	}
	if m.logger == nil {
		m.logger = logging.WithComponent(logging.Component("merge"))
	}
	return m
}

var defaultMerger = sync.OnceValue(func() *Merger { return New() })

// run carries the bookkeeping of a single merge call.
type run struct {
	m     *Merger
	stats Stats
}

func (m *Merger) newRun() *run { return &run{m: m} }

func (r *run) strategy(blockID string, s Strategy) {
	switch s {
	case StrategyBoth:
		r.stats.BothStrategy++
	case StrategyPrimary:
		r.stats.PrimaryStrategy++
	case StrategySecondary:
		r.stats.SecondaryStrategy++
	}
	r.m.logger.Debug("content strategy chosen",
		slog.String("block_id", blockID),
		slog.String("strategy", s.String()),
	)
	if r.m.hooks.OnStrategy != nil {
		r.m.hooks.OnStrategy(blockID, s)
	}
}

func (r *run) discard(d model.Diff, reason Reason) {
	r.stats.Discarded++
	r.m.logger.Debug("diff discarded",
		slog.String("target", d.Target()),
		slog.String("diff", diffName(d)),
		slog.String("reason", string(reason)),
	)
	if r.m.hooks.OnDiscarded != nil {
		r.m.hooks.OnDiscarded(d, reason)
	}
}

// diffName names a diff variant for logs.
func diffName(d model.Diff) string {
	switch d.(type) {
	case model.BlockInsertion:
		return "block_insertion"
	case model.BlockDeletion:
		return "block_deletion"
	case model.BlockUpdate:
		return "block_update"
	case model.UnorderedListInsertion:
		return "unordered_list_insertion"
	case model.UnorderedListDeletion:
		return "unordered_list_deletion"
	case model.RightToLeftInsertion:
		return "right_to_left_insertion"
	case model.RightToLeftDeletion:
		return "right_to_left_deletion"
	case model.BlockTextInsertion:
		return "block_text_insertion"
	case model.BlockTextDeletion:
		return "block_text_deletion"
	case model.SpanInsertion:
		return "span_insertion"
	case model.SpanDeletion:
		return "span_deletion"
	case model.MediaInsertion:
		return "media_insertion"
	case model.MediaDeletion:
		return "media_deletion"
	case model.MediaUpdateRemoteID:
		return "media_update_remote_id"
	case model.MediaUpdateLocalURL:
		return "media_update_local_url"
	case model.MediaUpdateMimeType:
		return "media_update_mime_type"
	case model.MediaUpdateAltText:
		return "media_update_alt_text"
	case model.MediaUpdateImageDimensions:
		return "media_update_image_dimensions"
	case model.MediaUpdateLastModified:
		return "media_update_last_modified"
	case model.StrokeInsertion:
		return "stroke_insertion"
	case model.StrokeDeletion:
		return "stroke_deletion"
	default:
		return "unknown"
	}
}
