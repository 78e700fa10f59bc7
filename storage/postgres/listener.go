package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	stdSync "sync"
	"sync/atomic"
	"time"

	"github.com/lib/pq"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/logging"
	"github.com/c0deZ3R0/go-note-merge/storage"
)

// ChangeHandler receives note changes. Returned errors are logged.
type ChangeHandler func(change NoteChange) error

// allNotes is the subscription key for handlers that see every note.
const allNotes = ""

// subscriptions maps note ids to their handlers.
type subscriptions struct {
	mu       stdSync.RWMutex
	handlers map[string][]ChangeHandler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{handlers: make(map[string][]ChangeHandler)}
}

func (s *subscriptions) add(noteID string, h ChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[noteID] = append(s.handlers[noteID], h)
}

func (s *subscriptions) remove(noteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, noteID)
}

func (s *subscriptions) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, hs := range s.handlers {
		n += len(hs)
	}
	return n
}

// dispatch decodes payload and calls the handlers of its note, then the
// handlers of all notes. Every handler runs; the first error is returned.
func (s *subscriptions) dispatch(payload string) error {
	var change NoteChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return mergeErrors.NewCodecError(mergeErrors.OpDecode, fmt.Errorf("note change payload: %w", err))
	}

	s.mu.RLock()
	handlers := append(append([]ChangeHandler(nil), s.handlers[change.NoteID]...), s.handlers[allNotes]...)
	s.mu.RUnlock()

	var first error
	for _, h := range handlers {
		if err := h(change); err != nil && first == nil {
			first = fmt.Errorf("handler for note %s: %w", change.NoteID, err)
		}
	}
	return first
}

// Listener delivers the note changes a Store publishes.
type Listener struct {
	listener *pq.Listener
	channel  string
	logger   *logging.Logger
	subs     *subscriptions
	closed   int32 // atomic
	started  int32 // atomic
	done     chan struct{}
	wg       stdSync.WaitGroup
}

// NewListener opens a LISTEN connection on config's channel.
func NewListener(config *Config) (*Listener, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	config.setDefaults()
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string cannot be empty")
	}

	l := &Listener{
		channel: config.Channel(),
		logger:  config.Logger.WithComponent("postgres-listener"),
		subs:    newSubscriptions(),
		done:    make(chan struct{}),
	}
	l.listener = pq.NewListener(config.ConnectionString, config.ReconnectInterval, config.NotificationTimeout, l.eventCallback)
	if err := l.listener.Listen(l.channel); err != nil {
		l.listener.Close()
		return nil, storage.Fail("postgres.Listen", component, err)
	}
	return l, nil
}

func (l *Listener) eventCallback(event pq.ListenerEventType, err error) {
	switch event {
	case pq.ListenerEventConnected:
		l.logger.Info("connected for LISTEN/NOTIFY", slog.String("channel", l.channel))
	case pq.ListenerEventDisconnected:
		l.logger.Warn("disconnected from PostgreSQL", slog.Any("error", err))
	case pq.ListenerEventReconnected:
		// pq re-issues LISTEN itself; changes made while disconnected are lost.
		l.logger.Info("reconnected to PostgreSQL")
	case pq.ListenerEventConnectionAttemptFailed:
		l.logger.Warn("connection attempt failed", slog.Any("error", err))
	}
}

// Subscribe registers h for changes of one note.
func (l *Listener) Subscribe(noteID string, h ChangeHandler) error {
	if noteID == allNotes {
		return mergeErrors.NewValidationError(mergeErrors.OpStore, fmt.Errorf("note id is required"))
	}
	return l.subscribe(noteID, h)
}

// SubscribeAll registers h for changes of every note.
func (l *Listener) SubscribeAll(h ChangeHandler) error {
	return l.subscribe(allNotes, h)
}

func (l *Listener) subscribe(key string, h ChangeHandler) error {
	if atomic.LoadInt32(&l.closed) == 1 {
		return fmt.Errorf("listener is closed")
	}
	if h == nil {
		return mergeErrors.NewValidationError(mergeErrors.OpStore, fmt.Errorf("nil handler"))
	}
	l.subs.add(key, h)
	return nil
}

// Unsubscribe drops every handler of one note.
func (l *Listener) Unsubscribe(noteID string) {
	l.subs.remove(noteID)
}

// Start delivers notifications until ctx is done or Close is called.
func (l *Listener) Start(ctx context.Context) error {
	if atomic.LoadInt32(&l.closed) == 1 {
		return fmt.Errorf("listener is closed")
	}
	if !atomic.CompareAndSwapInt32(&l.started, 0, 1) {
		return nil
	}
	l.wg.Add(1)
	go l.listenLoop(ctx)
	return nil
}

func (l *Listener) listenLoop(ctx context.Context) {
	defer l.wg.Done()
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case n := <-l.listener.Notify:
			// nil after a reconnect
			if n == nil {
				continue
			}
			if err := l.subs.dispatch(n.Extra); err != nil {
				l.logger.LogError(ctx, err, "note change not handled", slog.String("channel", n.Channel))
			}
		case <-ping.C:
			if err := l.listener.Ping(); err != nil {
				l.logger.Warn("listener ping failed", slog.Any("error", err))
			}
		}
	}
}

// Close stops delivery and closes the connection.
func (l *Listener) Close() error {
	if !atomic.CompareAndSwapInt32(&l.closed, 0, 1) {
		return nil
	}
	close(l.done)
	l.wg.Wait()
	return l.listener.Close()
}
