package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mergeErrors "github.com/c0deZ3R0/go-note-merge/errors"
	"github.com/c0deZ3R0/go-note-merge/logging"
	"github.com/c0deZ3R0/go-note-merge/storage"
	"github.com/c0deZ3R0/go-note-merge/storage/storetest"
)

// testConfig returns a config on NOTEMERGE_POSTGRES_DSN with a fresh table
// prefix, or skips the test.
func testConfig(t *testing.T) *Config {
	t.Helper()
	dsn := os.Getenv("NOTEMERGE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NOTEMERGE_POSTGRES_DSN not set")
	}
	prefix := "t" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "_"
	return &Config{ConnectionString: dsn, TablePrefix: prefix, Logger: logging.Discard()}
}

func dropTables(t *testing.T, s *Store) {
	t.Helper()
	t.Cleanup(func() {
		s.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s, %s`, s.notes, s.records))
		s.Close()
	})
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.NoteStore {
		config := testConfig(t)
		s, err := New(config)
		require.NoError(t, err)

		cleanup, err := New(&Config{ConnectionString: config.ConnectionString, TablePrefix: config.TablePrefix, Logger: logging.Discard()})
		require.NoError(t, err)
		dropTables(t, cleanup)
		return s
	})
}

func TestListenerReceivesChanges(t *testing.T) {
	config := testConfig(t)
	s, err := New(config)
	require.NoError(t, err)
	dropTables(t, s)

	l, err := NewListener(config)
	require.NoError(t, err)
	defer l.Close()

	changes := make(chan NoteChange, 4)
	require.NoError(t, l.Subscribe("n1", func(c NoteChange) error {
		changes <- c
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))

	require.NoError(t, s.SaveNote(ctx, storetest.SampleNote("n2")))
	note := storetest.SampleNote("n1")
	require.NoError(t, s.SaveNote(ctx, note))

	select {
	case c := <-changes:
		assert.Equal(t, "n1", c.NoteID)
		assert.Equal(t, int64(1), c.Revision)
	case <-time.After(5 * time.Second):
		t.Fatal("no notification received")
	}
}

func TestConfigDefaults(t *testing.T) {
	c := DefaultConfig("postgres://localhost/notes")
	assert.Equal(t, 25, c.MaxOpenConns)
	assert.Equal(t, 10, c.MaxIdleConns)
	assert.Equal(t, time.Hour, c.ConnMaxLifetime)
	assert.Equal(t, 30*time.Second, c.NotificationTimeout)
	assert.Equal(t, "note_changes", c.Channel())

	c.TablePrefix = "app_"
	assert.Equal(t, "app_note_changes", c.Channel())
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&Config{})
	assert.Error(t, err)
	_, err = NewListener(&Config{})
	assert.Error(t, err)
}

func TestDispatch(t *testing.T) {
	subs := newSubscriptions()
	var mu sync.Mutex
	var got []string
	record := func(tag string) ChangeHandler {
		return func(c NoteChange) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, fmt.Sprintf("%s:%s@%d", tag, c.NoteID, c.Revision))
			return nil
		}
	}
	subs.add("n1", record("one"))
	subs.add(allNotes, record("all"))
	subs.add("n2", func(NoteChange) error { return errors.New("boom") })
	subs.add("n2", record("two"))
	assert.Equal(t, 4, subs.count())

	require.NoError(t, subs.dispatch(`{"note_id":"n1","revision":3,"updated_at":"2024-01-02T03:04:05Z"}`))
	assert.Equal(t, []string{"one:n1@3", "all:n1@3"}, got)

	got = nil
	err := subs.dispatch(`{"note_id":"n2","revision":1,"updated_at":"2024-01-02T03:04:05Z"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []string{"two:n2@1", "all:n2@1"}, got)

	subs.remove("n1")
	got = nil
	require.NoError(t, subs.dispatch(`{"note_id":"n1","revision":4,"updated_at":"2024-01-02T03:04:05Z"}`))
	assert.Equal(t, []string{"all:n1@4"}, got)

	err = subs.dispatch(`not json`)
	require.Error(t, err)
	var mergeErr *mergeErrors.MergeError
	require.True(t, errors.As(err, &mergeErr))
	assert.Equal(t, mergeErrors.ErrCodeCodecFailure, mergeErr.Code)
}
