// Package sqlite provides a SQLite implementation of storage.NoteStore.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	stdSync "sync"
	"time"

	"github.com/c0deZ3R0/go-note-merge/logging"
	"github.com/c0deZ3R0/go-note-merge/model"
	"github.com/c0deZ3R0/go-note-merge/storage"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const component = "storage/sqlite"

// Operation constants for consistent error reporting
const (
	opSaveNote    = "sqlite.SaveNote"
	opLoadNote    = "sqlite.LoadNote"
	opSaveRecord  = "sqlite.SaveRecord"
	opListRecords = "sqlite.ListRecords"
	opSetup       = "sqlite.Setup"
)

// Config holds configuration options for the Store.
type Config struct {
	// DataSourceName is the connection string for the SQLite database.
	// Example: "file:notes.db"
	DataSourceName string

	// EnableWAL enables Write-Ahead Logging mode.
	// When true, "_journal_mode=WAL" is appended to DataSourceName.
	EnableWAL bool

	// Logger receives internal operations and errors. Defaults to a
	// component logger derived from logging.Default().
	Logger *logging.Logger

	// TablePrefix is prepended to the notes and merge_records table names.
	TablePrefix string

	// Connection pool settings.
	// Defaults: MaxOpen=25, MaxIdle=5, Lifetime=1h, IdleTime=5m.
	// In-memory databases are limited to a single connection.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Now supplies timestamps for saved notes. Defaults to time.Now.
	Now func() time.Time
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = logging.WithComponent(logging.Component(component))
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if isMemory(c.DataSourceName) {
		c.MaxOpenConns, c.MaxIdleConns = 1, 1
		c.ConnMaxLifetime, c.ConnMaxIdleTime = 0, 0
		return
	}
	if c.EnableWAL {
		c.DataSourceName = withParam(c.DataSourceName, "_journal_mode", "WAL")
	}
	// Writers take the lock up front so concurrent revision checks serialize.
	c.DataSourceName = withParam(c.DataSourceName, "_txlock", "immediate")
}

func withParam(dsn, key, value string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// DefaultConfig returns a Config with WAL enabled and default pool settings.
func DefaultConfig(dataSourceName string) *Config {
	config := &Config{
		DataSourceName: dataSourceName,
		EnableWAL:      true,
	}
	config.setDefaults()
	return config
}

// NewWithDataSource opens a store with DefaultConfig.
func NewWithDataSource(dataSourceName string) (*Store, error) {
	return New(DefaultConfig(dataSourceName))
}

// Store implements storage.NoteStore on SQLite.
type Store struct {
	db      *sql.DB
	mu      stdSync.RWMutex
	closed  bool
	logger  *logging.Logger
	notes   string
	records string
	now     func() time.Time
}

var _ storage.NoteStore = (*Store)(nil)

// New opens the database and creates the schema if needed.
func New(config *Config) (*Store, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	config.setDefaults()

	if config.DataSourceName == "" {
		return nil, fmt.Errorf("DataSourceName is required")
	}

	logger := config.Logger
	logger.Info("opening SQLite database",
		slog.String("data_source", config.DataSourceName),
		slog.Bool("wal_enabled", config.EnableWAL),
	)

	db, err := sql.Open("sqlite3", config.DataSourceName)
	if err != nil {
		return nil, storage.Fail(opSetup, component, fmt.Errorf("open: %w", err))
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storage.Fail(opSetup, component, fmt.Errorf("connect: %w", err))
	}

	s := &Store{
		db:      db,
		logger:  logger,
		notes:   config.TablePrefix + "notes",
		records: config.TablePrefix + "merge_records",
		now:     config.Now,
	}

	if err := s.setupSchema(); err != nil {
		db.Close()
		return nil, storage.Fail(opSetup, component, fmt.Errorf("schema: %w", err))
	}

	logger.Debug("SQLite note store ready",
		slog.String("notes_table", s.notes),
		slog.String("records_table", s.records),
	)
	return s, nil
}

func (s *Store) setupSchema() error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS %[1]s (
        id          TEXT PRIMARY KEY,
        document    TEXT NOT NULL,
        media       TEXT NOT NULL,
        revision    INTEGER NOT NULL,
        updated_at  INTEGER NOT NULL
    );
    CREATE TABLE IF NOT EXISTS %[2]s (
        seq              INTEGER PRIMARY KEY AUTOINCREMENT,
        id               TEXT NOT NULL UNIQUE,
        note_id          TEXT NOT NULL,
        created_at       INTEGER NOT NULL,
        duration_ns      INTEGER NOT NULL,
        primary_diffs    TEXT NOT NULL,
        secondary_diffs  TEXT NOT NULL,
        stats            TEXT NOT NULL,
        selection_from   TEXT NOT NULL,
        base_revision    INTEGER NOT NULL,
        result_revision  INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_%[2]s_note_id ON %[2]s (note_id, seq);
    `, s.notes, s.records)
	_, err := s.db.Exec(query)
	return err
}

// begin checks the context and the closed flag shared by every operation.
func (s *Store) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrStoreClosed
	}
	return nil
}

// SaveNote upserts note under optimistic revision control.
func (s *Store) SaveNote(ctx context.Context, note *storage.Note) (err error) {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if err := storage.ValidateNote(note); err != nil {
		return err
	}

	body, err := storage.EncodeNote(note)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Fail(opSaveNote, component, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var current int64
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT revision FROM %s WHERE id = ?`, s.notes), note.ID).Scan(&current)
	exists := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists, err = false, nil
	case err != nil:
		return storage.Fail(opSaveNote, component, err)
	}
	if current != note.Revision {
		return storage.Conflict(opSaveNote, component, note.ID, note.Revision, current)
	}

	updatedAt := note.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	next := current + 1

	if exists {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET document = ?, media = ?, revision = ?, updated_at = ? WHERE id = ? AND revision = ?`, s.notes),
			string(body.Document), string(body.Media), next, updatedAt.UnixNano(), note.ID, current)
	} else {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, document, media, revision, updated_at) VALUES (?, ?, ?, ?, ?)`, s.notes),
			note.ID, string(body.Document), string(body.Media), next, updatedAt.UnixNano())
	}
	if err != nil {
		return storage.Fail(opSaveNote, component, err)
	}

	if err = tx.Commit(); err != nil {
		return storage.Fail(opSaveNote, component, err)
	}

	note.Revision = next
	note.UpdatedAt = updatedAt
	s.logger.Debug("note saved", slog.String("note_id", note.ID), slog.Int64("revision", next))
	return nil
}

// LoadNote returns the stored note.
func (s *Store) LoadNote(ctx context.Context, id string) (*storage.Note, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}

	var (
		doc, media string
		updatedAt  int64
	)
	note := &storage.Note{ID: id}
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT document, media, revision, updated_at FROM %s WHERE id = ?`, s.notes), id,
	).Scan(&doc, &media, &note.Revision, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound(opLoadNote, component, id)
	}
	if err != nil {
		return nil, storage.Fail(opLoadNote, component, err)
	}

	if err := storage.DecodeNote(note, storage.NoteBody{Document: []byte(doc), Media: []byte(media)}); err != nil {
		return nil, err
	}
	note.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return note, nil
}

// SaveRecord appends record to the merge history.
func (s *Store) SaveRecord(ctx context.Context, record *storage.MergeRecord) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if err := storage.PrepareRecord(record, s.now()); err != nil {
		return err
	}

	body, err := storage.EncodeRecord(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s
        (id, note_id, created_at, duration_ns, primary_diffs, secondary_diffs, stats, selection_from, base_revision, result_revision)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.records),
		record.ID, record.NoteID, record.Timestamp.UnixNano(), int64(record.Duration),
		string(body.Primary), string(body.Secondary), string(body.Stats),
		record.SelectionFrom.String(), record.BaseRevision, record.ResultRevision,
	)
	return storage.Fail(opSaveRecord, component, err)
}

// ListRecords returns the newest records of a note first.
func (s *Store) ListRecords(ctx context.Context, noteID string, limit int) ([]storage.MergeRecord, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, note_id, created_at, duration_ns, primary_diffs,
        secondary_diffs, stats, selection_from, base_revision, result_revision
        FROM %s WHERE note_id = ? ORDER BY seq DESC LIMIT ?`, s.records), noteID, storage.Limit(limit))
	if err != nil {
		return nil, storage.Fail(opListRecords, component, err)
	}
	defer rows.Close()

	var records []storage.MergeRecord
	for rows.Next() {
		var (
			rec                       storage.MergeRecord
			created, duration         int64
			primary, secondary, stats string
			from                      string
		)
		if err := rows.Scan(&rec.ID, &rec.NoteID, &created, &duration, &primary, &secondary, &stats,
			&from, &rec.BaseRevision, &rec.ResultRevision); err != nil {
			return nil, storage.Fail(opListRecords, component, err)
		}
		rec.Timestamp = time.Unix(0, created).UTC()
		rec.Duration = time.Duration(duration)
		if rec.SelectionFrom, err = model.ParseSelectionFrom(from); err != nil {
			return nil, storage.Fail(opListRecords, component, err)
		}
		if err := storage.DecodeRecord(&rec, storage.RecordBody{
			Primary: []byte(primary), Secondary: []byte(secondary), Stats: []byte(stats),
		}); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Fail(opListRecords, component, err)
	}
	return records, nil
}

// Stats returns database statistics for monitoring.
func (s *Store) Stats() sql.DBStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return sql.DBStats{}
	}
	return s.db.Stats()
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
