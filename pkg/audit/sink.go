package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Sink persists audit events. Sinks are write-only from the engine's
// perspective.
type Sink interface {
	// Store persists one event.
	Store(ctx context.Context, event *Event) error

	// Close releases any resources held by the sink.
	Close() error
}

// MemorySink buffers events in memory, for tests and ephemeral runs.
type MemorySink struct {
	mu     sync.Mutex
	events []*Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Store appends the event to the buffer.
func (m *MemorySink) Store(_ context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.events = append(m.events, &cp)
	return nil
}

// Events returns a snapshot of everything stored so far.
func (m *MemorySink) Events() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

// Close is a no-op for the in-memory sink.
func (m *MemorySink) Close() error {
	return nil
}

// SQLiteSink persists audit events durably. Events are never updated or
// deleted by the engine.
type SQLiteSink struct {
	db        *sql.DB
	storeStmt *sql.Stmt
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewSQLiteSink opens (or creates) an audit database at the given path.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	schema := `
	CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		session_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		occurred_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_events(session_id);
	CREATE INDEX IF NOT EXISTS idx_audit_occurred ON audit_events(occurred_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	stmt, err := db.Prepare(`
		INSERT INTO audit_events (id, type, session_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare store statement: %w", err)
	}

	return &SQLiteSink{db: db, storeStmt: stmt}, nil
}

// Store persists one event.
func (s *SQLiteSink) Store(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.storeStmt.ExecContext(ctx,
		event.ID,
		string(event.Type),
		event.SessionID,
		string(payload),
		occurredAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// Close releases database resources. Close is idempotent.
func (s *SQLiteSink) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		if s.storeStmt != nil {
			s.storeStmt.Close()
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})
	return closeErr
}
