package precedent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence.
// This store provides durable storage and is suitable for single-instance
// deployments where precedents must survive restarts.
//
// SQLiteStore uses a write-ahead log (WAL) for better concurrent
// performance and periodic checkpointing to balance write performance
// with durability.
type SQLiteStore struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.RWMutex
	closeOnce          sync.Once

	// preparedStatements contains pre-compiled SQL statements for performance
	addStmt  *sql.Stmt
	getStmt  *sql.Stmt
	listStmt *sql.Stmt
	citeStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite precedent store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite precedent store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath:             dbPath,
		CheckpointInterval: 5 * time.Minute,
		BusyTimeout:        5 * time.Second,
	})
}

// NewSQLiteStoreWithConfig creates a SQLite precedent store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:                 db,
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop()

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS precedents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		payload TEXT NOT NULL,
		citation_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_precedents_category ON precedents(category);
	CREATE INDEX IF NOT EXISTS idx_precedents_created_at ON precedents(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.addStmt, err = s.db.Prepare(`
		INSERT INTO precedents (id, title, category, severity, payload, citation_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare add statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT payload, citation_count FROM precedents WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT payload, citation_count FROM precedents ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.citeStmt, err = s.db.Prepare(`
		UPDATE precedents SET citation_count = citation_count + 1 WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare citation statement: %w", err)
	}

	return nil
}

// Add persists a new precedent. Adding an existing id is an error.
func (s *SQLiteStore) Add(ctx context.Context, p *Precedent) error {
	if p == nil {
		return fmt.Errorf("precedent cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("precedent id cannot be empty")
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal precedent: %w", err)
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.addStmt.ExecContext(ctx,
		p.ID,
		p.Title,
		string(p.Applicability.Category),
		string(p.Applicability.Severity),
		string(payload),
		p.CitationCount,
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add precedent: %w", err)
	}

	return nil
}

// Get returns the precedent with the given id, or nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Precedent, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		payload       string
		citationCount int
	)
	err := s.getStmt.QueryRowContext(ctx, id).Scan(&payload, &citationCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get precedent: %w", err)
	}

	return decodePrecedent(payload, citationCount)
}

// List returns all stored precedents, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]*Precedent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list precedents: %w", err)
	}
	defer rows.Close()

	var out []*Precedent
	for rows.Next() {
		var (
			payload       string
			citationCount int
		)
		if err := rows.Scan(&payload, &citationCount); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		p, err := decodePrecedent(payload, citationCount)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

// IncrementCitation bumps the citation count for a precedent.
func (s *SQLiteStore) IncrementCitation(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.citeStmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to increment citation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("precedent %s not found", id)
	}

	return nil
}

// Close releases any resources held by the store.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.addStmt != nil {
			s.addStmt.Close()
		}
		if s.getStmt != nil {
			s.getStmt.Close()
		}
		if s.listStmt != nil {
			s.listStmt.Close()
		}
		if s.citeStmt != nil {
			s.citeStmt.Close()
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

func decodePrecedent(payload string, citationCount int) (*Precedent, error) {
	var p Precedent
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal precedent: %w", err)
	}
	// The citation counter lives in its own column so increments do not
	// rewrite the payload.
	p.CitationCount = citationCount
	return &p, nil
}
