package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the version of the database schema
const SchemaVersion = 1

// SQLiteStore keeps the states of many documents in one SQLite database.
type SQLiteStore struct {
	Conn *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// One writer at a time is all the contract allows
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{Conn: conn}
	if err := s.setup(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	return s, nil
}

// setup creates the tables if they don't exist and stamps the schema version
func (s *SQLiteStore) setup() error {
	tx, err := s.Conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createStateTable := `
	CREATE TABLE IF NOT EXISTS document_state (
		document_id TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := tx.Exec(createStateTable); err != nil {
		return fmt.Errorf("failed to create document_state table: %w", err)
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Load(documentID string) (*Document, error) {
	if len(documentID) == 0 {
		return nil, ErrNoDocumentID
	}

	var payload []byte
	err := s.Conn.QueryRow(`SELECT payload FROM document_state WHERE document_id = ?`, documentID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state of %s: %w", documentID, err)
	}

	return Unmarshal(payload)
}

// Save replaces the state of documentID inside a transaction.
func (s *SQLiteStore) Save(documentID string, d *Document) error {
	if len(documentID) == 0 {
		return ErrNoDocumentID
	}

	payload, err := Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode state of %s: %w", documentID, err)
	}

	tx, err := s.Conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsertSQL := `
		INSERT INTO document_state (document_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at;
	`
	if _, err := tx.Exec(upsertSQL, documentID, payload, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save state of %s: %w", documentID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.Conn.Close()
}
