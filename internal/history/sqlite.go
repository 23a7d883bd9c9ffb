package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/symptom-checker-api/internal/domain"
)

// SQLiteStore implements the Store interface using an embedded SQLite
// database. It is the fallback backend for deployments without MongoDB, so
// history keeps working instead of being disabled. The full document is
// stored as JSON text; created_at is duplicated into its own column for
// recency ordering.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	log    *logrus.Logger
}

// NewSQLiteStore creates a new SQLite history store. It creates the
// database file and schema if they don't exist.
func NewSQLiteStore(dbPath string, logger *logrus.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.WithField("path", dbPath).Info("SQLite history store opened")

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		log:    logger,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Insert writes one complete record as a single row.
func (s *SQLiteStore) Insert(ctx context.Context, record *Record) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	document, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshaling history record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO history (id, document, created_at) VALUES (?, ?, ?)",
		record.ID, string(document), record.CreatedAt,
	)
	if err != nil {
		s.log.WithError(err).Error("Failed to insert history record")
		return "", fmt.Errorf("inserting history record: %w", err)
	}

	s.log.WithField("record_id", record.ID).Info("History record saved")
	return record.ID, nil
}

// List returns raw documents ordered most-recent-first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document
		FROM history
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		s.log.WithError(err).Error("Failed to query history")
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	docs := []map[string]any{}
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}

		var doc map[string]any
		if err := json.Unmarshal([]byte(document), &doc); err != nil {
			// A corrupt row still yields a document; the normalizer
			// degrades its fields to sentinels.
			s.log.WithError(err).Warn("Skipping field decoding for corrupt history document")
			doc = map[string]any{}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns the total number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&count)
	return count, err
}

// Delete removes a history record by identifier.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting history record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("history record %q: %w", id, domain.ErrNotFound)
	}

	s.log.WithField("record_id", id).Info("History record deleted")
	return nil
}

// Health checks the database connection.
func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}
