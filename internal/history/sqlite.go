package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"docqa/internal/domain"
)

// SqliteStore persists exchanges in a SQLite database.
type SqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ domain.HistoryStore = (*SqliteStore)(nil)

// NewSqliteStore opens (creating if needed) the database at path.
func NewSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	store := &SqliteStore{db: db, now: time.Now}
	if err := store.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// InitSchema creates the exchanges table if it doesn't exist.
func (s *SqliteStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS exchanges (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			excerpt_size INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_exchanges_document_id ON exchanges (document_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save stores ex, assigning an ID and timestamp when missing.
func (s *SqliteStore) Save(ctx context.Context, ex domain.Exchange) (domain.Exchange, error) {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchanges (id, document_id, question, answer, excerpt_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.DocumentID, ex.Question, ex.Answer, ex.ExcerptSize, ex.CreatedAt,
	)
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("failed to save exchange: %w", err)
	}
	return ex, nil
}

// Recent returns up to limit exchanges for a document, newest first.
func (s *SqliteStore) Recent(ctx context.Context, documentID string, limit int) ([]domain.Exchange, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, question, answer, excerpt_size, created_at
		FROM exchanges WHERE document_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var out []domain.Exchange
	for rows.Next() {
		var ex domain.Exchange
		if err := rows.Scan(&ex.ID, &ex.DocumentID, &ex.Question, &ex.Answer, &ex.ExcerptSize, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (s *SqliteStore) Close() error {
	return s.db.Close()
}
