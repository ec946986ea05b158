package domain

import (
	"context"
	"time"
)

// Document represents a single reference text loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Exchange is one question answered against a document.
type Exchange struct {
	ID          string
	DocumentID  string
	Question    string
	Answer      string
	ExcerptSize int
	CreatedAt   time.Time
}

// DocumentLoader resolves a path to its text, reading each file at most once.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (Document, error)
}

// Answerer generates an answer to a question grounded on an excerpt.
// onChunk, when non-nil, receives the answer as it streams in.
type Answerer interface {
	Answer(ctx context.Context, question, excerpt string, onChunk func(string)) (string, error)
}

// HistoryStore persists question/answer exchanges.
type HistoryStore interface {
	Save(ctx context.Context, ex Exchange) (Exchange, error)
	Recent(ctx context.Context, documentID string, limit int) ([]Exchange, error)
	Close() error
}
