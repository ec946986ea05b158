package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"docqa/internal/domain"
	"docqa/internal/logging"
	"docqa/internal/passage"
)

var (
	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrNoAnswerer is returned by Ask when no model is configured.
	ErrNoAnswerer = errors.New("no language model configured")
)

// Answer is the outcome of Ask.
type Answer struct {
	Text    string
	Excerpt passage.Result
}

// BatchResult is one question's extraction in a batch run.
type BatchResult struct {
	Question string
	Result   passage.Result
	Err      error
}

// QAService answers questions about documents using keyword-selected excerpts.
type QAService struct {
	loader    domain.DocumentLoader
	extractor *passage.Extractor
	answerer  domain.Answerer
	history   domain.HistoryStore
	logger    logging.Logger
}

// NewQAService wires the service. answerer and history may be nil.
func NewQAService(loader domain.DocumentLoader, extractor *passage.Extractor, answerer domain.Answerer, history domain.HistoryStore, logger logging.Logger) *QAService {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &QAService{loader: loader, extractor: extractor, answerer: answerer, history: history, logger: logger}
}

// CanAnswer reports whether a model is configured.
func (s *QAService) CanAnswer() bool { return s.answerer != nil }

// Extract returns the excerpt of the document at path relevant to question.
func (s *QAService) Extract(ctx context.Context, path, question string) (passage.Result, error) {
	if strings.TrimSpace(question) == "" {
		return passage.Result{}, ErrEmptyQuestion
	}
	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return passage.Result{}, err
	}
	return s.extract(doc, question), nil
}

func (s *QAService) extract(doc domain.Document, question string) passage.Result {
	res := s.extractor.ExtractResult(doc.Content, question)
	if res.Fallback {
		s.logger.Info("no keyword hits for %q in %s (keywords %v), using head/tail excerpt", question, doc.Path, res.Keywords)
	} else {
		s.logger.Debug("question %q: keywords %v, %d passages, %d chars", question, res.Keywords, len(res.Passages), len(res.Text))
	}
	return res
}

// Ask extracts an excerpt and asks the model to answer from it.
// onChunk, when non-nil, receives the streamed answer.
func (s *QAService) Ask(ctx context.Context, path, question string, onChunk func(string)) (Answer, error) {
	if s.answerer == nil {
		return Answer{}, ErrNoAnswerer
	}
	if strings.TrimSpace(question) == "" {
		return Answer{}, ErrEmptyQuestion
	}
	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return Answer{}, err
	}
	res := s.extract(doc, question)
	text, err := s.answerer.Answer(ctx, question, res.Text, onChunk)
	if err != nil {
		return Answer{}, err
	}
	if s.history != nil {
		ex := domain.Exchange{DocumentID: doc.ID, Question: question, Answer: text, ExcerptSize: len(res.Text)}
		if _, err := s.history.Save(ctx, ex); err != nil {
			s.logger.Warn("failed to record exchange: %v", err)
		}
	}
	return Answer{Text: text, Excerpt: res}, nil
}

// History returns the most recent exchanges recorded for the document at path.
func (s *QAService) History(ctx context.Context, path string, limit int) ([]domain.Exchange, error) {
	if s.history == nil {
		return nil, nil
	}
	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.history.Recent(ctx, doc.ID, limit)
}

// Batch extracts excerpts for many questions against one document on a
// bounded worker pool. Results keep the order of questions.
func (s *QAService) Batch(ctx context.Context, path string, questions []string, workers int) ([]BatchResult, error) {
	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]BatchResult, len(questions))
	var wg sync.WaitGroup
	for i, q := range questions {
		results[i].Question = q
		if strings.TrimSpace(q) == "" {
			results[i].Err = ErrEmptyQuestion
			continue
		}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		wg.Add(1)
		i, q := i, q
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i].Result = s.extract(doc, q)
		}); err != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("submit question: %w", err)
		}
	}
	wg.Wait()
	return results, nil
}
