package loader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"docqa/internal/domain"
	"docqa/internal/logging"
)

var (
	// ErrDocumentNotFound is returned when the document file does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnsupportedFormat is returned for file types the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// Loader reads documents from disk once and serves later reads from a cache.
type Loader struct {
	cache  Cache
	logger logging.Logger
	group  singleflight.Group
}

// New creates a loader backed by cache. A nil cache means an in-memory one.
func New(cache Cache, logger logging.Logger) *Loader {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Loader{cache: cache, logger: logger}
}

// Load returns the plain text of the document at path.
func (l *Loader) Load(ctx context.Context, path string) (domain.Document, error) {
	key := filepath.Clean(path)
	doc := domain.Document{ID: hashString(key), Path: key}

	content, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logger.Warn("document cache read failed for %s: %v", key, err)
	} else if ok {
		doc.Content = content
		return doc, nil
	}

	// Concurrent first reads of the same file share one disk read.
	v, err, _ := l.group.Do(key, func() (any, error) {
		text, err := readDocument(key)
		if err != nil {
			return "", err
		}
		if err := l.cache.Set(ctx, key, text); err != nil {
			l.logger.Warn("document cache write failed for %s: %v", key, err)
		}
		l.logger.Debug("loaded %s (%d bytes)", key, len(text))
		return text, nil
	})
	if err != nil {
		return domain.Document{}, err
	}
	doc.Content = v.(string)
	return doc, nil
}

func readDocument(path string) (string, error) {
	parse, err := parserFor(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := parse(data)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return text, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
