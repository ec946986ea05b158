package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Formats(t *testing.T) {
	ctx := context.Background()

	t.Run("plain text", func(t *testing.T) {
		path := writeFile(t, "heart.txt", "The Nellie swung to anchor.\n")
		doc, err := New(nil, nil).Load(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "The Nellie swung to anchor.\n", doc.Content)
		assert.Equal(t, path, doc.Path)
		assert.Len(t, doc.ID, 16)
	})

	t.Run("markdown", func(t *testing.T) {
		path := writeFile(t, "notes.md", "# Part One\n\nKurtz was a **remarkable** man.\n\n- ivory\n- river\n")
		doc, err := New(nil, nil).Load(ctx, path)
		require.NoError(t, err)
		assert.Contains(t, doc.Content, "Part One")
		assert.Contains(t, doc.Content, "Kurtz was a remarkable man.")
		assert.NotContains(t, doc.Content, "**")
		assert.NotContains(t, doc.Content, "<")
	})

	t.Run("html drops scripts and tags", func(t *testing.T) {
		path := writeFile(t, "page.html", `<html><head><script>alert("x")</script><style>p{}</style></head>
<body><p>First paragraph.</p><p>Second &amp; last.</p></body></html>`)
		doc, err := New(nil, nil).Load(ctx, path)
		require.NoError(t, err)
		assert.Contains(t, doc.Content, "First paragraph.\n\nSecond & last.")
		assert.NotContains(t, doc.Content, "alert")
		assert.NotContains(t, doc.Content, "p{}")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "book.pdf", "%PDF")
		_, err := New(nil, nil).Load(ctx, path)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := New(nil, nil).Load(ctx, filepath.Join(t.TempDir(), "gone.txt"))
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})
}

func TestLoader_ReadsOnce(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "doc.txt", "original")
	l := New(NewMemoryCache(), nil)

	first, err := l.Load(ctx, path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0o644))

	second, err := l.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "original", first.Content)
	assert.Equal(t, "original", second.Content)
	assert.Equal(t, first.ID, second.ID)
}

type countingCache struct {
	*MemoryCache
	mu   sync.Mutex
	sets int
}

func (c *countingCache) Set(ctx context.Context, key, content string) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.MemoryCache.Set(ctx, key, content)
}

func TestLoader_ConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "doc.txt", "shared text")
	cache := &countingCache{MemoryCache: NewMemoryCache()}
	l := New(cache, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := l.Load(ctx, path)
			assert.NoError(t, err)
			assert.Equal(t, "shared text", doc.Content)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, cache.sets, 1)
	assert.LessOrEqual(t, cache.sets, 16)
}

func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	cache := NewRedisCache(RedisOptions{Addr: mr.Addr(), TTL: time.Minute})
	defer cache.Close()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "a.txt", "alpha"))
	content, ok, err := cache.Get(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alpha", content)

	assert.True(t, mr.Exists("docqa:doc:a.txt"))
	assert.Equal(t, time.Minute, mr.TTL("docqa:doc:a.txt"))
}

func TestLoader_WithRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	path := writeFile(t, "doc.txt", "from disk")
	cache := NewRedisCache(RedisOptions{Addr: mr.Addr(), Prefix: "test:"})
	defer cache.Close()

	_, err = New(cache, nil).Load(ctx, path)
	require.NoError(t, err)

	// a second loader, as in another process, is served by redis
	require.NoError(t, os.Remove(path))
	doc, err := New(cache, nil).Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "from disk", doc.Content)
}

func TestLoader_RedisDownFallsBackToDisk(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cache := NewRedisCache(RedisOptions{Addr: mr.Addr()})
	defer cache.Close()
	mr.Close()

	path := writeFile(t, "doc.txt", "still readable")
	doc, err := New(cache, nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "still readable", doc.Content)
}
