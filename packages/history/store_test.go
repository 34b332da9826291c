package history

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_ConnectionStrings(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		conn     string
		expected string
	}{
		{name: "plain path", conn: filepath.Join(dir, "a.db"), expected: filepath.Join(dir, "a.db")},
		{name: "sqlite url", conn: "sqlite://" + filepath.Join(dir, "b.db"), expected: filepath.Join(dir, "b.db")},
		{name: "sqlite prefix", conn: "sqlite:" + filepath.Join(dir, "c.db"), expected: filepath.Join(dir, "c.db")},
		{name: "memory", conn: ":memory:", expected: ":memory:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.conn)
			require.NoError(t, err)
			defer store.Close()
			assert.Equal(t, tt.expected, store.Path())
		})
	}

	_, err := Open("  ")
	assert.Error(t, err)
}

func TestStore_AddAndList(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first, err := store.Add(ctx, Entry{
		Command: "curl https://example.com/a",
		Method:  "GET",
		URL:     "https://example.com/a",
		Status:  200,
		SentAt:  base,
	})
	require.NoError(t, err)
	assert.Len(t, first.ID, 36)

	_, err = store.Add(ctx, Entry{
		Command:    "curl -d x=1 https://example.com/b",
		Method:     "POST",
		URL:        "https://example.com/b",
		Status:     500,
		DurationMs: 12,
		SentAt:     base.Add(time.Minute),
	})
	require.NoError(t, err)

	_, err = store.Add(ctx, Entry{
		Command: "curl https://other.example.org/",
		Method:  "GET",
		URL:     "https://other.example.org/",
		Error:   "connection refused",
		SentAt:  base.Add(2 * time.Minute),
	})
	require.NoError(t, err)

	all, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://other.example.org/", all[0].URL)
	assert.Equal(t, "https://example.com/a", all[2].URL)
	assert.True(t, all[2].SentAt.Equal(base))
	assert.Equal(t, int64(12), all[1].DurationMs)

	limited, err := store.List(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "connection refused", limited[0].Error)

	posts, err := store.List(ctx, ListOptions{Method: "post"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 500, posts[0].Status)

	byURL, err := store.List(ctx, ListOptions{URLContains: "example.com"})
	require.NoError(t, err)
	assert.Len(t, byURL, 2)

	failed, err := store.List(ctx, ListOptions{FailedOnly: true})
	require.NoError(t, err)
	assert.Len(t, failed, 2)
}

func TestStore_Get(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()

	a, err := store.Add(ctx, Entry{ID: "abc-111", Command: "curl a", Method: "GET", URL: "http://a/"})
	require.NoError(t, err)
	_, err = store.Add(ctx, Entry{ID: "abc-222", Command: "curl b", Method: "GET", URL: "http://b/"})
	require.NoError(t, err)

	got, err := store.Get(ctx, "abc-111")
	require.NoError(t, err)
	assert.Equal(t, a.Command, got.Command)
	assert.False(t, got.SentAt.IsZero())

	got, err = store.Get(ctx, "abc-2")
	require.NoError(t, err)
	assert.Equal(t, "curl b", got.Command)

	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = store.Get(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Clear(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Add(ctx, Entry{Command: "curl x", Method: "GET", URL: "http://x/"})
		require.NoError(t, err)
	}

	n, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	entries, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Add(context.Background(), Entry{Command: "curl x", Method: "GET", URL: "http://x/"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open("sqlite://" + path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_ConcurrentAdd(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Add(context.Background(), Entry{Command: "curl x", Method: "GET", URL: "http://x/"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := store.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, entries, 10)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.ID, " "))
	}
}
