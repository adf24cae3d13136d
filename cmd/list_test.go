package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matheuskafuri/blogpull/internal/cache"
	"github.com/matheuskafuri/blogpull/internal/config"
)

const liveFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Go</title>
<item><title>Live post</title><link>https://go.dev/live</link><pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>
</channel></rss>`

func testEnv(t *testing.T, feedURL string) *env {
	t.Helper()
	db, err := cache.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &env{
		cfg: &config.Config{Blogs: []config.Blog{
			{Name: "Go", Type: "rss", URL: feedURL, Enabled: true},
		}},
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func seed(t *testing.T, e *env, posts ...cache.Post) {
	t.Helper()
	if err := e.db.UpsertPosts(posts); err != nil {
		t.Fatalf("upsert: %v", err)
	}
}

func TestFetchPostsLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(liveFeed))
	}))
	defer srv.Close()
	e := testEnv(t, srv.URL)

	posts, fromCache, err := e.fetchPosts(context.Background(), -1, io.Discard)
	if err != nil {
		t.Fatalf("fetchPosts: %v", err)
	}
	if fromCache {
		t.Error("expected live posts")
	}
	if len(posts) != 1 || posts[0].Title != "Live post" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	// Write-through: the fetched post is now cached.
	if _, err := e.db.GetPost(posts[0].ID); err != nil {
		t.Errorf("expected fetched post cached: %v", err)
	}
}

func TestFetchPostsFallsBackToCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	e := testEnv(t, srv.URL)
	now := time.Now()
	seed(t, e,
		cache.Post{ID: "1", Blog: "Go", Title: "Cached post", Link: "https://go.dev/cached", Published: now, FetchedAt: now},
		cache.Post{ID: "2", Blog: "Other", Title: "Other post", Link: "https://other", Published: now, FetchedAt: now},
	)

	var stderr bytes.Buffer
	posts, fromCache, err := e.fetchPosts(context.Background(), -1, &stderr)
	if err != nil {
		t.Fatalf("fetchPosts: %v", err)
	}
	if !fromCache {
		t.Error("expected cached posts after a failed fetch")
	}
	if len(posts) != 1 || posts[0].Title != "Cached post" {
		t.Errorf("expected only the blog's cached post, got %+v", posts)
	}
	if !strings.Contains(stderr.String(), "Could not fetch posts from Go") {
		t.Errorf("expected failure reported, got %q", stderr.String())
	}
}

func TestFetchPostsFailsWithEmptyCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	e := testEnv(t, srv.URL)

	if _, _, err := e.fetchPosts(context.Background(), -1, io.Discard); err == nil {
		t.Fatal("expected fetch error when nothing is cached")
	}
}

func TestCachedPosts(t *testing.T) {
	e := testEnv(t, "https://example.com/feed")
	now := time.Now()
	seed(t, e,
		cache.Post{ID: "1", Blog: "Go", Title: "Generics", Link: "https://a", Published: now, FetchedAt: now},
		cache.Post{ID: "2", Blog: "Go", Title: "Modules", Link: "https://b", Published: now.Add(-time.Hour), FetchedAt: now},
		cache.Post{ID: "3", Blog: "Charm", Title: "Bubble Tea", Link: "https://c", Published: now, FetchedAt: now},
	)

	tests := []struct {
		name   string
		blog   string
		search string
		limit  int
		want   int
	}{
		{"all blogs", "", "", 10, 3},
		{"one blog", "Go", "", 10, 2},
		{"search", "", "bubble", 10, 1},
		{"limit", "", "", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := e.cachedPosts(tt.blog, tt.search, tt.limit)
			if err != nil {
				t.Fatalf("cachedPosts: %v", err)
			}
			if len(posts) != tt.want {
				t.Errorf("got %d posts, want %d", len(posts), tt.want)
			}
		})
	}
}

func TestPrintPosts(t *testing.T) {
	var buf bytes.Buffer
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	err := printPosts(&buf, []cache.Post{{ID: "abc", Blog: "Go", Title: "Hello", Published: published}})
	if err != nil {
		t.Fatalf("printPosts: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"abc", "2024-03-01", "Go", "Hello"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
