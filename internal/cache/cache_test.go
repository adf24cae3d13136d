package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePosts() []Post {
	now := time.Now()
	return []Post{
		{ID: "aaa", Blog: "Go", Title: "Post A", Link: "https://a.com", Summary: "Sum A", Content: "<p>Body A</p>", Published: now.Add(-1 * time.Hour), FetchedAt: now},
		{ID: "bbb", Blog: "Charm", Title: "Post B", Link: "https://b.com", Summary: "Sum B", Published: now.Add(-2 * time.Hour), FetchedAt: now},
		{ID: "ccc", Blog: "Go", Title: "Post C", Link: "https://c.com", Summary: "Sum C about generics", Published: now.Add(-48 * time.Hour), FetchedAt: now.Add(-48 * time.Hour)},
	}
}

func TestUpsertAndList(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.ListPosts(QueryOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(got))
	}
	// Should be ordered by published DESC
	if got[0].ID != "aaa" {
		t.Errorf("expected newest first, got %s", got[0].ID)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	posts := samplePosts()

	if err := db.UpsertPosts(posts); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	posts[0].Title = "Updated Post A"
	posts[0].Content = "<p>New body</p>"
	if err := db.UpsertPosts(posts[:1]); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := db.GetPost("aaa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Updated Post A" {
		t.Errorf("expected updated title, got %q", got.Title)
	}
	if got.Content != "<p>New body</p>" {
		t.Errorf("expected updated content, got %q", got.Content)
	}
}

func TestUpsertMovesPostToLatestBlog(t *testing.T) {
	db := testDB(t)
	posts := samplePosts()
	if err := db.UpsertPosts(posts); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Same link syndicated by another blog hashes to the same ID.
	moved := posts[0]
	moved.Blog = "Planet Go"
	if err := db.UpsertPosts([]Post{moved}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := db.GetPost("aaa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Blog != "Planet Go" {
		t.Errorf("expected blog of the latest fetch, got %q", got.Blog)
	}
	if got.Link != "https://a.com" {
		t.Errorf("expected link kept, got %q", got.Link)
	}
}

func TestGetPost(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.GetPost("aaa")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Blog != "Go" || got.Link != "https://a.com" || got.Content != "<p>Body A</p>" {
		t.Errorf("unexpected post: %+v", got)
	}
}

func TestGetPostNotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetPost("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListByBlog(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.ListPosts(QueryOpts{Blog: "Go"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 Go posts, got %d", len(got))
	}
	for _, p := range got {
		if p.Blog != "Go" {
			t.Errorf("unexpected blog %q", p.Blog)
		}
	}
}

func TestListSearch(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.ListPosts(QueryOpts{Search: "generics"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ccc" {
		t.Errorf("expected only ccc, got %v", got)
	}
}

func TestListLimit(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.ListPosts(QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 post with limit, got %d", len(got))
	}
}

func TestEmptyDB(t *testing.T) {
	db := testDB(t)

	got, err := db.ListPosts(QueryOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 0 posts in empty db, got %d", len(got))
	}
}

func TestLastFetch(t *testing.T) {
	db := testDB(t)

	if _, ok := db.LastFetch("Go"); ok {
		t.Error("expected no last fetch before SetLastFetch")
	}

	if err := db.SetLastFetch("Go"); err != nil {
		t.Fatalf("SetLastFetch: %v", err)
	}

	got, ok := db.LastFetch("Go")
	if !ok {
		t.Fatal("expected last fetch after SetLastFetch")
	}
	if time.Since(got) > time.Minute {
		t.Errorf("last fetch too old: %v", got)
	}
	if _, ok := db.LastFetch("Charm"); ok {
		t.Error("last fetch should be tracked per blog")
	}
}

func TestPruneDeletesOldPosts(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Post C was fetched 48h ago. Prune anything older than 24h.
	deleted, err := db.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 pruned, got %d", deleted)
	}

	got, err := db.ListPosts(QueryOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 remaining posts, got %d", len(got))
	}
}

func TestPruneNothingToDelete(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	deleted, err := db.Prune(365 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 pruned, got %d", deleted)
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.UpsertPosts(samplePosts()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	count, size, err := db.Stats(dbPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	if size == 0 {
		t.Error("expected non-zero db size")
	}
}

func TestPostBody(t *testing.T) {
	if got := (Post{Content: "full", Summary: "short"}).Body(); got != "full" {
		t.Errorf("Body() = %q, want full", got)
	}
	if got := (Post{Summary: "short"}).Body(); got != "short" {
		t.Errorf("Body() = %q, want short", got)
	}
	if got := (Post{Title: "ABC"}).Key(); got != "ABC" {
		t.Errorf("Key() = %q, want ABC", got)
	}
}

func TestOpenCreatesDir(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "deep", "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("opening db in nested dir: %v", err)
	}
	db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}
}
