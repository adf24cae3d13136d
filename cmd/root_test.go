package cmd

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matheuskafuri/blogpull/internal/cache"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{30 * 24 * time.Hour, "30d"},
		{24 * time.Hour, "1d"},
		{5 * time.Hour, "5h"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.input); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	post := cache.Post{Title: "ABC", Link: "https://go.dev/abc", Content: "<p>Body</p>"}
	got := renderMarkdown(post)
	want := "# ABC\n\n<https://go.dev/abc>\n\n<p>Body</p>\n"
	if got != want {
		t.Errorf("renderMarkdown = %q, want %q", got, want)
	}
}

func TestWritePostToStdout(t *testing.T) {
	var buf bytes.Buffer
	if err := writePost(&buf, "", cache.Post{Title: "ABC", Summary: "short"}); err != nil {
		t.Fatalf("writePost: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "# ABC") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWritePostToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.md")
	var buf bytes.Buffer

	if err := writePost(&buf, path, cache.Post{Title: "ABC", Content: "body"}); err != nil {
		t.Fatalf("writePost: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "body") {
		t.Errorf("file missing body: %q", data)
	}
	if !strings.Contains(buf.String(), path) {
		t.Errorf("expected confirmation naming %s, got %q", path, buf.String())
	}
}

func TestLoadBodyPrefersCache(t *testing.T) {
	db, err := cache.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	now := time.Now()
	if err := db.UpsertPosts([]cache.Post{{ID: "1", Blog: "Go", Title: "ABC", Link: "https://a", Content: "cached body", Published: now, FetchedAt: now}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	e := &env{db: db, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	if got := e.loadBody(cache.Post{ID: "1", Title: "ABC"}); got.Content != "cached body" {
		t.Errorf("loadBody content = %q, want cached body", got.Content)
	}
	if got := e.loadBody(cache.Post{ID: "2", Title: "XYZ", Summary: "fresh"}); got.Summary != "fresh" {
		t.Errorf("loadBody should fall back to the fetched post, got %+v", got)
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "blogpull.log")
	logger, closeLog := newLogger(path, slog.LevelInfo)
	logger.Info("hello", "k", "v")
	logger.Debug("hidden")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "msg=hello") {
		t.Errorf("expected info line in log, got %q", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug line should be filtered, got %q", data)
	}
}
