package feed

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/matheuskafuri/blogpull/internal/cache"
	"github.com/matheuskafuri/blogpull/internal/config"
	"github.com/mmcdole/gofeed"
)

var ErrUnsupportedType = errors.New("unsupported blog type")

// Source returns the most recent posts of a blog, newest first.
type Source interface {
	RecentPosts(ctx context.Context, blog config.Blog, limit int) ([]cache.Post, error)
}

// RSSSource reads RSS and Atom feeds. It is safe for concurrent use.
type RSSSource struct {
	client *http.Client
}

func NewRSSSource() *RSSSource {
	return &RSSSource{client: &http.Client{Timeout: 30 * time.Second}}
}

func (s *RSSSource) RecentPosts(ctx context.Context, blog config.Blog, limit int) ([]cache.Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("fetching %s: limit must be positive, got %d", blog.Name, limit)
	}

	parser := gofeed.NewParser()
	parser.Client = s.client
	if blog.Username != "" {
		parser.AuthConfig = &gofeed.Auth{Username: blog.Username, Password: blog.Password()}
	}

	feed, err := parser.ParseURLWithContext(blog.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", blog.Name, err)
	}

	now := time.Now()
	posts := make([]cache.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = item.Link
		}

		posts = append(posts, cache.Post{
			ID:        postID(item.Link),
			Blog:      blog.Name,
			Title:     title,
			Link:      item.Link,
			Summary:   truncate(stripHTML(summary), 300),
			Content:   item.Content,
			Published: pub,
			FetchedAt: now,
		})
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Published.After(posts[j].Published)
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// ForBlog picks the source implementation for a blog's type.
func ForBlog(blog config.Blog) Source {
	switch blog.Type {
	case "rss", "atom":
		return NewRSSSource()
	default:
		return unsupported{kind: blog.Type}
	}
}

type unsupported struct {
	kind string
}

func (u unsupported) RecentPosts(ctx context.Context, blog config.Blog, limit int) ([]cache.Post, error) {
	return nil, fmt.Errorf("fetching %s: %w %q", blog.Name, ErrUnsupportedType, u.kind)
}

// Store is the subset of the cache the write-through source needs.
type Store interface {
	UpsertPosts(posts []cache.Post) error
	SetLastFetch(blog string) error
}

type cachedSource struct {
	src    Source
	store  Store
	logger *slog.Logger
}

// WithCache persists every successful result of src into store. Cache
// failures are logged and never fail the fetch.
func WithCache(src Source, store Store, logger *slog.Logger) Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &cachedSource{src: src, store: store, logger: logger}
}

func (c *cachedSource) RecentPosts(ctx context.Context, blog config.Blog, limit int) ([]cache.Post, error) {
	posts, err := c.src.RecentPosts(ctx, blog, limit)
	if err != nil {
		return nil, err
	}
	if err := c.store.UpsertPosts(posts); err != nil {
		c.logger.Warn("caching posts", "blog", blog.Name, "error", err)
		return posts, nil
	}
	if err := c.store.SetLastFetch(blog.Name); err != nil {
		c.logger.Warn("recording last fetch", "blog", blog.Name, "error", err)
	}
	return posts, nil
}

func postID(link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
