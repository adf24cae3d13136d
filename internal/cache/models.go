package cache

import "time"

// Post is a post fetched from a blog. Summary is a plain-text excerpt,
// Content the full body as published in the feed.
type Post struct {
	ID        string
	Blog      string
	Title     string
	Link      string
	Summary   string
	Content   string
	Published time.Time
	FetchedAt time.Time
}

// Key identifies the post in lists.
func (p Post) Key() string {
	return p.Title
}

// Body returns the full content, falling back to the summary for feeds that
// only publish excerpts.
func (p Post) Body() string {
	if p.Content != "" {
		return p.Content
	}
	return p.Summary
}

type QueryOpts struct {
	Blog   string
	Search string
	Limit  int
}
