package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("post not found")

type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id         TEXT PRIMARY KEY,
			blog       TEXT NOT NULL,
			title      TEXT NOT NULL,
			link       TEXT NOT NULL,
			summary    TEXT NOT NULL DEFAULT '',
			content    TEXT NOT NULL DEFAULT '',
			published  DATETIME NOT NULL,
			fetched_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_posts_published ON posts(published DESC);
		CREATE INDEX IF NOT EXISTS idx_posts_blog ON posts(blog);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	return errors.Join(errs...)
}

func (c *Cache) UpsertPosts(posts []Post) error {
	tx, err := c.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO posts (id, blog, title, link, summary, content, published, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			blog = excluded.blog,
			title = excluded.title,
			link = excluded.link,
			summary = excluded.summary,
			content = excluded.content,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range posts {
		_, err := stmt.Exec(p.ID, p.Blog, p.Title, p.Link, p.Summary, p.Content, p.Published, p.FetchedAt)
		if err != nil {
			return fmt.Errorf("upserting post %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

const postColumns = "id, blog, title, link, summary, content, published, fetched_at"

func scanPost(s interface{ Scan(...any) error }) (Post, error) {
	var p Post
	err := s.Scan(&p.ID, &p.Blog, &p.Title, &p.Link, &p.Summary, &p.Content, &p.Published, &p.FetchedAt)
	return p, err
}

// GetPost loads a single post, including its content.
func (c *Cache) GetPost(id string) (Post, error) {
	row := c.readDB.QueryRow("SELECT "+postColumns+" FROM posts WHERE id = ?", id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Post{}, fmt.Errorf("reading post %s: %w", id, err)
	}
	return p, nil
}

func (c *Cache) ListPosts(opts QueryOpts) ([]Post, error) {
	var (
		where []string
		args  []interface{}
	)

	if opts.Blog != "" {
		where = append(where, "blog = ?")
		args = append(args, opts.Blog)
	}

	if opts.Search != "" {
		where = append(where, "(title LIKE ? OR summary LIKE ?)")
		term := "%" + opts.Search + "%"
		args = append(args, term, term)
	}

	query := "SELECT " + postColumns + " FROM posts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := c.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Prune deletes posts fetched longer than olderThan ago.
func (c *Cache) Prune(olderThan time.Duration) (int64, error) {
	res, err := c.writeDB.Exec("DELETE FROM posts WHERE fetched_at < ?", time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("deleting posts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if _, err := c.writeDB.Exec("VACUUM"); err != nil {
			return n, fmt.Errorf("vacuum: %w", err)
		}
	}
	return n, nil
}

// Stats reports the number of cached posts and the size of the file at dbPath.
func (c *Cache) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := c.readDB.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting posts: %w", err)
	}
	fi, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, err
	}
	return count, fi.Size(), nil
}

func lastFetchKey(blog string) string {
	return "last_fetch:" + blog
}

// LastFetch returns when blog was last fetched successfully.
func (c *Cache) LastFetch(blog string) (time.Time, bool) {
	var value string
	err := c.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", lastFetchKey(blog)).Scan(&value)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (c *Cache) SetLastFetch(blog string) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastFetchKey(blog), time.Now().Format(time.RFC3339))
	return err
}
