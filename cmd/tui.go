package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matheuskafuri/blogpull/internal/cache"
	"github.com/matheuskafuri/blogpull/internal/tui"
	"github.com/spf13/cobra"
)

func runDialog(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	pre, err := e.preselect(flagBlog)
	if err != nil {
		return err
	}

	post, ok, err := tui.Run(cmd.Context(), tui.Opts{
		Blogs:     e.cfg.EnabledBlogs(),
		Sources:   e.sources(),
		Logger:    e.logger,
		Preselect: pre,
		Fetch:     flagFetch || pre >= 0,
	})
	if err != nil {
		return fmt.Errorf("running dialog: %w", err)
	}
	if !ok {
		return nil
	}

	return writePost(cmd.OutOrStdout(), flagOut, e.loadBody(post))
}

// loadBody prefers the cached copy, which has the full content.
func (e *env) loadBody(post cache.Post) cache.Post {
	cached, err := e.db.GetPost(post.ID)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			e.logger.Warn("loading cached post", "post", post.ID, "error", err)
		}
		return post
	}
	return cached
}

func writePost(stdout io.Writer, path string, post cache.Post) error {
	if path == "" {
		_, err := io.WriteString(stdout, renderMarkdown(post))
		return err
	}
	if err := os.WriteFile(path, []byte(renderMarkdown(post)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "Wrote %q to %s\n", post.Title, path)
	return nil
}

func renderMarkdown(post cache.Post) string {
	return fmt.Sprintf("# %s\n\n<%s>\n\n%s\n", post.Title, post.Link, post.Body())
}
