package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/matheuskafuri/blogpull/internal/cache"
	"github.com/matheuskafuri/blogpull/internal/notify"
	"github.com/matheuskafuri/blogpull/internal/openweb"
	"github.com/spf13/cobra"
)

var (
	flagListCached bool
	flagListSearch string
	flagListLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list [blog]",
	Short: "Fetch and print the most recent posts of a blog",
	Long: `Fetch the most recent posts of a blog without opening the dialog.

Uses the first enabled blog when no name is given. When the fetch fails,
the posts cached by earlier fetches are printed instead. With --cached
nothing is fetched and all blogs are listed unless one is named.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		pre, err := e.preselect(name)
		if err != nil {
			return err
		}

		if flagListCached {
			blog := ""
			if pre >= 0 {
				blog = e.cfg.EnabledBlogs()[pre].Name
			}
			posts, err := e.cachedPosts(blog, flagListSearch, flagListLimit)
			if err != nil {
				return err
			}
			return printPosts(cmd.OutOrStdout(), posts)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		posts, fromCache, err := e.fetchPosts(ctx, pre, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if fromCache {
			fmt.Fprintln(cmd.ErrOrStderr(), "showing cached posts")
		}
		return printPosts(cmd.OutOrStdout(), posts)
	},
}

func init() {
	listCmd.Flags().BoolVar(&flagListCached, "cached", false, "list cached posts without fetching")
	listCmd.Flags().StringVar(&flagListSearch, "search", "", "only cached posts whose title or summary contains this text")
	listCmd.Flags().IntVar(&flagListLimit, "limit", openweb.RecentPostLimit, "maximum number of cached posts")
}

// fetchPosts runs the workflow without a dialog. A failed fetch falls back
// to the cached posts of the same blog when there are any.
func (e *env) fetchPosts(ctx context.Context, pre int, errOut io.Writer) ([]cache.Post, bool, error) {
	w := openweb.New(nil, e.sources(),
		openweb.WithLogger(e.logger),
		openweb.WithNotifier(notify.Multi{
			notify.NewLogNotifier(e.logger),
			notify.Func(func(ctx context.Context, n notify.Notification) error {
				_, err := fmt.Fprintf(errOut, "%s from %s: %v\n", n.Subject, n.Body, n.Err)
				return err
			}),
		}),
	)
	w.Initialize(e.cfg.EnabledBlogs())
	if !w.CanFetch() {
		return nil, false, fmt.Errorf("no enabled blogs in config")
	}
	if pre >= 0 {
		if err := w.SelectAccount(pre); err != nil {
			return nil, false, err
		}
	}

	<-w.Fetch(ctx)

	fetchErr := w.Err()
	if fetchErr == nil {
		return w.Posts(), false, nil
	}

	blog := w.Accounts()[0]
	if selected, ok := w.SelectedAccount(); ok {
		blog = selected
	}
	cached, err := e.cachedPosts(blog.Name, "", openweb.RecentPostLimit)
	if err != nil || len(cached) == 0 {
		return nil, false, fetchErr
	}
	return cached, true, nil
}

func (e *env) cachedPosts(blog, search string, limit int) ([]cache.Post, error) {
	posts, err := e.db.ListPosts(cache.QueryOpts{Blog: blog, Search: search, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("listing cached posts: %w", err)
	}
	return posts, nil
}

func printPosts(w io.Writer, posts []cache.Post) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Published.Format("2006-01-02"), p.Blog, p.Title)
	}
	return tw.Flush()
}
