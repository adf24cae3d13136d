// Package openweb drives the "open from web" dialog: pick a blog, fetch its
// recent posts, pick a post and hand it back to whoever opened the dialog.
//
// The workflow is safe for concurrent use. Only the most recently started
// fetch may change the post list; results of older fetches are dropped.
package openweb

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/matheuskafuri/blogpull/internal/cache"
	"github.com/matheuskafuri/blogpull/internal/config"
	"github.com/matheuskafuri/blogpull/internal/feed"
	"github.com/matheuskafuri/blogpull/internal/notify"
)

// RecentPostLimit is how many posts a fetch asks the blog for.
const RecentPostLimit = 10

var (
	ErrNothingSelected = errors.New("no post selected")
	ErrOutOfRange      = errors.New("selection out of range")
	ErrClosed          = errors.New("workflow closed")
)

// Conductor owns the workflow and closes it on request. After CloseChild
// returns the conductor reads the outcome from Result.
type Conductor interface {
	CloseChild(w *Workflow)
}

// ConductorFunc adapts a function to Conductor.
type ConductorFunc func(w *Workflow)

func (f ConductorFunc) CloseChild(w *Workflow) { f(w) }

// SourceFactory builds the post source for a blog.
type SourceFactory func(blog config.Blog) feed.Source

type Option func(*Workflow)

// WithNotifier sets where fetch failures are reported.
func WithNotifier(n notify.Notifier) Option {
	return func(w *Workflow) { w.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) { w.logger = l }
}

type Workflow struct {
	id        string
	conductor Conductor
	sources   SourceFactory
	notifier  notify.Notifier
	logger    *slog.Logger

	mu              sync.Mutex
	accounts        []config.Blog
	selectedAccount int
	posts           []cache.Post
	selectedPost    int
	token           uint64
	cancelFetch     context.CancelFunc
	fetching        bool
	closed          bool
	result          *cache.Post
	err             error
}

// Snapshot is a consistent copy of the workflow state.
type Snapshot struct {
	Accounts        []config.Blog
	SelectedAccount int // -1 when none
	Posts           []cache.Post
	SelectedPost    int // -1 when none
	Fetching        bool
	Closed          bool
	Err             error
}

func New(conductor Conductor, sources SourceFactory, opts ...Option) *Workflow {
	w := &Workflow{
		id:              uuid.NewString(),
		conductor:       conductor,
		sources:         sources,
		selectedAccount: -1,
		selectedPost:    -1,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With("workflow", w.id)
	if w.notifier == nil {
		w.notifier = notify.NewLogNotifier(w.logger)
	}
	return w
}

func (w *Workflow) ID() string { return w.id }

// Initialize replaces the blog list and resets every selection. Nothing is
// selected afterwards, even for a single blog.
func (w *Workflow) Initialize(accounts []config.Blog) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.invalidateLocked()
	w.accounts = append([]config.Blog(nil), accounts...)
	w.selectedAccount = -1
	w.closed = false
	w.result = nil
	w.err = nil
	w.logger.Debug("initialized", "blogs", len(w.accounts))
}

// CanFetch reports whether Fetch would do anything. A blog does not need
// to be selected: Fetch falls back to the first one.
func (w *Workflow) CanFetch() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canFetchLocked()
}

func (w *Workflow) canFetchLocked() bool {
	return len(w.accounts) > 0 && !w.closed
}

// Fetch clears the post list and asks the selected blog for its recent
// posts in the background. The returned channel is closed once the fetch
// has been applied, discarded or has failed; it is already closed when
// CanFetch is false.
func (w *Workflow) Fetch(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	w.mu.Lock()
	if !w.canFetchLocked() {
		w.mu.Unlock()
		close(done)
		return done
	}
	account := w.accounts[0]
	if w.selectedAccount >= 0 {
		account = w.accounts[w.selectedAccount]
	}
	w.invalidateLocked()
	token := w.token
	fetchCtx, cancel := context.WithCancel(ctx)
	w.cancelFetch = cancel
	w.fetching = true
	w.err = nil
	w.mu.Unlock()

	w.logger.Info("fetching recent posts", "blog", account.Name, "token", token, "limit", RecentPostLimit)
	src := w.sources(account)

	go func() {
		defer close(done)
		defer cancel()
		posts, err := src.RecentPosts(fetchCtx, account, RecentPostLimit)
		w.complete(ctx, token, account, posts, err)
	}()
	return done
}

func (w *Workflow) complete(ctx context.Context, token uint64, account config.Blog, posts []cache.Post, err error) {
	w.mu.Lock()
	if token != w.token || w.closed {
		w.mu.Unlock()
		w.logger.Debug("discarding stale fetch", "blog", account.Name, "token", token)
		return
	}
	w.fetching = false
	w.cancelFetch = nil

	if err != nil {
		w.posts = nil
		w.selectedPost = -1
		w.err = err
		w.mu.Unlock()

		if errors.Is(err, context.Canceled) {
			w.logger.Debug("fetch canceled", "blog", account.Name, "token", token)
			return
		}
		w.logger.Warn("fetch failed", "blog", account.Name, "token", token, "error", err)
		nerr := w.notifier.Notify(context.WithoutCancel(ctx), notify.Notification{
			Subject: "Could not fetch posts",
			Body:    account.Name,
			Err:     err,
		})
		if nerr != nil {
			w.logger.Error("notifying fetch failure", "error", nerr)
		}
		return
	}

	if len(posts) > RecentPostLimit {
		posts = posts[:RecentPostLimit]
	}
	w.posts = append([]cache.Post(nil), posts...)
	if len(w.posts) > 0 {
		w.selectedPost = 0
	}
	w.mu.Unlock()

	w.logger.Info("fetched recent posts", "blog", account.Name, "token", token, "posts", len(posts))
}

// invalidateLocked drops the post list and detaches any fetch in flight.
func (w *Workflow) invalidateLocked() {
	w.token++
	if w.cancelFetch != nil {
		w.cancelFetch()
		w.cancelFetch = nil
	}
	w.fetching = false
	w.posts = nil
	w.selectedPost = -1
}

func (w *Workflow) CanContinue() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canContinueLocked()
}

func (w *Workflow) canContinueLocked() bool {
	return !w.closed && len(w.posts) > 0 && w.selectedPost >= 0
}

// Continue closes the workflow with the selected post as its result.
func (w *Workflow) Continue() error {
	w.mu.Lock()
	if !w.canContinueLocked() {
		w.mu.Unlock()
		return ErrNothingSelected
	}
	post := w.posts[w.selectedPost]
	w.closeLocked()
	w.result = &post
	w.mu.Unlock()

	w.logger.Info("continuing with post", "post", post.ID, "title", post.Title)
	w.closeChild()
	return nil
}

// Cancel closes the workflow without a result. It never fails.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	w.closeLocked()
	w.result = nil
	w.mu.Unlock()

	w.logger.Info("canceled")
	w.closeChild()
}

func (w *Workflow) closeLocked() {
	w.token++
	if w.cancelFetch != nil {
		w.cancelFetch()
		w.cancelFetch = nil
	}
	w.fetching = false
	w.closed = true
}

func (w *Workflow) closeChild() {
	if w.conductor != nil {
		w.conductor.CloseChild(w)
	}
}

// SelectAccount picks the blog to fetch from. Switching blogs clears the
// posts of the previous one and drops its fetch if still running.
func (w *Workflow) SelectAccount(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if i < 0 || i >= len(w.accounts) {
		return ErrOutOfRange
	}
	if i == w.selectedAccount {
		return nil
	}
	w.invalidateLocked()
	w.selectedAccount = i
	w.err = nil
	return nil
}

func (w *Workflow) SelectPost(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if i < 0 || i >= len(w.posts) {
		return ErrOutOfRange
	}
	w.selectedPost = i
	return nil
}

func (w *Workflow) Accounts() []config.Blog {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]config.Blog(nil), w.accounts...)
}

func (w *Workflow) SelectedAccount() (config.Blog, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selectedAccount < 0 {
		return config.Blog{}, false
	}
	return w.accounts[w.selectedAccount], true
}

func (w *Workflow) Posts() []cache.Post {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]cache.Post(nil), w.posts...)
}

func (w *Workflow) SelectedPost() (cache.Post, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selectedPost < 0 {
		return cache.Post{}, false
	}
	return w.posts[w.selectedPost], true
}

// Fetching reports whether the latest fetch is still running.
func (w *Workflow) Fetching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fetching
}

func (w *Workflow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Result is the post the workflow was closed with, if any.
func (w *Workflow) Result() (cache.Post, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return cache.Post{}, false
	}
	return *w.result, true
}

// Err is the failure of the latest fetch.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Accounts:        append([]config.Blog(nil), w.accounts...),
		SelectedAccount: w.selectedAccount,
		Posts:           append([]cache.Post(nil), w.posts...),
		SelectedPost:    w.selectedPost,
		Fetching:        w.fetching,
		Closed:          w.closed,
		Err:             w.err,
	}
}
