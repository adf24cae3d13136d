package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/matheuskafuri/blogpull/internal/cache"
	"github.com/matheuskafuri/blogpull/internal/config"
	"github.com/matheuskafuri/blogpull/internal/feed"
	"github.com/matheuskafuri/blogpull/internal/openweb"
)

// env is what every command needs: config, logger and the post cache.
type env struct {
	cfg    *config.Config
	db     *cache.Cache
	logger *slog.Logger
	close  func()
}

func setup() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog := newLogger(config.LogPath(), cfg.Level())
	slog.SetDefault(logger)

	db, err := cache.Open(config.CachePath())
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return &env{
		cfg:    cfg,
		db:     db,
		logger: logger,
		close: func() {
			db.Close()
			closeLog()
		},
	}, nil
}

// newLogger logs to a file since the dialog owns the terminal. If the file
// cannot be opened logging is discarded.
func newLogger(path string, level slog.Level) (*slog.Logger, func()) {
	var w io.Writer = io.Discard
	closeFn := func() {}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			w = f
			closeFn = func() { f.Close() }
		}
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeFn
}

// sources builds fetchers that also persist what they fetch.
func (e *env) sources() openweb.SourceFactory {
	db, logger := e.db, e.logger
	return func(b config.Blog) feed.Source {
		return feed.WithCache(feed.ForBlog(b), db, logger)
	}
}

// preselect resolves --blog to an index into the enabled blogs.
func (e *env) preselect(name string) (int, error) {
	if name == "" {
		return -1, nil
	}
	i, ok := e.cfg.FindBlog(name)
	if !ok {
		return -1, fmt.Errorf("unknown blog %q", name)
	}
	return i, nil
}
