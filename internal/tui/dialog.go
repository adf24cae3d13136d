package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/blogpull/internal/browser"
	"github.com/matheuskafuri/blogpull/internal/cache"
	"github.com/matheuskafuri/blogpull/internal/config"
	"github.com/matheuskafuri/blogpull/internal/notify"
	"github.com/matheuskafuri/blogpull/internal/openweb"
)

type focusPane int

const (
	focusPosts focusPane = iota
	focusBlogs
)

// Dialog hosts the open-from-web workflow in a bubbletea program and acts
// as its conductor: closing the workflow quits the program.
type Dialog struct {
	ctx      context.Context
	workflow *openweb.Workflow
	keys     keyMap
	focus    focusPane
	blogBar  blogBar
	spinner  spinner.Model

	width  int
	height int

	previewScroll int
	currentDate   string
	fetchOnStart  bool
	// fetchSeq numbers the fetches started by the dialog; only the done
	// message of the latest one is applied.
	fetchSeq int
	spinning bool
	closed   bool
	err      error
	openLink func(string) error
}

// Opts holds everything needed to show the dialog.
type Opts struct {
	Blogs    []config.Blog
	Sources  openweb.SourceFactory
	Notifier notify.Notifier
	Logger   *slog.Logger
	// Preselect is the index of the blog to select up front, -1 for none.
	Preselect int
	// Fetch starts fetching as soon as the dialog is shown.
	Fetch bool
}

func NewDialog(ctx context.Context, opts Opts) *Dialog {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	names := make([]string, len(opts.Blogs))
	for i, b := range opts.Blogs {
		names[i] = b.Name
	}

	d := &Dialog{
		ctx:          ctx,
		keys:         defaultKeyMap(),
		blogBar:      newBlogBar(names),
		spinner:      sp,
		currentDate:  time.Now().Format("Jan 2"),
		fetchOnStart: opts.Fetch,
		openLink:     browser.Open,
	}

	var workflowOpts []openweb.Option
	if opts.Notifier != nil {
		workflowOpts = append(workflowOpts, openweb.WithNotifier(opts.Notifier))
	}
	if opts.Logger != nil {
		workflowOpts = append(workflowOpts, openweb.WithLogger(opts.Logger))
	}
	d.workflow = openweb.New(d, opts.Sources, workflowOpts...)
	d.workflow.Initialize(opts.Blogs)

	if opts.Preselect >= 0 && opts.Preselect < len(opts.Blogs) {
		_ = d.workflow.SelectAccount(opts.Preselect)
		d.blogBar.cursor = opts.Preselect
	}
	if len(opts.Blogs) > 1 {
		if _, ok := d.workflow.SelectedAccount(); !ok {
			d.focus = focusBlogs
		}
	}
	return d
}

// Workflow exposes the hosted workflow, e.g. to read its result.
func (d *Dialog) Workflow() *openweb.Workflow {
	return d.workflow
}

// CloseChild is called by the workflow on continue or cancel.
func (d *Dialog) CloseChild(w *openweb.Workflow) {
	d.closed = true
}

func (d *Dialog) Init() tea.Cmd {
	if d.fetchOnStart {
		return d.fetch()
	}
	return nil
}

// fetch starts a workflow fetch and waits for it off the update loop.
func (d *Dialog) fetch() tea.Cmd {
	if !d.workflow.CanFetch() {
		return nil
	}
	d.err = nil
	d.previewScroll = 0
	d.fetchSeq++
	wait := waitForFetch(d.workflow.Fetch(d.ctx), d.fetchSeq)
	if d.spinning {
		return wait
	}
	d.spinning = true
	return tea.Batch(wait, d.spinner.Tick)
}

func waitForFetch(done <-chan struct{}, seq int) tea.Cmd {
	return func() tea.Msg {
		<-done
		return fetchDoneMsg{seq: seq}
	}
}

func (d *Dialog) openLinkCmd(url string) tea.Cmd {
	open := d.openLink
	return func() tea.Msg {
		if err := open(url); err != nil {
			return openErrMsg{err: err}
		}
		return nil
	}
}

func (d *Dialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil

	case tea.KeyMsg:
		// Clear sticky error on any keypress
		d.err = nil
		model, cmd := d.handleKey(msg)
		if d.closed {
			return model, tea.Quit
		}
		return model, cmd

	case fetchDoneMsg:
		if msg.seq != d.fetchSeq {
			return d, nil
		}
		if err := d.workflow.Err(); err != nil && !errors.Is(err, context.Canceled) {
			d.err = err
		}
		return d, nil

	case openErrMsg:
		d.err = msg.err
		return d, nil

	case spinner.TickMsg:
		if !d.workflow.Fetching() {
			d.spinning = false
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd
	}

	return d, nil
}

func (d *Dialog) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, d.keys.Quit), key.Matches(msg, d.keys.Cancel):
		d.workflow.Cancel()
		return d, nil
	case key.Matches(msg, d.keys.Focus):
		if d.focus == focusPosts {
			d.focus = focusBlogs
		} else {
			d.focus = focusPosts
		}
		return d, nil
	case key.Matches(msg, d.keys.Fetch):
		return d, d.fetch()
	}

	if d.focus == focusBlogs {
		return d.handleBlogKey(msg)
	}
	return d.handlePostKey(msg)
}

func (d *Dialog) handleBlogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, d.keys.Left), key.Matches(msg, d.keys.Up):
		d.blogBar.move(-1)
	case key.Matches(msg, d.keys.Right), key.Matches(msg, d.keys.Down):
		d.blogBar.move(1)
	case key.Matches(msg, d.keys.Select):
		if err := d.workflow.SelectAccount(d.blogBar.cursor); err != nil {
			d.err = err
			return d, nil
		}
		d.focus = focusPosts
		return d, d.fetch()
	}
	return d, nil
}

func (d *Dialog) handlePostKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := d.workflow.Snapshot()

	switch {
	case key.Matches(msg, d.keys.Down):
		if snap.SelectedPost < len(snap.Posts)-1 {
			_ = d.workflow.SelectPost(snap.SelectedPost + 1)
			d.previewScroll = 0
		}
	case key.Matches(msg, d.keys.Up):
		if snap.SelectedPost > 0 {
			_ = d.workflow.SelectPost(snap.SelectedPost - 1)
			d.previewScroll = 0
		}
	case key.Matches(msg, d.keys.Left):
		if d.previewScroll > 0 {
			d.previewScroll--
		}
	case key.Matches(msg, d.keys.Right):
		d.previewScroll++
	case key.Matches(msg, d.keys.Select):
		if err := d.workflow.Continue(); err != nil && !errors.Is(err, openweb.ErrNothingSelected) {
			d.err = err
		}
	case key.Matches(msg, d.keys.Open):
		if post, ok := d.workflow.SelectedPost(); ok {
			return d, d.openLinkCmd(post.Link)
		}
	}
	return d, nil
}

func (d *Dialog) hints() []key.Binding {
	fetch := d.keys.Fetch
	fetch.SetEnabled(d.workflow.CanFetch())
	sel := d.keys.Select
	if d.focus == focusPosts {
		sel.SetEnabled(d.workflow.CanContinue())
	} else {
		sel.SetHelp("enter", "select blog")
	}
	return []key.Binding{d.keys.Focus, fetch, sel, d.keys.Open, d.keys.Cancel}
}

func (d *Dialog) View() string {
	if d.width == 0 {
		return titleStyle.Render("blogpull")
	}
	if d.closed {
		return ""
	}

	snap := d.workflow.Snapshot()

	headerHeight := 1
	barHeight := 1
	statusHeight := 1
	contentHeight := d.height - headerHeight - barHeight - statusHeight - 4 // borders
	if contentHeight < 3 {
		contentHeight = 3
	}

	listWidth := int(float64(d.width) * 0.4)
	previewWidth := d.width - listWidth - 1

	headerLeft := titleStyle.Render("blogpull | open from web")
	headerRight := dateStyle.Render(d.currentDate)
	headerGap := d.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + strings.Repeat(" ", headerGap) + headerRight

	bar := d.blogBar.render(d.width, snap.SelectedAccount, d.focus == focusBlogs)

	innerListW := listWidth - 4
	listContent := renderList(snap.Posts, snap.SelectedPost, contentHeight, innerListW, emptyListText(snap.Fetching, snap.Err))

	listPane := pane(d.focus == focusPosts).Width(listWidth - 2).Height(contentHeight).Render(listContent)

	var selected *cache.Post
	if snap.SelectedPost >= 0 {
		selected = &snap.Posts[snap.SelectedPost]
	}
	previewContent := renderPreview(selected, previewWidth-4, contentHeight, d.previewScroll)
	previewPane := pane(false).Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	blogName := ""
	if snap.SelectedAccount >= 0 {
		blogName = snap.Accounts[snap.SelectedAccount].Name
	} else if len(snap.Accounts) > 0 {
		blogName = snap.Accounts[0].Name
	}
	status := renderStatusBar(len(snap.Posts), blogName, d.hints(), d.width, snap.Fetching)
	if snap.Fetching {
		status = d.spinner.View() + " " + status
	}
	if d.err != nil {
		status = errorStyle.Render(fmt.Sprintf(" %v", d.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, bar, content, status)
}

// Run shows the dialog until the user continues or cancels and returns the
// chosen post, if any.
func Run(ctx context.Context, opts Opts) (cache.Post, bool, error) {
	d := NewDialog(ctx, opts)
	p := tea.NewProgram(d, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	w := d.Workflow()
	if !w.Closed() {
		w.Cancel()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return cache.Post{}, false, err
	}
	post, ok := w.Result()
	return post, ok, nil
}
