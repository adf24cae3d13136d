package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// blogBar is the row of blog tabs above the post list.
type blogBar struct {
	blogs  []string
	cursor int
}

func newBlogBar(blogs []string) blogBar {
	return blogBar{blogs: blogs}
}

func (b *blogBar) move(delta int) {
	if len(b.blogs) == 0 {
		return
	}
	b.cursor += delta
	if b.cursor < 0 {
		b.cursor = 0
	}
	if b.cursor > len(b.blogs)-1 {
		b.cursor = len(b.blogs) - 1
	}
}

// render highlights the selected blog; the cursor is bracketed while the
// bar has focus.
func (b *blogBar) render(width, selected int, focused bool) string {
	if len(b.blogs) == 0 {
		return barStyle.Foreground(faintColor).Width(width).PaddingLeft(1).Render("No blogs configured")
	}

	var parts []string
	for i, name := range b.blogs {
		style := tab(i == selected, focused)
		label := name
		if focused && i == b.cursor {
			label = "[" + name + "]"
		}
		parts = append(parts, style.Render(label))
	}

	// Stop before the row overflows.
	var row string
	for i, part := range parts {
		candidate := row
		if i > 0 {
			candidate += separatorText
		}
		candidate += part
		if lipgloss.Width(candidate) > width && row != "" {
			break
		}
		row = candidate
	}

	return barStyle.Width(width).PaddingLeft(1).Render(row)
}
