package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(postCount int, blog string, hints []key.Binding, width int, fetching bool) string {
	left := fmt.Sprintf(" %d posts", postCount)
	if blog != "" {
		left += " · " + blog
	}
	if fetching {
		left += " (fetching...)"
	}

	right := " " + renderHints(hints) + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}

func renderHints(bindings []key.Binding) string {
	var parts []string
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
