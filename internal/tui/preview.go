package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheuskafuri/blogpull/internal/cache"
)

func renderPreview(post *cache.Post, width, height, scroll int) string {
	if post == nil {
		return lipglossCenter("Select a post", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(post.Title)
	blog := previewMetaStyle.Render(
		fmt.Sprintf("%s · %s", post.Blog, post.Published.Format("Jan 2, 2006")),
	)

	summary := post.Summary
	if summary == "" {
		summary = "(No summary available)"
	}

	body := previewBodyStyle.Width(contentWidth).Render(wrapText(summary, contentWidth))
	link := previewLinkStyle.Width(contentWidth).Render(post.Link)

	content := lipgloss.JoinVertical(lipgloss.Left, title, blog, "", body, "", link)

	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
