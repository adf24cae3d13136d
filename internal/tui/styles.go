package tui

import "github.com/charmbracelet/lipgloss"

// Paper-and-ink palette; the dark variants invert it.
var (
	inkColor    = lipgloss.AdaptiveColor{Light: "#1F2933", Dark: "#E4E7EB"}
	mutedColor  = lipgloss.AdaptiveColor{Light: "#52606D", Dark: "#9AA5B1"}
	faintColor  = lipgloss.AdaptiveColor{Light: "#9AA5B1", Dark: "#52606D"}
	linkColor   = lipgloss.AdaptiveColor{Light: "#0B69A3", Dark: "#5ED0FA"}
	markColor   = lipgloss.AdaptiveColor{Light: "#C65D21", Dark: "#F9A66C"}
	alertColor  = lipgloss.AdaptiveColor{Light: "#BA2525", Dark: "#F86A6A"}
	ruleColor   = lipgloss.AdaptiveColor{Light: "#CBD2D9", Dark: "#3E4C59"}
	panelColor  = lipgloss.AdaptiveColor{Light: "#F5F7FA", Dark: "#1F2933"}
	statusColor = lipgloss.AdaptiveColor{Light: "#E4E7EB", Dark: "#323F4B"}
)

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// pane frames the posts and preview columns. The focused one gets the link
// color on its border.
func pane(focused bool) lipgloss.Style {
	border := ruleColor
	if focused {
		border = linkColor
	}
	return lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(border)
}

// tab renders one blog name in the blog bar.
func tab(selected, focused bool) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 1).Background(panelColor).Foreground(mutedColor)
	switch {
	case selected && focused:
		return s.Background(linkColor).Foreground(panelColor).Bold(true)
	case selected:
		return s.Foreground(linkColor).Underline(true)
	}
	return s
}

var (
	titleStyle    = fg(linkColor).Bold(true).PaddingLeft(1)
	dateStyle     = fg(faintColor)
	barStyle      = lipgloss.NewStyle().Background(panelColor)
	separatorText = fg(faintColor).Background(panelColor).Render(" | ")

	itemTitleStyle    = fg(inkColor)
	itemSelectedStyle = fg(markColor).Bold(true)
	itemMetaStyle     = fg(faintColor)

	previewTitleStyle = fg(inkColor).Bold(true).MarginBottom(1)
	previewMetaStyle  = fg(mutedColor).MarginBottom(1)
	previewBodyStyle  = fg(mutedColor)
	previewLinkStyle  = fg(linkColor).Underline(true).MarginTop(1)

	statusBarStyle = lipgloss.NewStyle().Background(statusColor).Foreground(inkColor).Padding(0, 1)
	errorStyle     = fg(alertColor).Bold(true)
	spinnerStyle   = fg(markColor)
)
