package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ptt/internal/catalog"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/pagination"
	"github.com/desertthunder/ptt/internal/shared"
)

const (
	cardWidth      = 28
	defaultColumns = 3
	maxColumns     = 4
	barWidth       = 20
)

// columns returns how many cards fit side by side.
func (m *Model) columns() int {
	if m.width <= 0 {
		return defaultColumns
	}
	return max(1, min(maxColumns, m.width/(cardWidth+2)))
}

func (m *Model) renderHeader() string {
	name := "All creators"
	if c, ok := m.selector.Selected(); ok {
		name = c.Name
	}

	s := m.tracker.Summary(m.creatorVideos())
	line := fmt.Sprintf("%s • %d/%d watched (%.0f%%) %s", name, s.Watched, s.Total, s.Percent(), shared.ProgressBar(s.Percent(), barWidth))
	return styles.title.Render(line)
}

func (m *Model) renderCategories() string {
	body := m.catList.View()
	if len(m.catList.Items()) == 0 {
		body = styles.help.Render("No categories for this creator")
	}

	if m.mode != inputNone {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.input.View())
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.creator, m.keys.add, m.keys.remove, m.keys.reset, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", body, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderGrid() string {
	s := catalog.Summary(m.members, m.tracker.IsWatched)
	title := fmt.Sprintf("%s  %d/%d (%.0f%%)", m.category, s.Watched, s.Total, s.Percent())
	if m.query != "" {
		title = fmt.Sprintf("%s  search: %q", title, m.query)
	}

	var body string
	videos := m.pageVideos()
	switch {
	case len(videos) == 0 && m.query != "":
		body = styles.help.Render(fmt.Sprintf("No videos match %q", m.query))
	case len(videos) == 0:
		body = styles.help.Render("No videos in this category")
	default:
		cols := m.columns()
		rows := make([]string, 0, (len(videos)+cols-1)/cols)
		for start := 0; start < len(videos); start += cols {
			end := min(start+cols, len(videos))
			cards := make([]string, 0, cols)
			for i := start; i < end; i++ {
				cards = append(cards, m.renderCard(videos[i], i == m.cursor))
			}
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	parts := []string{styles.ok.Render(title), body}
	if pages := m.renderPageNumbers(); pages != "" {
		parts = append(parts, pages)
	}
	if m.mode != inputNone {
		parts = append(parts, m.input.View())
	}

	helpKeys := []key.Binding{m.keys.toggle, m.keys.open, m.keys.search, m.keys.nextPage, m.keys.prevPage, m.keys.assign, m.keys.back, m.keys.quit}
	parts = append(parts, "", m.help.ShortHelpView(helpKeys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderCard(v models.Video, selected bool) string {
	style := styles.card
	if selected {
		style = styles.selected
	}

	mark := "○ unwatched"
	switch {
	case m.tracker.Pending(v.ID):
		mark = styles.warn.Render("… saving")
	case m.tracker.IsWatched(v.ID):
		mark = styles.watched.Render("✓ watched")
	}

	meta := fmt.Sprintf("#%d  %s", v.Sequence, shared.FormatDuration(v.Duration))
	return style.Render(strings.Join([]string{truncate(v.Title, cardWidth-2), meta, mark}, "\n"))
}

// renderPageNumbers lists the page window with the current page highlighted; empty for a single page.
func (m *Model) renderPageNumbers() string {
	if m.paginator.TotalPages() <= 1 {
		return ""
	}

	parts := make([]string, 0, 9)
	for _, n := range m.paginator.Numbers() {
		switch n {
		case pagination.Ellipsis:
			parts = append(parts, "…")
		case m.paginator.Page():
			parts = append(parts, styles.page.Render(strconv.Itoa(n)))
		default:
			parts = append(parts, strconv.Itoa(n))
		}
	}
	return "Page " + strings.Join(parts, " ")
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Reset all progress?")
	info := fmt.Sprintf("%d videos are marked as watched. This clears every watched flag on the server.", m.tracker.Count())

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n\n%s", title, styles.warn.Render(info), m.help.ShortHelpView(helpKeys))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:max(n, 0)])
	}
	return string(r[:n-1]) + "…"
}
