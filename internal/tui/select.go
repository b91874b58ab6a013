// Package tui provides the interactive search result picker.
package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/lumo/internal/tmdb"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// ErrUnexpectedModel is returned when the program finishes with a foreign model.
var ErrUnexpectedModel = errors.New("unexpected program result")

// Action is what the user did in the picker.
type Action int

const (
	// ActionNone means the picker never ran.
	ActionNone Action = iota
	// ActionSelected means a title was chosen.
	ActionSelected
	// ActionCancelled means the user left without choosing.
	ActionCancelled
)

// Result holds the outcome of Pick.
type Result struct {
	Action    Action
	Selection *tmdb.NormalizedTitle
}

type titleItem struct {
	tmdb.NormalizedTitle
}

func (i titleItem) Title() string {
	return fmt.Sprintf("%s (%s)", strings.ToUpper(i.NormalizedTitle.Title), i.YearString())
}

func (i titleItem) FilterValue() string {
	return i.NormalizedTitle.Title
}

func (i titleItem) Description() string {
	return i.Overview
}

type itemStyles struct {
	normal        lipgloss.Style
	selected      lipgloss.Style
	kindStyle     lipgloss.Style
	titleStyle    lipgloss.Style
	ratingStyle   lipgloss.Style
	metadataStyle lipgloss.Style
	overviewStyle lipgloss.Style
}

func newItemStyles() itemStyles {
	border := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(border).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	return itemStyles{
		normal: container,
		selected: container.Copy().
			BorderForeground(lipgloss.Color("214")).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("237")),
		kindStyle:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("110")),
		titleStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("254")),
		ratingStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		metadataStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("247")).Faint(true),
		overviewStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("248")),
	}
}

type titleDelegate struct {
	styles itemStyles
}

func (d titleDelegate) Height() int                         { return 5 }
func (d titleDelegate) Spacing() int                        { return 1 }
func (d titleDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d titleDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	entry, ok := item.(titleItem)
	if !ok {
		return
	}
	width := m.Width() - 4

	content := lipgloss.JoinVertical(lipgloss.Left,
		d.styles.kindStyle.Render(fmt.Sprintf("[%s]", strings.ToUpper(entry.MediaType))),
		d.styles.metadataStyle.Render(formatMetadata(entry.NormalizedTitle, width)),
		d.styles.titleStyle.Render(entry.Title()),
		d.styles.ratingStyle.Render(formatRating(entry.NormalizedTitle)),
		d.styles.overviewStyle.Render(truncate(entry.Overview, width)),
	)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

type model struct {
	list   list.Model
	query  string
	result Result
}

func newModel(query string, titles []tmdb.NormalizedTitle) *model {
	items := make([]list.Item, len(titles))
	for i, t := range titles {
		items[i] = titleItem{NormalizedTitle: t}
	}

	l := list.New(items, titleDelegate{styles: newItemStyles()}, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{list: l, query: query}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(titleItem); ok {
				title := selected.NormalizedTitle
				m.result = Result{Action: ActionSelected, Selection: &title}
				return m, tea.Quit
			}
		case "ctrl+c", "q", "esc":
			m.result = Result{Action: ActionCancelled}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(
			clamp(defaultListWidth, msg.Width-4, 40),
			clamp(defaultListHeight, msg.Height-6, 5),
		)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(fmt.Sprintf("Results for: %s", m.query)),
		m.list.View(),
		cancelButtonStyle.Render(" Cancel "),
		helpStyle.Render("Up/Down navigate | Enter select | q/esc cancel"),
	)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	cancelButtonStyle = lipgloss.NewStyle().
				MarginTop(1).
				Padding(0, 2).
				Background(lipgloss.Color("161")).
				Foreground(lipgloss.Color("230")).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Pick shows titles with at least minVotes votes and lets the user choose one.
// Nothing is shown, and ActionCancelled returned, when no title qualifies.
func Pick(query string, titles []tmdb.NormalizedTitle, minVotes int) (Result, error) {
	eligible := filterByVotes(titles, minVotes)
	if len(eligible) == 0 {
		return Result{Action: ActionCancelled}, nil
	}

	final, err := runProgram(newModel(query, eligible))
	if err != nil {
		return Result{}, err
	}
	if typed, ok := final.(*model); ok {
		return typed.result, nil
	}
	return Result{}, ErrUnexpectedModel
}

func filterByVotes(titles []tmdb.NormalizedTitle, minVotes int) []tmdb.NormalizedTitle {
	out := make([]tmdb.NormalizedTitle, 0, len(titles))
	for _, t := range titles {
		if t.VoteCount >= minVotes {
			out = append(out, t)
		}
	}
	return out
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

func formatRating(t tmdb.NormalizedTitle) string {
	rating := fmt.Sprintf("%.1f/10", t.VoteAverage)
	if t.LocalRating != nil {
		rating += fmt.Sprintf("  local %.1f/5 (%d)", *t.LocalRating, t.LocalReviewCount)
	}
	return rating
}

// formatMetadata renders runtime, language, vote count and popularity on one line.
func formatMetadata(t tmdb.NormalizedTitle, availableWidth int) string {
	var parts []string
	if t.Runtime > 0 {
		parts = append(parts, fmt.Sprintf("%dm", t.Runtime))
	}
	if t.OriginalLanguage != "" {
		parts = append(parts, strings.ToUpper(t.OriginalLanguage))
	}
	if t.VoteCount > 0 {
		parts = append(parts, formatVoteCount(t.VoteCount))
	}
	if t.Popularity > 0 {
		parts = append(parts, fmt.Sprintf("pop %.1f", t.Popularity))
	}

	if len(parts) == 0 {
		return "No metadata available"
	}
	return truncate(strings.Join(parts, " | "), availableWidth)
}

func formatVoteCount(count int) string {
	if count >= 1000 {
		return fmt.Sprintf("%.1fK votes", float64(count)/1000)
	}
	return fmt.Sprintf("%d votes", count)
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	return max(width, minimum)
}
