package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lepinkainen/lumo/internal/tmdb"
)

func sampleTitles() []tmdb.NormalizedTitle {
	return []tmdb.NormalizedTitle{
		{ID: 1, Kind: tmdb.KindMovie, MediaType: tmdb.KindMovie, Title: "Low Vote Movie", VoteCount: 50, Year: 2023},
		{ID: 2, Kind: tmdb.KindMovie, MediaType: tmdb.KindMovie, Title: "High Vote Movie", VoteCount: 150, Year: 2023, Overview: "A popular movie"},
		{ID: 3, Kind: tmdb.KindTV, MediaType: tmdb.KindTV, Title: "Low Vote Show", VoteCount: 99},
		{ID: 4, Kind: tmdb.KindTV, MediaType: tmdb.MediaAnime, Title: "High Vote Show", VoteCount: 1000, Year: 2021},
	}
}

// withKeys replaces the program runner with one that feeds keys to the model.
func withKeys(t *testing.T, keys ...tea.KeyMsg) *[]string {
	t.Helper()
	var shown []string
	original := runProgram
	runProgram = func(m tea.Model) (tea.Model, error) {
		typed := m.(*model)
		for _, item := range typed.list.Items() {
			shown = append(shown, item.(titleItem).NormalizedTitle.Title)
		}
		for _, key := range keys {
			m, _ = m.Update(key)
		}
		return m, nil
	}
	t.Cleanup(func() { runProgram = original })
	return &shown
}

func TestPickFiltersByVotes(t *testing.T) {
	shown := withKeys(t, tea.KeyMsg{Type: tea.KeyEnter})

	result, err := Pick("high", sampleTitles(), 100)

	assert.NoError(t, err)
	assert.Equal(t, []string{"High Vote Movie", "High Vote Show"}, *shown)
	assert.Equal(t, ActionSelected, result.Action)
	assert.NotZero(t, result.Selection)
	assert.Equal(t, 2, result.Selection.ID)
}

func TestPickNavigatesDown(t *testing.T) {
	withKeys(t, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	result, err := Pick("high", sampleTitles(), 100)

	assert.NoError(t, err)
	assert.Equal(t, ActionSelected, result.Action)
	assert.Equal(t, 4, result.Selection.ID)
}

func TestPickCancel(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	} {
		withKeys(t, key)

		result, err := Pick("anything", sampleTitles(), 0)

		assert.NoError(t, err)
		assert.Equal(t, ActionCancelled, result.Action)
		assert.Zero(t, result.Selection)
	}
}

func TestPickNothingEligible(t *testing.T) {
	shown := withKeys(t)

	result, err := Pick("obscure", sampleTitles(), 5000)

	assert.NoError(t, err)
	assert.Equal(t, ActionCancelled, result.Action)
	assert.Equal(t, 0, len(*shown))
}

func TestPickProgramError(t *testing.T) {
	original := runProgram
	runProgram = func(tea.Model) (tea.Model, error) { return nil, errors.New("no tty") }
	t.Cleanup(func() { runProgram = original })

	_, err := Pick("x", sampleTitles(), 0)

	assert.EqualError(t, err, "no tty")
}

func TestViewShowsQueryAndTitles(t *testing.T) {
	m := newModel("dune", sampleTitles()[1:2])

	view := m.View()

	assert.Contains(t, view, "Results for: dune")
	assert.Contains(t, view, "HIGH VOTE MOVIE (2023)")
	assert.Contains(t, view, "[MOVIE]")
}

func TestFormatMetadata(t *testing.T) {
	rating := 4.5
	title := tmdb.NormalizedTitle{Runtime: 148, OriginalLanguage: "en", VoteCount: 35000, Popularity: 83.2, LocalRating: &rating, LocalReviewCount: 2}

	assert.Equal(t, "148m | EN | 35.0K votes | pop 83.2", formatMetadata(title, 0))
	assert.Equal(t, "No metadata available", formatMetadata(tmdb.NormalizedTitle{}, 0))
	assert.True(t, strings.HasSuffix(formatMetadata(title, 12), "..."))
	assert.Equal(t, "0.0/10  local 4.5/5 (2)", formatRating(title))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 72, clamp(72, 0, 40))
	assert.Equal(t, 50, clamp(72, 50, 40))
	assert.Equal(t, 40, clamp(72, 10, 40))
}
