// Package tui is a terminal reader for the published posts. It renders the
// same views.Home state the HTTP listing uses and stays live while posts
// change.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"inkwell/models"
	"inkwell/views"
)

// Focus is the part of the screen receiving keys.
type Focus int

const (
	FocusList Focus = iota
	FocusSearch
)

// ReaderModel is the Bubbletea model of the reader.
type ReaderModel struct {
	ctx     context.Context
	home    *views.Home
	search  textinput.Model
	spinner spinner.Model
	focus   Focus

	state       views.HomeState
	suggestions []models.Post
	suggestion  int // -1 means the typed text
	cursor      int
	width       int
}

// NewReaderModel wraps an opened Home. The caller owns Home and closes it
// after the program exits.
func NewReaderModel(ctx context.Context, home *views.Home) ReaderModel {
	ti := textinput.New()
	ti.Placeholder = "Search titles"
	ti.Prompt = "/ "
	ti.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return ReaderModel{
		ctx:        ctx,
		home:       home,
		search:     ti,
		spinner:    sp,
		state:      home.State(),
		suggestion: -1,
	}
}

type homeChangedMsg struct{}

// waitForChange blocks until the home state changes or ctx ends.
func waitForChange(ctx context.Context, home *views.Home) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-home.Changed():
			return homeChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m ReaderModel) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(m.ctx, m.home),
		m.spinner.Tick,
	)
}

func (m ReaderModel) refresh() ReaderModel {
	m.state = m.home.State()
	m.suggestions = m.home.Search.Suggestions()
	if m.suggestion >= len(m.suggestions) {
		m.suggestion = len(m.suggestions) - 1
	}
	if n := len(m.state.Page.Items); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	return m
}

func (m ReaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.search.Width = max(msg.Width-10, 20)
		return m, nil

	case homeChangedMsg:
		m = m.refresh()
		return m, waitForChange(m.ctx, m.home)

	case spinner.TickMsg:
		if !m.state.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.focus == FocusSearch {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m ReaderModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.focus = FocusList
		m.search.Blur()
		m.suggestion = -1
		return m, nil

	case "down":
		if m.suggestion < len(m.suggestions)-1 {
			m.suggestion++
		}
		return m, nil

	case "up":
		if m.suggestion > -1 {
			m.suggestion--
		}
		return m, nil

	case "enter":
		var query string
		if m.suggestion >= 0 && m.suggestion < len(m.suggestions) {
			query = m.home.Search.Select(m.suggestions[m.suggestion].Title)
			m.search.SetValue(query)
		} else {
			query = m.home.Search.Submit()
		}
		m.home.SetQuery(query)
		m.focus = FocusList
		m.search.Blur()
		m.suggestion = -1
		m.suggestions = nil
		return m, nil
	}

	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.home.Search.Input(m.search.Value())
		m.suggestion = -1
	}
	return m, cmd
}

func (m ReaderModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "/":
		m.focus = FocusSearch
		cmd := m.search.Focus()
		return m, cmd

	case "tab":
		m.home.SetCategory(m.nextCategory(1))
		m.cursor = 0

	case "shift+tab":
		m.home.SetCategory(m.nextCategory(-1))
		m.cursor = 0

	case "right", "l", "n":
		m.home.NextPage()
		m.cursor = 0

	case "left", "h", "p":
		m.home.PrevPage()
		m.cursor = 0

	case "down", "j":
		if m.cursor < len(m.state.Page.Items)-1 {
			m.cursor++
		}

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	}
	return m, nil
}

func (m ReaderModel) nextCategory(step int) models.Category {
	cats := m.state.Categories
	if len(cats) == 0 {
		return models.CategoryAll
	}
	idx := 0
	for i, c := range cats {
		if c == m.state.Category {
			idx = i
			break
		}
	}
	idx = (idx + step + len(cats)) % len(cats)
	return cats[idx]
}

func (m ReaderModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("inkwell"))
	b.WriteString("\n")

	box := searchBoxStyle
	if m.focus == FocusSearch {
		box = activeSearchBoxStyle
	}
	b.WriteString(box.Render(m.search.View()))
	b.WriteString("\n")

	if m.focus == FocusSearch && len(m.suggestions) > 0 {
		var rows []string
		for i, p := range m.suggestions {
			if i == m.suggestion {
				rows = append(rows, selectedItemStyle.Render("› "+p.Title))
			} else {
				rows = append(rows, unselectedItemStyle.Render(p.Title))
			}
		}
		b.WriteString(suggestionBoxStyle.Render(strings.Join(rows, "\n")))
		b.WriteString("\n")
	}

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch {
	case m.state.Loading:
		b.WriteString(m.spinner.View() + " loading posts...\n")
	case len(m.state.Page.Items) == 0:
		b.WriteString(mutedStyle.Render("No posts found."))
		b.WriteString("\n")
	default:
		for i, p := range m.state.Page.Items {
			line := fmt.Sprintf("%s  %s", p.Title, mutedStyle.Render(string(p.Category)))
			if i == m.cursor {
				b.WriteString(selectedItemStyle.Render("› " + line))
				b.WriteString("\n")
				b.WriteString(subtitleStyle.PaddingLeft(4).Render(p.Subtitle))
			} else {
				b.WriteString(unselectedItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	if m.state.Error != "" {
		b.WriteString(errorStyle.Render("refresh failed: " + m.state.Error))
		b.WriteString("\n")
	}

	page := m.state.Page
	b.WriteString(mutedStyle.Render(fmt.Sprintf("\npage %d of %d · %d posts", page.Number, page.TotalPages, page.TotalItems)))
	b.WriteString("\n")

	b.WriteString(helpStyle.Render(strings.Join([]string{
		FormatKey("/", "search"),
		FormatKey("tab", "category"),
		FormatKey("←/→", "page"),
		FormatKey("↑/↓", "select"),
		FormatKey("q", "quit"),
	}, "  ")))
	return b.String()
}

func (m ReaderModel) renderTabs() string {
	tabs := make([]string, 0, len(m.state.Categories))
	for _, c := range m.state.Categories {
		if c == m.state.Category {
			tabs = append(tabs, activeTabStyle.Render(string(c)))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(string(c)))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// Run opens a reader on home until the user quits or ctx ends.
func Run(ctx context.Context, home *views.Home) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	home.Open(ctx)
	defer home.Close()

	p := tea.NewProgram(NewReaderModel(ctx, home), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
