package tui

import (
	"context"
	"strings"

	"famtree/internal/analysis"
	"famtree/internal/builder"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// MsgAnalysisReady carries a finished build and analysis.
type MsgAnalysisReady struct {
	Build  builder.Result
	Result analysis.AnalysisResult
}

// MsgError indicates an error occurred.
type MsgError error

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.DetailsViewport.Width = msg.Width / 2
		m.DetailsViewport.Height = max(msg.Height-8, 3) // minus title, footer and borders
		m.refreshDetails()
		return m, nil

	case MsgAnalysisReady:
		m.Loading = false
		m.Build = msg.Build
		m.Result = msg.Result
		m.resetFilter()
		m.SelectedIdx = 0
		m.refreshDetails()
		return m, nil

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.performSearch()
				return m, nil
			case tea.KeyEsc:
				m.clearSearch()
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			m.performSearch() // filter as you type
			return m, cmd
		}

		if m.ShowHelp {
			switch msg.String() {
			case "?", "esc", "q":
				m.ShowHelp = false
			case "up", "k":
				m.HelpScrollY = max(m.HelpScrollY-1, 0)
			case "down", "j":
				m.HelpScrollY++
			}
			return m, nil
		}

		if m.ShowDiagnostics {
			switch msg.String() {
			case "d", "esc", "q":
				m.ShowDiagnostics = false
			case "up", "k":
				m.DiagnosticsScrollY = max(m.DiagnosticsScrollY-1, 0)
			case "down", "j":
				m.DiagnosticsScrollY++
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.SearchActive {
				m.clearSearch()
				return m, nil
			}
			m.RightFocus = false
		case "tab":
			m.RightFocus = !m.RightFocus
		case "up", "k":
			if m.RightFocus {
				m.DetailsViewport.ScrollUp(1)
			} else if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.refreshDetails()
			}
		case "down", "j":
			if m.RightFocus {
				m.DetailsViewport.ScrollDown(1)
			} else if m.SelectedIdx < len(m.FilteredIndices)-1 {
				m.SelectedIdx++
				m.refreshDetails()
			}
		case "d":
			m.ShowDiagnostics = true
			m.DiagnosticsScrollY = 0
		case "?":
			m.ShowHelp = true
			m.HelpScrollY = 0
			if m.HelpContent == "" {
				m.HelpContent = renderHelp(m.WindowSize.Width * 80 / 100)
			}
		case "r":
			m.Loading = true
			return m, LoadCmd(m.opts)
		case "/", "w":
			m.InputMode = true
			m.InputBuffer.Focus()
			m.InputBuffer.SetValue("")
			return m, textinput.Blink
		}
	}

	return m, cmd
}

func (m *AppModel) resetFilter() {
	m.SearchActive = false
	m.FilteredIndices = make([]int, len(m.Result.Families))
	for i := range m.Result.Families {
		m.FilteredIndices[i] = i
	}
}

func (m *AppModel) clearSearch() {
	m.InputMode = false
	m.InputBuffer.Blur()
	m.InputBuffer.SetValue("")
	m.performSearch()
}

// performSearch keeps families whose root, or any occurrence below it,
// contains the search term.
func (m *AppModel) performSearch() {
	term := strings.ToLower(strings.TrimSpace(m.InputBuffer.Value()))
	if term == "" {
		m.resetFilter()
	} else {
		m.SearchActive = true
		var result []int
		for i, f := range m.Result.Families {
			if matchesFamily(f, term) {
				result = append(result, i)
			}
		}
		m.FilteredIndices = result
	}

	// Bounds check
	if m.SelectedIdx >= len(m.FilteredIndices) {
		m.SelectedIdx = max(len(m.FilteredIndices)-1, 0)
	}
	m.refreshDetails()
}

func matchesFamily(f analysis.FamilyResult, term string) bool {
	if strings.Contains(strings.ToLower(f.Name), term) {
		return true
	}
	for _, p := range f.LongestPaths {
		if strings.Contains(strings.ToLower(p.RootPath), term) {
			return true
		}
	}
	return false
}

func (m *AppModel) refreshDetails() {
	f, ok := m.SelectedFamily()
	if !ok {
		m.DetailsViewport.SetContent("No family selected.")
		return
	}
	m.DetailsViewport.SetContent(renderDetails(f, m.Result, m.DetailsViewport.Width))
	m.DetailsViewport.GotoTop()
}

// LoadCmd reads the reports and analyses them in the background.
func LoadCmd(opts Options) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		build, err := builder.BuildPath(ctx, opts.ReportPath, builder.WithLogger(opts.Logger))
		if err != nil {
			return MsgError(err)
		}
		res, err := analysis.NewAnalyzer(
			analysis.WithWorkers(opts.Workers),
			analysis.WithLogger(opts.Logger),
		).Analyze(ctx, build.Containers)
		if err != nil {
			return MsgError(err)
		}
		return MsgAnalysisReady{Build: build, Result: res}
	}
}
