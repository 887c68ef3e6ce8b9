package tui

import (
	"famtree/internal/analysis"
	"famtree/internal/builder"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// Options says where the TUI loads its reports from.
type Options struct {
	ReportPath string
	Workers    int
	Logger     zerolog.Logger
}

// AppModel holds the TUI state.
type AppModel struct {
	opts Options

	// Data
	Result  analysis.AnalysisResult
	Build   builder.Result
	Loading bool
	Err     error

	// UI State
	SelectedIdx int
	RightFocus  bool // Tab moves focus to the details pane
	WindowSize  tea.WindowSizeMsg

	// Popups
	ShowDiagnostics    bool
	DiagnosticsScrollY int
	ShowHelp           bool
	HelpContent        string
	HelpScrollY        int

	// Search State
	InputMode       bool
	InputBuffer     textinput.Model
	FilteredIndices []int // Indices of Result.Families to show
	SearchActive    bool

	// Components
	DetailsViewport viewport.Model
}

// InitialModel returns the initial state.
func InitialModel(opts Options) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Family name..."
	ti.CharLimit = 80
	ti.Width = 30

	return AppModel{
		opts:            opts,
		Loading:         true,
		InputBuffer:     ti,
		DetailsViewport: viewport.New(40, 10),
	}
}

// SelectedFamily returns the family under the cursor.
func (m AppModel) SelectedFamily() (analysis.FamilyResult, bool) {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.FilteredIndices) {
		return analysis.FamilyResult{}, false
	}
	return m.Result.Families[m.FilteredIndices[m.SelectedIdx]], true
}
