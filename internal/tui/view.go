package tui

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"famtree/internal/analysis"
	"famtree/internal/model"
)

//go:embed help.md
var helpMarkdown string

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	adviceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // Orange
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))  // Sky Blue/Cyan

	activeColor = lipgloss.Color("205")
	borderColor = lipgloss.Color("63")
)

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Reading family reports... please wait.\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press q to quit.\n", m.Err)
	}
	if m.ShowHelp {
		return m.renderHelpDialog()
	}
	if m.ShowDiagnostics {
		return m.renderDiagnosticsPopup()
	}

	// Subtracting 6 for horizontal margin (borders x2 + buffer)
	netWidth := max(m.WindowSize.Width-6, 20)
	leftWidth := netWidth / 2
	rightWidth := netWidth - leftWidth

	// Total box height (including borders)
	boxHeight := max(m.WindowSize.Height-6, 6)
	interiorHeight := max(boxHeight-2, 2)

	// LEFT PANEL: family list
	var leftView strings.Builder
	leftView.WriteString(headingStyle.Render(fmt.Sprintf("Families (%d)", len(m.FilteredIndices))))
	leftView.WriteString("\n\n")

	// Windowing: header is 2 lines
	visibleItems := max(interiorHeight-2, 1)
	startIdx, endIdx := 0, len(m.FilteredIndices)
	if len(m.FilteredIndices) > visibleItems {
		if m.SelectedIdx >= visibleItems/2 {
			startIdx = m.SelectedIdx - visibleItems/2
		}
		if startIdx+visibleItems > len(m.FilteredIndices) {
			startIdx = len(m.FilteredIndices) - visibleItems
		}
		endIdx = startIdx + visibleItems
	}

	missing := missingSet(m.Result)
	orphans := orphanSet(m.Result)
	for i := startIdx; i < endIdx; i++ {
		idx := m.FilteredIndices[i]
		f := m.Result.Families[idx]

		line := fmt.Sprintf("%3d. %s %s", idx+1, familyIcon(f, missing, orphans), f.Name)
		if len(f.Circular) > 0 {
			line += " (circular)"
		}
		line += fmt.Sprintf("  [%d]", f.Occurrences)
		line = truncate(line, leftWidth-2)

		style := normalStyle
		if i == m.SelectedIdx {
			style = selectedStyle
		}
		leftView.WriteString(style.Render(line))
		leftView.WriteString("\n")
	}
	if len(m.FilteredIndices) == 0 {
		leftView.WriteString(dimStyle.Render("  no families match"))
	}

	lBorder, rBorder := activeColor, borderColor
	if m.RightFocus {
		lBorder, rBorder = borderColor, activeColor
	}

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lBorder).
		Render(strings.TrimSuffix(leftView.String(), "\n"))

	// RIGHT PANEL: details of the selected family
	rightContent := headingStyle.Render("Details") + "\n\n" + m.DetailsViewport.View()
	right := lipgloss.NewStyle().
		Width(rightWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(rBorder).
		Render(rightContent)

	header := titleStyle.Render("famtree") + dimStyle.Render(fmt.Sprintf("  run %s  %d containers  %d skipped rows",
		shortID(m.Result.RunID), m.Result.Containers, len(m.Build.Diagnostics)))

	help := "↑/↓: Navigate • Tab: Details • /: Search • d: Skipped rows • r: Reload • ?: Help • q: Quit"
	if m.RightFocus {
		help = "Details: ↑/↓: Scroll • Tab: Return to Families • ?: Help • q: Quit"
	}
	footer := "\n" + dimStyle.Render(help)
	if m.InputMode {
		footer = fmt.Sprintf("\nSearch: %s", m.InputBuffer.View())
	} else if m.SearchActive {
		footer = fmt.Sprintf("\nFilter: %q (Esc to clear) • %s", m.InputBuffer.Value(), help)
	}

	return header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right) + footer
}

// renderDetails writes the detail pane text for one family.
func renderDetails(f analysis.FamilyResult, r analysis.AnalysisResult, width int) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render(f.Ref().String()))
	sb.WriteString("\n")
	if f.HasRoot {
		fmt.Fprintf(&sb, "File: %s\n", f.FilePath)
	} else {
		sb.WriteString(adviceStyle.Render("No report rows for the root family itself."))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Occurrences: %d\n", f.Occurrences)

	fmt.Fprintf(&sb, "\n%s\n", headingStyle.Render(fmt.Sprintf("Branches (%d)", len(f.LongestPaths))))
	for _, p := range f.LongestPaths {
		sb.WriteString(pathStyle.Render(wrap(model.IconNested+" "+p.RootPath, width-2)))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  %s\n", dimStyle.Render(p.CategoryPath))
	}

	if len(f.Circular) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", headingStyle.Render("Circular nesting"))
		for _, c := range f.Circular {
			sb.WriteString(adviceStyle.Render(fmt.Sprintf("%s level %d: %s", model.IconCircular, c.Level, c.Family)))
			sb.WriteString("\n")
			fmt.Fprintf(&sb, "  %s\n", wrap(c.Path, width-4))
		}
	}

	var missing []string
	for _, ref := range r.Missing {
		for _, p := range f.LongestPaths {
			if strings.Contains(p.RootPath+model.Separator, model.Separator+ref.Name+model.Separator) {
				missing = append(missing, ref.String())
				break
			}
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", headingStyle.Render("Missing from library"))
		for _, s := range missing {
			fmt.Fprintf(&sb, "%s %s\n", model.IconMissing, s)
		}
	}
	return sb.String()
}

func (m *AppModel) renderDiagnosticsPopup() string {
	w, h := m.WindowSize.Width, m.WindowSize.Height
	if w < 20 || h < 10 {
		return "Window too small"
	}

	popupWidth := min(max(w*90/100, 40), w-4)
	popupHeight := max(h-6, 5)

	var lines []string
	if len(m.Build.Diagnostics) == 0 {
		lines = []string{"No rows were skipped."}
	}
	for _, d := range m.Build.Diagnostics {
		lines = append(lines, truncate(d.String(), popupWidth-4))
	}
	contentHeight := popupHeight - 4 // minus border and footer

	startY := min(m.DiagnosticsScrollY, len(lines)-contentHeight)
	startY = max(startY, 0)
	m.DiagnosticsScrollY = startY
	endY := min(startY+contentHeight, len(lines))

	title := titleStyle.Render(fmt.Sprintf("Skipped rows (%d)", len(m.Build.Diagnostics)))
	footer := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("\n↑/↓: Scroll • d/Esc: Close")

	dialog := lipgloss.NewStyle().
		Width(popupWidth).
		Height(popupHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("208")). // Orange
		Padding(0, 1).
		Render(title + "\n\n" + strings.Join(lines[startY:endY], "\n") + footer)

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, dialog)
}

func (m *AppModel) renderHelpDialog() string {
	w, h := m.WindowSize.Width, m.WindowSize.Height
	if w < 20 || h < 10 {
		return "Window too small"
	}

	helpWidth := min(max(w*80/100, 40), w-4)
	helpHeight := max(h-6, 5)

	lines := strings.Split(m.HelpContent, "\n")
	// Adjust height for title and border
	contentHeight := helpHeight - 2

	startY := min(m.HelpScrollY, len(lines)-contentHeight)
	startY = max(startY, 0)
	m.HelpScrollY = startY // Correct it back
	endY := min(startY+contentHeight, len(lines))

	dialog := lipgloss.NewStyle().
		Width(helpWidth).
		Height(helpHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1).
		Render(strings.Join(lines[startY:endY], "\n"))

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, dialog)
}

// renderHelp renders the embedded help markdown, falling back to the raw
// text when rendering fails.
func renderHelp(width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(max(width-4, 40)),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, LoadCmd(m.opts))
}

func familyIcon(f analysis.FamilyResult, missing, orphans map[model.FamilyRef]bool) string {
	switch {
	case len(f.Circular) > 0:
		return model.IconCircular
	case !f.HasRoot || missing[f.Ref()]:
		return model.IconMissing
	case orphans[f.Ref()]:
		return model.IconOrphan
	}
	return model.IconRoot
}

func missingSet(r analysis.AnalysisResult) map[model.FamilyRef]bool {
	set := make(map[model.FamilyRef]bool, len(r.Missing))
	for _, ref := range r.Missing {
		set[ref] = true
	}
	return set
}

func orphanSet(r analysis.AnalysisResult) map[model.FamilyRef]bool {
	set := make(map[model.FamilyRef]bool, len(r.NotNested))
	for _, root := range r.NotNested {
		set[root.Ref()] = true
	}
	return set
}

func truncate(s string, width int) string {
	if width < 4 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func wrap(s string, width int) string {
	if width < 10 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
