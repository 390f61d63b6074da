package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nixscope/nixscope/pkg/nav"
	"github.com/nixscope/nixscope/pkg/store"
)

var (
	colorAccent = lipgloss.Color("36")
	colorText   = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")

	styleActiveBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorAccent)
	stylePaneBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFaint)

	stylePaneTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleSelected  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleEntry     = lipgloss.NewStyle().Foreground(colorText)
	styleSize      = lipgloss.NewStyle().Foreground(colorMuted)
	styleStatus    = lipgloss.NewStyle().Foreground(colorMuted)
	styleQuery     = lipgloss.NewStyle().Foreground(colorAccent)
)

const statusLines = 3 // path line, status line, help line

// View renders the three panes, the status bar, and the help line.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	if m.showHelp {
		return m.helpView()
	}

	paneWidth := m.width/3 - 2
	paneHeight := m.height - statusLines - 2
	if paneHeight < 3 {
		paneHeight = 3
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.paneView(nav.PaneReferrers, paneWidth, paneHeight),
		m.paneView(nav.PaneCurrent, paneWidth, paneHeight),
		m.paneView(nav.PaneDependencies, paneWidth, paneHeight),
	)

	return panes + "\n" + m.statusView()
}

// paneView renders one pane with its title and visible window of entries.
func (m Model) paneView(p nav.Pane, width, height int) string {
	items := m.state.Items(p)
	cursor := m.state.Cursor(p)
	met := m.state.PaneMetrics(p)

	title := stylePaneTitle.Render(paneTitle(p)) +
		styleSize.Render(fmt.Sprintf(" (%d)", len(items)))

	// Window the list around the cursor.
	visible := height - 1
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(start+visible, len(items))

	lines := []string{title}
	for i := start; i < end; i++ {
		lines = append(lines, m.entryLine(items[i], met, i == cursor && p == m.state.ActivePane(), width))
	}

	body := strings.Join(lines, "\n")
	style := stylePaneBorder
	if p == m.state.ActivePane() {
		style = styleActiveBorder
	}
	return style.Width(width).Height(height).Render(body)
}

// entryLine renders one entry: name left, size right, per the sort mode.
func (m Model) entryLine(i store.Index, met nav.Metrics, selected bool, width int) string {
	size := sizeLabel(i, met, m.state.Sort())

	name := met.DisplayName(i)
	avail := width - lipgloss.Width(size) - 3
	if avail < 4 {
		avail = 4
	}
	if lipgloss.Width(name) > avail {
		r := []rune(name)
		if len(r) > avail-1 {
			r = r[:avail-1]
		}
		name = string(r) + "…"
	}

	pad := width - lipgloss.Width(name) - lipgloss.Width(size) - 2
	if pad < 1 {
		pad = 1
	}

	line := name + strings.Repeat(" ", pad) + size
	if selected {
		return styleSelected.Render("▸" + line)
	}
	return styleEntry.Render(" " + line)
}

// sizeLabel picks the displayed size: added size when sorting by it
// (with a dash for roots, where it is not applicable), closure size
// otherwise.
func sizeLabel(i store.Index, met nav.Metrics, mode nav.SortMode) string {
	if mode == nav.SortAddedSize {
		added, ok := met.AddedSize(i)
		if !ok {
			return styleSize.Render("—")
		}
		return styleSize.Render(humanize.Bytes(uint64(added)))
	}
	return styleSize.Render(humanize.Bytes(uint64(met.ClosureSize(i))))
}

// statusView renders the focused path details and the key hint line.
func (m Model) statusView() string {
	var path, status string

	if focus, ok := m.state.Focus(); ok {
		info := m.reg.Info(focus)
		signed := "unsigned"
		if info.Signed {
			signed = "signed"
		}
		path = styleStatus.Render(m.reg.Path(focus).Full)
		status = styleStatus.Render(fmt.Sprintf("nar %s · closure %s · %s",
			humanize.Bytes(uint64(info.NarSize)),
			humanize.Bytes(uint64(info.ClosureSize)),
			signed))
	} else {
		path = styleStatus.Render("no match")
		status = ""
	}

	sortLabel := styleStatus.Render("sort: " + m.state.Sort().String())
	if m.state.Searching() {
		sortLabel += styleQuery.Render("  /" + m.state.Query() + "▌")
	} else if q := m.state.Query(); q != "" {
		sortLabel += styleQuery.Render("  filter: " + q)
	}

	hints := m.help.ShortHelpView(m.keys.ShortHelp())

	return path + "\n" + status + "  " + sortLabel + "\n" + hints
}

// helpView renders the full-screen help overlay.
func (m Model) helpView() string {
	title := stylePaneTitle.Render("nixscope keys")
	body := m.help.FullHelpView(m.keys.FullHelp())
	back := styleStatus.Render("press ? to return")
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n\n" + body + "\n\n" + back)
}

func paneTitle(p nav.Pane) string {
	switch p {
	case nav.PaneReferrers:
		return "Referrers"
	case nav.PaneCurrent:
		return "Closure"
	case nav.PaneDependencies:
		return "Dependencies"
	default:
		return "?"
	}
}
