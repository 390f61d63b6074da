// Package tui implements the interactive closure browser.
//
// The browser shows three panes: referrers of the focused path on the
// left, its sibling list in the middle, its dependencies on the right.
// Navigation semantics live in [nav.State]; this package translates key
// events into state transitions and renders the result.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixscope/nixscope/pkg/depgraph"
	"github.com/nixscope/nixscope/pkg/nav"
	"github.com/nixscope/nixscope/pkg/sizes"
	"github.com/nixscope/nixscope/pkg/store"
)

// metrics binds the size engine to one sibling list, implementing
// [nav.Metrics]. Closure sizes are engine-wide and memoized; added sizes
// are cached on the context and resolved on first query.
type metrics struct {
	reg *store.Registry
	eng *sizes.Engine
	ctx *sizes.Context
}

func (m *metrics) DisplayName(i store.Index) string { return m.reg.DisplayName(i) }
func (m *metrics) ClosureSize(i store.Index) int64  { return m.eng.ClosureSize(i) }
func (m *metrics) AddedSize(i store.Index) (int64, bool) {
	return m.ctx.AddedSize(i)
}

// warm forces the context's added sizes to resolve. Called from a tea.Cmd
// so the first query of a large sibling list happens off the UI loop.
func (m *metrics) warm() {
	if members := m.ctx.Members(); len(members) > 0 {
		m.ctx.AddedSize(members[0])
	}
}

// metricsSource creates context-bound metrics for the navigation state.
type metricsSource struct {
	reg *store.Registry
	eng *sizes.Engine
}

func (s metricsSource) Metrics(members []store.Index) nav.Metrics {
	return &metrics{reg: s.reg, eng: s.eng, ctx: s.eng.NewContext(members)}
}

// contextWarmedMsg reports that one context's added sizes are resolved.
// Results for contexts the user has navigated away from are identified by
// generation and dropped.
type contextWarmedMsg struct {
	gen uint64
}

// Model is the bubbletea model for the browser.
type Model struct {
	reg   *store.Registry
	graph *depgraph.Graph
	state *nav.State

	keys keyMap
	help help.Model

	width    int
	height   int
	showHelp bool

	// warmedGen tracks the newest context whose warm-up has been
	// scheduled, so focus churn does not pile up duplicate commands.
	warmedGen uint64
}

// NewModel creates the browser model focused on the first root.
func NewModel(reg *store.Registry, g *depgraph.Graph, roots []store.Index, sort nav.SortMode) Model {
	engine := sizes.New(g, reg)
	src := metricsSource{reg: reg, eng: engine}
	return Model{
		reg:   reg,
		graph: g,
		state: nav.NewState(g, src, roots, sort),
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
}

// Init schedules the warm-up of the initial pane contexts.
func (m Model) Init() tea.Cmd {
	return m.warmCmd()
}

// warmCmd resolves the current pane's added sizes in the background. The
// returned message carries the context generation so stale completions
// are ignored.
func (m *Model) warmCmd() tea.Cmd {
	cur, ok := m.state.PaneMetrics(nav.PaneCurrent).(*metrics)
	if !ok || cur.ctx.Generation() <= m.warmedGen {
		return nil
	}
	m.warmedGen = cur.ctx.Generation()

	gen := cur.ctx.Generation()
	return func() tea.Msg {
		cur.warm()
		return contextWarmedMsg{gen: gen}
	}
}

// Update handles one event.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case contextWarmedMsg:
		// A re-render picks up the resolved values; nothing to do when the
		// user has already moved to a newer context.
		_ = msg.gen
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state.Searching() {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// updateSearch routes keystrokes into the query while search is active.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.state.CancelSearch()
	case tea.KeyEnter:
		m.state.ConfirmSearch()
	case tea.KeyBackspace:
		m.state.DeleteRune()
	case tea.KeyRunes, tea.KeySpace:
		for _, r := range msg.Runes {
			m.state.TypeRune(r)
		}
	}
	cmd := m.warmCmd()
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, keys.Up):
		m.state.MoveUp()
	case key.Matches(msg, keys.Down):
		m.state.MoveDown()
	case key.Matches(msg, keys.Left):
		m.state.MoveLeft()
	case key.Matches(msg, keys.Right):
		m.state.MoveRight()
	case key.Matches(msg, keys.Select):
		m.state.Select()
	case key.Matches(msg, keys.Back):
		m.state.Back()
	case key.Matches(msg, keys.Search):
		m.state.StartSearch()
	case key.Matches(msg, keys.Sort):
		m.state.CycleSort()
	}
	cmd := m.warmCmd()
	return m, cmd
}

// Run starts the browser and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, reg *store.Registry, g *depgraph.Graph, roots []store.Index, sort nav.SortMode) error {
	p := tea.NewProgram(
		NewModel(reg, g, roots, sort),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
