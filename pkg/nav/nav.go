package nav

import (
	"slices"

	"github.com/nixscope/nixscope/pkg/depgraph"
	"github.com/nixscope/nixscope/pkg/store"
)

// Pane identifies one of the three panes. The left pane shows referrers of
// the focused artifact, the middle pane the sibling list the focus was
// selected from, the right pane its dependencies.
type Pane int

const (
	PaneReferrers Pane = iota
	PaneCurrent
	PaneDependencies
)

func (p Pane) String() string {
	switch p {
	case PaneReferrers:
		return "referrers"
	case PaneCurrent:
		return "current"
	case PaneDependencies:
		return "dependencies"
	default:
		return "unknown"
	}
}

// MetricsSource creates metrics bound to a sibling list. The navigation
// state requests fresh metrics whenever a pane's candidate list changes, so
// added sizes are always relative to the visible siblings.
type MetricsSource interface {
	Metrics(members []store.Index) Metrics
}

// paneList is one pane's candidate list: the raw indices from the graph,
// the filtered and sorted view, and the cursor into that view.
type paneList struct {
	raw     []store.Index
	view    []store.Index
	cursor  int
	metrics Metrics
}

// snapshot captures what Back must restore after a selection.
type snapshot struct {
	current paneList
	query   string
}

// State is the navigation state machine. It owns all mutable navigation
// data and is driven by exactly one input event at a time; it performs no
// I/O and holds the graph and metrics source by reference only.
type State struct {
	graph *depgraph.Graph
	src   MetricsSource

	sort      SortMode
	pane      Pane
	searching bool
	query     string

	current   paneList
	referrers paneList
	deps      paneList

	stack []snapshot
}

// NewState creates the initial state: focused on the first of roots, pane
// focus on the current pane, no history, no query.
func NewState(g *depgraph.Graph, src MetricsSource, roots []store.Index, sort SortMode) *State {
	s := &State{graph: g, src: src, sort: sort, pane: PaneCurrent}
	s.current = s.newPaneList(roots)
	s.rebuildSides()
	return s
}

func (s *State) newPaneList(raw []store.Index) paneList {
	l := paneList{raw: raw, metrics: s.src.Metrics(raw)}
	l.view = Order(raw, s.sort, "", l.metrics)
	return l
}

func (s *State) list(p Pane) *paneList {
	switch p {
	case PaneReferrers:
		return &s.referrers
	case PaneDependencies:
		return &s.deps
	default:
		return &s.current
	}
}

// Focus returns the focused artifact: the cursor entry of the current pane.
// ok is false when the current view is empty (e.g. filtered to nothing).
func (s *State) Focus() (store.Index, bool) {
	if len(s.current.view) == 0 {
		return 0, false
	}
	return s.current.view[s.current.cursor], true
}

// ActivePane returns which pane has input focus.
func (s *State) ActivePane() Pane { return s.pane }

// Items returns a pane's filtered, ordered entries.
func (s *State) Items(p Pane) []store.Index { return s.list(p).view }

// Cursor returns a pane's cursor position within its view.
func (s *State) Cursor(p Pane) int { return s.list(p).cursor }

// PaneMetrics returns the metrics bound to a pane's candidate list, for
// displaying the same values the ordering used.
func (s *State) PaneMetrics(p Pane) Metrics { return s.list(p).metrics }

// Sort returns the active sort mode.
func (s *State) Sort() SortMode { return s.sort }

// Searching reports whether keystrokes currently edit the query.
func (s *State) Searching() bool { return s.searching }

// Query returns the active search query, empty when none.
func (s *State) Query() string { return s.query }

// CanGoBack reports whether the back stack is non-empty.
func (s *State) CanGoBack() bool { return len(s.stack) > 0 }

// MoveDown moves the active pane's cursor down one entry; no-op at the end
// of the list. Moving the current pane's cursor changes the focus, so the
// side panes are rebuilt.
func (s *State) MoveDown() { s.moveCursor(1) }

// MoveUp moves the active pane's cursor up one entry; no-op at the start.
func (s *State) MoveUp() { s.moveCursor(-1) }

func (s *State) moveCursor(delta int) {
	l := s.list(s.pane)
	if len(l.view) == 0 {
		return
	}
	next := min(max(l.cursor+delta, 0), len(l.view)-1)
	if next == l.cursor {
		return
	}
	l.cursor = next
	if s.pane == PaneCurrent {
		s.rebuildSides()
	}
}

// MoveLeft shifts pane focus one pane to the left; bounded, so a move left
// from the referrers pane is a no-op, and an empty referrers pane cannot
// take focus.
func (s *State) MoveLeft() {
	switch s.pane {
	case PaneDependencies:
		s.setPane(PaneCurrent)
	case PaneCurrent:
		if len(s.referrers.view) > 0 {
			s.setPane(PaneReferrers)
		}
	}
}

// MoveRight shifts pane focus one pane to the right, bounded; an empty
// dependencies pane cannot take focus.
func (s *State) MoveRight() {
	switch s.pane {
	case PaneReferrers:
		s.setPane(PaneCurrent)
	case PaneCurrent:
		if len(s.deps.view) > 0 {
			s.setPane(PaneDependencies)
		}
	}
}

// setPane moves input focus and re-applies the query filter, which follows
// the active pane.
func (s *State) setPane(p Pane) {
	if s.pane == p {
		return
	}
	prev := s.pane
	s.pane = p
	if s.query != "" {
		s.refreshView(prev)
		s.refreshView(p)
	}
}

// Select activates the cursor entry of a side pane: the previous focus is
// pushed onto the back stack, the side pane's candidate list becomes the
// new current pane with the selection focused, pane focus resets to the
// current pane, and both side panes are recomputed. Selecting in the
// current pane is a no-op (use MoveRight to descend).
func (s *State) Select() {
	if s.pane == PaneCurrent {
		return
	}
	l := s.list(s.pane)
	if len(l.view) == 0 {
		return
	}
	selected := l.view[l.cursor]

	s.stack = append(s.stack, snapshot{current: s.current.copy(), query: s.query})

	// A selection starts a fresh context: the committed filter does not
	// carry over to the new sibling list.
	s.query = ""
	s.searching = false
	s.pane = PaneCurrent
	s.current = s.newPaneList(l.raw)
	if at := slices.Index(s.current.view, selected); at >= 0 {
		s.current.cursor = at
	}
	s.rebuildSides()
}

// Back pops the back stack and restores the previous focus, sibling list,
// cursor, and filter. With an empty stack it is a silent no-op.
func (s *State) Back() {
	if len(s.stack) == 0 {
		return
	}
	snap := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	s.current = snap.current
	s.query = snap.query
	s.searching = false
	s.pane = PaneCurrent
	// Reorder under the possibly-changed sort mode; the cursor stays on the
	// restored focus entry.
	s.refreshView(PaneCurrent)
}

// StartSearch unlocks query editing for the active pane. Focus and cursor
// are unchanged; the previous query is discarded.
func (s *State) StartSearch() {
	s.searching = true
	if s.query != "" {
		s.query = ""
		s.refreshView(s.pane)
	}
}

// TypeRune appends a character to the query and refilters the active pane.
// Ignored outside search mode.
func (s *State) TypeRune(r rune) {
	if !s.searching {
		return
	}
	s.query += string(r)
	s.refreshView(s.pane)
}

// DeleteRune removes the last query character and refilters. Ignored
// outside search mode.
func (s *State) DeleteRune() {
	if !s.searching || s.query == "" {
		return
	}
	runes := []rune(s.query)
	s.query = string(runes[:len(runes)-1])
	s.refreshView(s.pane)
}

// ConfirmSearch leaves search mode and keeps the filter applied.
func (s *State) ConfirmSearch() { s.searching = false }

// CancelSearch leaves search mode and clears the filter.
func (s *State) CancelSearch() {
	s.searching = false
	if s.query != "" {
		s.query = ""
		s.refreshView(s.pane)
	}
}

// CycleSort advances to the next sort mode and reorders the visible panes.
// The graph and size caches are untouched.
func (s *State) CycleSort() {
	s.sort = s.sort.Next()
	s.refreshView(PaneReferrers)
	s.refreshView(PaneCurrent)
	s.refreshView(PaneDependencies)
}

// refreshView recomputes one pane's view, keeping the cursor on the same
// entry when it survives the reorder. A focus change in the current pane
// cascades into a side-pane rebuild.
func (s *State) refreshView(p Pane) {
	l := s.list(p)

	var keep store.Index
	hadCursor := len(l.view) > 0
	if hadCursor {
		keep = l.view[l.cursor]
	}

	query := ""
	if p == s.pane {
		query = s.query
	}
	l.view = Order(l.raw, s.sort, query, l.metrics)

	l.cursor = 0
	if hadCursor {
		if at := slices.Index(l.view, keep); at >= 0 {
			l.cursor = at
		}
	}

	if p == PaneCurrent {
		s.rebuildSides()
	}
}

// rebuildSides derives both side panes from the focused artifact.
func (s *State) rebuildSides() {
	focus, ok := s.Focus()
	if !ok {
		s.referrers = s.newPaneList(nil)
		s.deps = s.newPaneList(nil)
		return
	}
	s.referrers = s.newPaneList(s.graph.Referrers(focus))
	s.deps = s.newPaneList(s.graph.Dependencies(focus))

	if s.pane != PaneCurrent && s.query != "" {
		s.refreshView(s.pane)
	}
}

func (l paneList) copy() paneList {
	l.view = slices.Clone(l.view)
	return l
}
