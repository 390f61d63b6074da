package nav

import (
	"cmp"
	"slices"
	"strings"

	"github.com/nixscope/nixscope/pkg/store"
)

// SortMode selects the ordering of pane entries.
type SortMode int

const (
	// SortName orders alphabetically by display name. Display names are
	// unique within a registry, so this is a total order.
	SortName SortMode = iota
	// SortClosureSize orders by closure size, largest first.
	SortClosureSize
	// SortAddedSize orders by added size, largest first. Entries whose added
	// size is not applicable sort last.
	SortAddedSize
)

// Next returns the following sort mode, cycling through all three.
func (m SortMode) Next() SortMode {
	switch m {
	case SortName:
		return SortClosureSize
	case SortClosureSize:
		return SortAddedSize
	default:
		return SortName
	}
}

func (m SortMode) String() string {
	switch m {
	case SortName:
		return "name"
	case SortClosureSize:
		return "closure size"
	case SortAddedSize:
		return "added size"
	default:
		return "unknown"
	}
}

// ParseSortMode maps a configuration string to a sort mode.
func ParseSortMode(s string) (SortMode, bool) {
	switch s {
	case "name", "":
		return SortName, true
	case "closure", "closure size":
		return SortClosureSize, true
	case "added", "added size":
		return SortAddedSize, true
	}
	return SortName, false
}

// Metrics supplies the per-index values ordering needs. Added size is
// context-bound: implementations are created per sibling list, and the
// second result is false when the metric is not applicable.
type Metrics interface {
	DisplayName(store.Index) string
	ClosureSize(store.Index) int64
	AddedSize(store.Index) (int64, bool)
}

// Order filters items by a case-insensitive substring query on the display
// name and sorts the remainder by mode. An empty query is the identity
// filter. The input slice is not modified; ordering is deterministic for a
// given graph because all ties fall back to the unique display name.
func Order(items []store.Index, mode SortMode, query string, m Metrics) []store.Index {
	q := strings.ToLower(query)
	out := make([]store.Index, 0, len(items))
	for _, i := range items {
		if q == "" || strings.Contains(strings.ToLower(m.DisplayName(i)), q) {
			out = append(out, i)
		}
	}

	slices.SortFunc(out, func(a, b store.Index) int {
		if c := compareBySize(a, b, mode, m); c != 0 {
			return c
		}
		return cmp.Compare(m.DisplayName(a), m.DisplayName(b))
	})
	return out
}

func compareBySize(a, b store.Index, mode SortMode, m Metrics) int {
	switch mode {
	case SortClosureSize:
		return cmp.Compare(m.ClosureSize(b), m.ClosureSize(a))
	case SortAddedSize:
		return cmp.Compare(addedOrSentinel(b, m), addedOrSentinel(a, m))
	default:
		return 0
	}
}

// addedOrSentinel folds the not-applicable case below every real value.
func addedOrSentinel(i store.Index, m Metrics) int64 {
	v, ok := m.AddedSize(i)
	if !ok {
		return -1
	}
	return v
}
