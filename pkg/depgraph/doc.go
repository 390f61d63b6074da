// Package depgraph provides the dependency graph over a registry's index
// space: forward (dependency) and reverse (referrer) adjacency, plus
// reachability queries.
//
// The graph is built once from a fully interned artifact set and is
// immutable afterwards, so it can be shared by reference across the session
// without synchronization. Construction validates the two store invariants:
// every referenced index must be registered (no dangling references) and the
// graph must be acyclic. Violations are treated as corruption in the source
// metadata and fail construction with a typed error carrying enough context
// to diagnose the broken store.
//
// Traversals use explicit worklists rather than recursion: store graphs
// routinely exceed depth 100, and the visited [Set] guarantees each node is
// processed once even under heavy edge sharing.
package depgraph
