// Package nav owns the three-pane navigation model of the viewer: the
// focused artifact, its referrers and dependencies, cursor and pane focus,
// selection history, sort modes, and live search.
//
// The state machine is deliberately UI-free. Every transition is an
// in-memory function of the current state and one input event; rendering
// and key decoding live in the terminal layer, which calls the transition
// methods and reads the resulting pane views. Boundary events (cursor at a
// list end, back with an empty history, pane focus at an edge) are silent
// no-ops, never errors.
//
// Policy decisions, fixed here so the behavior stays consistent:
//   - Pane focus movement is bounded at the edges, not cyclic.
//   - Size sorts are descending and break ties by display name.
//   - Confirming a search keeps the filter; cancelling clears it.
package nav
