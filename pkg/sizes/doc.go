// Package sizes computes the two headline metrics of the viewer: closure
// size and added size.
//
// Closure size of an index is the sum of declared NAR sizes over its forward
// closure, each member counted exactly once no matter how many internal
// paths reach it. It is context-free and memoized per index for the lifetime
// of the engine.
//
// Added size is context-dependent: relative to a root [Context] (the sibling
// set currently under comparison), the added size of a member is the total
// size of the closure members reachable from it and from no other sibling —
// what would be reclaimed if only that member were removed. It is strictly
// less than or equal to closure size, with equality only when the member
// shares nothing with its siblings. Indices outside the context have no
// meaningful added size and report a not-applicable result instead of a
// number.
//
// An [Engine] is safe for concurrent use, so the UI can resolve metrics on
// background goroutines while navigation continues.
package sizes
