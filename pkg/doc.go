// Package pkg provides the core libraries for nixscope.
//
// # Overview
//
// nixscope inspects the dependency graph of a content-addressed store.
// The pkg directory is organized by concern:
//
//  1. [store] - Path parsing, interning, and display-name disambiguation
//  2. [depgraph] - Immutable dependency/referrer adjacency over the index space
//  3. [sizes] - Closure-size and added-size computation with caching
//  4. [nav] - The three-pane navigation state machine
//  5. [cache] - On-disk caching of store metadata batches
//  6. [integrations/nix] - The nix CLI collaborator
//  7. [render] - Graphviz export of the dependency graph
//
// # Data flow
//
// The typical flow through nixscope:
//
//	nix path-info --json --recursive --closure-size
//	         ↓
//	    [integrations/nix] (one metadata batch per invocation, cached on disk)
//	         ↓
//	    [store] (intern paths into dense indices)
//	         ↓
//	    [depgraph] (validate references, build adjacency)
//	         ↓
//	    [sizes] + [nav] (queried interactively by internal/tui)
//
// [store]: github.com/nixscope/nixscope/pkg/store
// [depgraph]: github.com/nixscope/nixscope/pkg/depgraph
// [sizes]: github.com/nixscope/nixscope/pkg/sizes
// [nav]: github.com/nixscope/nixscope/pkg/nav
// [cache]: github.com/nixscope/nixscope/pkg/cache
// [integrations/nix]: github.com/nixscope/nixscope/pkg/integrations/nix
// [render]: github.com/nixscope/nixscope/pkg/render
package pkg
