// Package nix is the store metadata collaborator: it shells out to the nix
// CLI to fetch, in one batch, the metadata needed to build a dependency
// graph for a set of root paths.
//
// # Overview
//
// [Client.QueryClosure] resolves the requested installables (store paths,
// profiles, flake references) and runs
//
//	nix path-info --json --recursive --closure-size <roots...>
//
// decoding the per-path narSize, references, signatures, closureSize, and
// deriver fields. The result covers the full closure, so the viewer never
// re-queries the store during navigation.
//
// # Caching
//
// Batches are cached on disk keyed by (store URL, derivation mode, roots).
// Store paths are immutable once created, so cached batches only go stale
// when a profile starts pointing at new roots; the TTL covers that.
//
// # Default roots
//
// When invoked without arguments, [DefaultRoots] falls back to the system
// profile and the per-user profile, matching what an operator most likely
// wants to inspect.
package nix
