// Package store models entries of a content-addressed package store and
// interns them into a dense index space.
//
// A store path like /nix/store/b6gvzjyb2pg0kjfwrjmg1vfhpfzyqr3v-hello-2.12
// is identified by the hash portion of its base name. The [Registry] assigns
// each interned path a stable [Index]; every other package (graph, sizes,
// navigation) addresses paths by index rather than by string, which keeps
// adjacency and cache structures compact even for stores with tens of
// thousands of entries.
//
// Indices are stable for the lifetime of one registry and are never reused
// or reassigned. Registries are append-only: paths can be interned but not
// removed.
package store
