package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nixscope/nixscope/pkg/cache"
	"github.com/nixscope/nixscope/pkg/depgraph"
	"github.com/nixscope/nixscope/pkg/integrations/nix"
	"github.com/nixscope/nixscope/pkg/store"
)

// closure bundles everything loaded for one invocation.
type closure struct {
	reg   *store.Registry
	graph *depgraph.Graph
	roots []store.Index
}

// openCache picks the cache backend for this invocation.
func openCache(cfg Config, noCache bool) cache.Cache {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// loadClosure queries the store for the closure of the given installables
// (or the default profiles when none are given) and assembles the graph.
func loadClosure(ctx context.Context, client *nix.Client, installables []string) (*closure, error) {
	logger := loggerFromContext(ctx)

	if len(installables) == 0 {
		roots, err := nix.DefaultRoots()
		if err != nil {
			return nil, err
		}
		logger.Debug("no paths given, using default profiles", "roots", roots)
		installables = roots
	}

	prog := newProgress(logger)
	sp := newSpinnerWithContext(ctx, "Querying store paths...")
	sp.Start()
	batch, err := client.QueryClosure(ctx, installables)
	sp.Stop()
	if err != nil {
		if sp.Cancelled() {
			return nil, ctx.Err()
		}
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d store paths", len(batch.Infos)))

	return assemble(batch)
}

// assemble interns every path of a batch and builds the dependency graph.
// Paths are interned in sorted order so indices are stable across runs
// with the same closure.
func assemble(batch *nix.Batch) (*closure, error) {
	reg := store.NewRegistry()

	paths := make([]string, 0, len(batch.Infos))
	for p := range batch.Infos {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if _, err := reg.Intern(p, batch.Infos[p]); err != nil {
			return nil, err
		}
	}

	refs := make([][]store.Index, reg.Len())
	for _, p := range paths {
		i, _ := reg.Lookup(p)
		info := batch.Infos[p]
		row := make([]store.Index, 0, len(info.References))
		for _, ref := range info.References {
			if ref == p {
				// Store paths routinely list themselves; the graph only
				// tracks edges between distinct paths.
				continue
			}
			j, ok := reg.Lookup(ref)
			if !ok {
				return nil, fmt.Errorf("%s references %s, which is missing from the closure", p, ref)
			}
			row = append(row, j)
		}
		refs[i] = row
	}

	g, err := depgraph.Build(reg.Len(), refs)
	if err != nil {
		return nil, describeGraphError(err, reg)
	}

	roots := make([]store.Index, 0, len(batch.Roots))
	for _, r := range batch.Roots {
		i, ok := reg.Lookup(r)
		if !ok {
			return nil, fmt.Errorf("root %s is missing from the closure", r)
		}
		roots = append(roots, i)
	}
	if len(roots) == 0 {
		return nil, errors.New("store query returned no roots")
	}

	return &closure{reg: reg, graph: g, roots: roots}, nil
}

// describeGraphError rewrites index-based graph errors in terms of store
// paths so the operator can see which metadata is corrupt.
func describeGraphError(err error, reg *store.Registry) error {
	var cycle *depgraph.CycleError
	if errors.As(err, &cycle) {
		parts := make([]string, len(cycle.Path))
		for i, n := range cycle.Path {
			parts[i] = reg.Path(n).Name
		}
		return fmt.Errorf("store metadata contains a dependency cycle: %s", strings.Join(parts, " -> "))
	}

	var dangling *depgraph.DanglingError
	if errors.As(err, &dangling) {
		return fmt.Errorf("store metadata for %s names an unregistered reference", reg.Path(dangling.From).Full)
	}
	return err
}
