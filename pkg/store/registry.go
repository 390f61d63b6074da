package store

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrConflictingInfo is returned by [Registry.Intern] when the same path
	// is interned twice with different metadata. This is a defensive check
	// against malformed collaborator output; interning identical metadata
	// twice is idempotent and returns the original index.
	ErrConflictingInfo = errors.New("conflicting metadata for store path")

	// ErrUnknownIndex is returned by accessors when the index was not
	// produced by this registry.
	ErrUnknownIndex = errors.New("unknown registry index")
)

// Index is a dense integer handle for one interned store path. Indices are
// assigned in interning order, starting at 0, and remain stable for the
// lifetime of the registry.
type Index int

// Info is the collaborator-supplied metadata for one store path. It is
// immutable once interned.
type Info struct {
	NarSize     int64    // declared on-disk size in bytes, excluding references
	ClosureSize int64    // store-reported closure size; 0 when not supplied
	Signed      bool     // trust flag, supplied externally and display-only
	References  []string // full store paths of direct dependencies
	Deriver     string   // originating derivation path, optional
}

func (a Info) equal(b Info) bool {
	return a.NarSize == b.NarSize &&
		a.ClosureSize == b.ClosureSize &&
		a.Signed == b.Signed &&
		a.Deriver == b.Deriver &&
		slices.Equal(a.References, b.References)
}

// Registry interns store paths and their metadata into a dense index space.
// It is append-only and not safe for concurrent mutation; once fully
// populated it is read-only and may be shared freely.
type Registry struct {
	byPath  map[string]Index
	paths   []Path
	infos   []Info
	display []string
	dirty   bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string]Index)}
}

// Intern registers a store path with its metadata and returns its index.
// Interning the same path again with equal metadata returns the existing
// index; conflicting metadata yields ErrConflictingInfo. The path itself
// must parse as a store path.
func (r *Registry) Intern(full string, info Info) (Index, error) {
	if i, ok := r.byPath[full]; ok {
		if !r.infos[i].equal(info) {
			return 0, fmt.Errorf("%w: %s", ErrConflictingInfo, full)
		}
		return i, nil
	}
	p, err := ParsePath(full)
	if err != nil {
		return 0, err
	}
	i := Index(len(r.paths))
	r.byPath[full] = i
	r.paths = append(r.paths, p)
	r.infos = append(r.infos, info)
	r.dirty = true
	return i, nil
}

// Len returns the number of interned paths.
func (r *Registry) Len() int { return len(r.paths) }

// Lookup returns the index for a full store path, if interned.
func (r *Registry) Lookup(full string) (Index, bool) {
	i, ok := r.byPath[full]
	return i, ok
}

// Path returns the parsed path for an index. Indices not produced by this
// registry panic; callers hold indices only by interning.
func (r *Registry) Path(i Index) Path { return r.paths[i] }

// Info returns the metadata for an index.
func (r *Registry) Info(i Index) Info { return r.infos[i] }

// DisplayName returns a human-readable name for the index, unique within
// the registry. When two paths share a name (the common case for multiple
// versions of one package), the hash prefix is appended to tell them apart.
func (r *Registry) DisplayName(i Index) string {
	if r.dirty {
		r.rebuildDisplayNames()
	}
	return r.display[i]
}

func (r *Registry) rebuildDisplayNames() {
	seen := make(map[string]int, len(r.paths))
	for _, p := range r.paths {
		seen[p.Name]++
	}
	r.display = make([]string, len(r.paths))
	for i, p := range r.paths {
		if seen[p.Name] > 1 {
			r.display[i] = fmt.Sprintf("%s (%s)", p.Name, p.Hash[:8])
		} else {
			r.display[i] = p.Name
		}
	}
	r.dirty = false
}
