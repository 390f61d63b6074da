package store

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrMalformedPath is returned by [ParsePath] when a store path does not
// have the expected <hash>-<name> base name structure.
var ErrMalformedPath = errors.New("malformed store path")

// hashLen is the length of the base-32 hash prefix in a store path base name.
const hashLen = 32

// Path is one parsed store path. Identity is the Hash portion; Name is the
// human-readable remainder used for display, search, and alphabetical sort.
type Path struct {
	Full string // complete path, e.g. /nix/store/<hash>-<name>
	Hash string // base-32 content hash
	Name string // human-readable name, e.g. "hello-2.12" or "glibc-2.39.drv"
}

// IsDerivation reports whether the path refers to a derivation rather than
// a realized artifact.
func (p Path) IsDerivation() bool { return strings.HasSuffix(p.Name, ".drv") }

// ParsePath splits a full store path into its hash and name components.
// Returns ErrMalformedPath if the base name is not "<hash>-<name>" with a
// 32-character hash and a non-empty name.
func ParsePath(full string) (Path, error) {
	base := path.Base(full)
	if len(base) < hashLen+2 || base[hashLen] != '-' {
		return Path{}, fmt.Errorf("%w: %q", ErrMalformedPath, full)
	}
	hash, name := base[:hashLen], base[hashLen+1:]
	for _, c := range hash {
		if !isNixBase32(c) {
			return Path{}, fmt.Errorf("%w: invalid hash in %q", ErrMalformedPath, full)
		}
	}
	return Path{Full: full, Hash: hash, Name: name}, nil
}

// isNixBase32 reports whether c is in the base-32 alphabet nix uses for
// store path hashes (digits and lowercase letters minus e, o, u, t).
func isNixBase32(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'z':
		return c != 'e' && c != 'o' && c != 'u' && c != 't'
	}
	return false
}
