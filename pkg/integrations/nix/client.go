package nix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/nixscope/nixscope/pkg/cache"
	"github.com/nixscope/nixscope/pkg/store"
)

var (
	// ErrQuery is returned when the nix CLI fails or produces output that
	// cannot be decoded. Load errors are fatal: the viewer never shows a
	// partial graph.
	ErrQuery = errors.New("store query failed")

	// ErrNoRoots is returned by DefaultRoots when no profile exists and no
	// path argument was given.
	ErrNoRoots = errors.New("no default roots found, specify a store path")
)

// Batch is the single-call result of a closure query: every path in the
// closure of the resolved roots, with the metadata the graph needs.
type Batch struct {
	Roots []string              `json:"roots"`
	Infos map[string]store.Info `json:"infos"`
}

// pathInfo is the wire format of one `nix path-info --json` entry.
type pathInfo struct {
	NarSize     int64    `json:"narSize"`
	ClosureSize int64    `json:"closureSize"`
	References  []string `json:"references"`
	Signatures  []string `json:"signatures"`
	Deriver     string   `json:"deriver"`
}

// Client queries store metadata through the nix CLI. It is created once
// per invocation and performs at most one uncached closure query.
type Client struct {
	store      string // store URL, empty for the local daemon
	derivation bool   // operate on .drv paths instead of outputs
	backend    cache.Cache
	ttl        time.Duration

	// run executes the nix binary; swapped out in tests.
	run func(ctx context.Context, args ...string) ([]byte, error)
}

// NewClient creates a client. storeURL may be empty for the default store;
// backend caches whole batches for ttl.
func NewClient(backend cache.Cache, ttl time.Duration, storeURL string, derivation bool) *Client {
	c := &Client{
		store:      storeURL,
		derivation: derivation,
		backend:    backend,
		ttl:        ttl,
	}
	c.run = c.execNix
	return c
}

// QueryClosure resolves the given installables and returns the metadata
// batch for their full closure. Results are served from cache when an
// unexpired batch exists for the same store, mode, and roots.
func (c *Client) QueryClosure(ctx context.Context, installables []string) (*Batch, error) {
	key := cacheKey(c.store, c.derivation, installables)
	if data, hit, err := c.backend.Get(ctx, key); err == nil && hit {
		var batch Batch
		if err := json.Unmarshal(data, &batch); err == nil {
			return &batch, nil
		}
		// Undecodable entry: fall through to a fresh query.
		_ = c.backend.Delete(ctx, key)
	}

	roots, err := c.resolve(ctx, installables)
	if err != nil {
		return nil, err
	}

	out, err := c.run(ctx, c.pathInfoArgs(true, roots)...)
	if err != nil {
		return nil, err
	}
	infos, err := decodePathInfo(out)
	if err != nil {
		return nil, err
	}

	batch := &Batch{Roots: roots, Infos: infos}
	if data, err := json.Marshal(batch); err == nil {
		_ = c.backend.Set(ctx, key, data, c.ttl)
	}
	return batch, nil
}

// resolve maps installables (profiles, flake refs) to concrete store
// paths via a non-recursive path-info call.
func (c *Client) resolve(ctx context.Context, installables []string) ([]string, error) {
	out, err := c.run(ctx, c.pathInfoArgs(false, installables)...)
	if err != nil {
		return nil, err
	}
	infos, err := decodePathInfo(out)
	if err != nil {
		return nil, err
	}
	roots := make([]string, 0, len(infos))
	for path := range infos {
		roots = append(roots, path)
	}
	sort.Strings(roots)
	return roots, nil
}

func (c *Client) pathInfoArgs(recursive bool, paths []string) []string {
	args := []string{"path-info", "--json", "--closure-size"}
	if recursive {
		args = append(args, "--recursive")
	}
	if c.derivation {
		args = append(args, "--derivation")
	}
	return append(args, paths...)
}

// execNix runs the nix binary with the experimental-feature and store
// arguments every invocation needs.
func (c *Client) execNix(ctx context.Context, args ...string) ([]byte, error) {
	base := []string{"--extra-experimental-features", "nix-command flakes"}
	if c.store != "" {
		base = append(base, "--store", c.store)
	}

	cmd := exec.CommandContext(ctx, "nix", append(base, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: nix %s: %s", ErrQuery, args[0], msg)
	}
	return stdout.Bytes(), nil
}

// decodePathInfo parses `nix path-info --json` output into metadata keyed
// by store path. A null entry means nix could not realize the path, which
// is fatal for graph construction.
func decodePathInfo(data []byte) (map[string]store.Info, error) {
	var raw map[string]*pathInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode path-info output: %v", ErrQuery, err)
	}

	infos := make(map[string]store.Info, len(raw))
	for path, pi := range raw {
		if pi == nil {
			return nil, fmt.Errorf("%w: no metadata for %s", ErrQuery, path)
		}
		infos[path] = store.Info{
			NarSize:     pi.NarSize,
			ClosureSize: pi.ClosureSize,
			Signed:      len(pi.Signatures) > 0,
			References:  pi.References,
			Deriver:     pi.Deriver,
		}
	}
	return infos, nil
}

func cacheKey(storeURL string, derivation bool, installables []string) string {
	sorted := append([]string(nil), installables...)
	sort.Strings(sorted)
	return cache.Key("pathinfo", storeURL, derivation, sorted)
}

// DefaultRoots returns the system profile and the invoking user's profile,
// whichever exist. Returns ErrNoRoots when neither does.
func DefaultRoots() ([]string, error) {
	var roots []string

	if _, err := os.Stat("/nix/var/nix/profiles/system"); err == nil {
		roots = append(roots, "/nix/var/nix/profiles/system")
	}
	if user := os.Getenv("USER"); user != "" {
		profile := "/nix/var/nix/profiles/per-user/" + user + "/profile"
		if _, err := os.Stat(profile); err == nil {
			roots = append(roots, profile)
		}
	}

	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	return roots, nil
}
