package nix

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nixscope/nixscope/pkg/cache"
)

const (
	profilePath = "/nix/var/nix/profiles/system"
	rootPath    = "/nix/store/33l4p0s8k1w9vh5x7m2q6r8t1y3z5a7c-nixos-system-25.05"
	depPath     = "/nix/store/9f2c1k8w4m6p0r2t4v6x8z1b3d5f7h9j-glibc-2.39"
)

// resolveOutput is what a non-recursive path-info call returns for a
// profile: just the root it points at.
const resolveOutput = `{
  "` + rootPath + `": {
    "narSize": 1024,
    "closureSize": 4096,
    "references": ["` + depPath + `"],
    "signatures": ["cache.nixos.org-1:abc"],
    "deriver": ""
  }
}`

const closureOutput = `{
  "` + rootPath + `": {
    "narSize": 1024,
    "closureSize": 4096,
    "references": ["` + depPath + `"],
    "signatures": ["cache.nixos.org-1:abc"],
    "deriver": ""
  },
  "` + depPath + `": {
    "narSize": 3072,
    "closureSize": 3072,
    "references": [],
    "signatures": [],
    "deriver": "/nix/store/0a1b2c3d4e5f6g7h8i9j0k1l2m3n4p5q-glibc-2.39.drv"
  }
}`

// fakeRun returns canned output per call and records the argument lists.
func fakeRun(t *testing.T, outputs ...string) (func(context.Context, ...string) ([]byte, error), *[][]string) {
	t.Helper()
	var calls [][]string
	i := 0
	run := func(ctx context.Context, args ...string) ([]byte, error) {
		calls = append(calls, args)
		if i >= len(outputs) {
			t.Fatalf("unexpected nix call %d: %v", i, args)
		}
		out := outputs[i]
		i++
		return []byte(out), nil
	}
	return run, &calls
}

func TestQueryClosure(t *testing.T) {
	c := NewClient(cache.NewNullCache(), time.Hour, "", false)
	run, calls := fakeRun(t, resolveOutput, closureOutput)
	c.run = run

	batch, err := c.QueryClosure(context.Background(), []string{profilePath})
	if err != nil {
		t.Fatalf("QueryClosure: %v", err)
	}

	if len(batch.Roots) != 1 || batch.Roots[0] != rootPath {
		t.Errorf("Roots = %v, want [%s]", batch.Roots, rootPath)
	}
	if len(batch.Infos) != 2 {
		t.Fatalf("len(Infos) = %d, want 2", len(batch.Infos))
	}

	root := batch.Infos[rootPath]
	if root.NarSize != 1024 || root.ClosureSize != 4096 {
		t.Errorf("root sizes = %d/%d, want 1024/4096", root.NarSize, root.ClosureSize)
	}
	if !root.Signed {
		t.Error("root with signatures not marked signed")
	}
	if len(root.References) != 1 || root.References[0] != depPath {
		t.Errorf("root references = %v", root.References)
	}

	dep := batch.Infos[depPath]
	if dep.Signed {
		t.Error("unsigned dep marked signed")
	}
	if dep.Deriver == "" {
		t.Error("dep deriver lost in decoding")
	}

	if len(*calls) != 2 {
		t.Fatalf("nix invoked %d times, want 2", len(*calls))
	}
	resolveArgs := (*calls)[0]
	for _, arg := range resolveArgs {
		if arg == "--recursive" {
			t.Error("resolve call used --recursive")
		}
	}
	closureArgs := (*calls)[1]
	found := false
	for _, arg := range closureArgs {
		if arg == "--recursive" {
			found = true
		}
	}
	if !found {
		t.Errorf("closure call missing --recursive: %v", closureArgs)
	}
	if closureArgs[len(closureArgs)-1] != rootPath {
		t.Errorf("closure call queried %s, want resolved root", closureArgs[len(closureArgs)-1])
	}
}

func TestQueryClosureDerivationFlag(t *testing.T) {
	c := NewClient(cache.NewNullCache(), time.Hour, "", true)
	run, calls := fakeRun(t, resolveOutput, closureOutput)
	c.run = run

	if _, err := c.QueryClosure(context.Background(), []string{profilePath}); err != nil {
		t.Fatalf("QueryClosure: %v", err)
	}
	for i, call := range *calls {
		found := false
		for _, arg := range call {
			if arg == "--derivation" {
				found = true
			}
		}
		if !found {
			t.Errorf("call %d missing --derivation: %v", i, call)
		}
	}
}

func TestQueryClosureCacheHit(t *testing.T) {
	ctx := context.Background()
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	c := NewClient(backend, time.Hour, "", false)
	run, calls := fakeRun(t, resolveOutput, closureOutput)
	c.run = run

	first, err := c.QueryClosure(ctx, []string{profilePath})
	if err != nil {
		t.Fatalf("first QueryClosure: %v", err)
	}

	// Second client with the same backend must not touch nix at all.
	c2 := NewClient(backend, time.Hour, "", false)
	c2.run = func(ctx context.Context, args ...string) ([]byte, error) {
		t.Fatalf("cache hit still invoked nix: %v", args)
		return nil, nil
	}
	second, err := c2.QueryClosure(ctx, []string{profilePath})
	if err != nil {
		t.Fatalf("cached QueryClosure: %v", err)
	}

	if len(second.Infos) != len(first.Infos) {
		t.Errorf("cached batch has %d infos, want %d", len(second.Infos), len(first.Infos))
	}
	if len(*calls) != 2 {
		t.Errorf("first query invoked nix %d times, want 2", len(*calls))
	}
}

func TestQueryClosureCacheKeyDependsOnMode(t *testing.T) {
	k1 := cacheKey("", false, []string{profilePath})
	k2 := cacheKey("", true, []string{profilePath})
	k3 := cacheKey("ssh://remote", false, []string{profilePath})
	if k1 == k2 || k1 == k3 {
		t.Error("cache keys collide across derivation mode or store URL")
	}

	// Root order must not change the key.
	a := cacheKey("", false, []string{"/nix/store/a", "/nix/store/b"})
	b := cacheKey("", false, []string{"/nix/store/b", "/nix/store/a"})
	if a != b {
		t.Error("cache key depends on installable order")
	}
}

func TestQueryClosureExecError(t *testing.T) {
	c := NewClient(cache.NewNullCache(), time.Hour, "", false)
	c.run = func(ctx context.Context, args ...string) ([]byte, error) {
		return nil, errors.New("error: path '/nix/store/xyz' is not valid")
	}

	if _, err := c.QueryClosure(context.Background(), []string{profilePath}); err == nil {
		t.Fatal("QueryClosure with failing nix returned no error")
	}
}

func TestDecodePathInfoNullEntry(t *testing.T) {
	_, err := decodePathInfo([]byte(`{"` + rootPath + `": null}`))
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("err = %v, want ErrQuery", err)
	}
}

func TestDecodePathInfoMalformed(t *testing.T) {
	_, err := decodePathInfo([]byte(`not json`))
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("err = %v, want ErrQuery", err)
	}
}
