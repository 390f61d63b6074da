package store

import (
	"errors"
	"strings"
	"testing"
)

func TestInternIdempotent(t *testing.T) {
	r := NewRegistry()
	info := Info{NarSize: 100, Signed: true}

	i1, err := r.Intern(helloPath, info)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	i2, err := r.Intern(helloPath, info)
	if err != nil {
		t.Fatalf("Intern again: %v", err)
	}
	if i1 != i2 {
		t.Errorf("re-intern returned %d, want %d", i2, i1)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestInternConflict(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Intern(helloPath, Info{NarSize: 100}); err != nil {
		t.Fatalf("Intern: %v", err)
	}
	_, err := r.Intern(helloPath, Info{NarSize: 200})
	if !errors.Is(err, ErrConflictingInfo) {
		t.Fatalf("err = %v, want ErrConflictingInfo", err)
	}
}

func TestInternMalformed(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Intern("/nix/store/short-x", Info{}); !errors.Is(err, ErrMalformedPath) {
		t.Fatalf("err = %v, want ErrMalformedPath", err)
	}
}

func TestIndicesAreDenseAndStable(t *testing.T) {
	r := NewRegistry()
	names := []string{"glibc-2.39", "hello-2.12", "zlib-1.3"}
	for want, name := range names {
		i, err := r.Intern(testPath(name), Info{NarSize: int64(want)})
		if err != nil {
			t.Fatalf("Intern(%s): %v", name, err)
		}
		if int(i) != want {
			t.Errorf("Intern(%s) = %d, want %d", name, i, want)
		}
	}
	for want, name := range names {
		i, ok := r.Lookup(testPath(name))
		if !ok || int(i) != want {
			t.Errorf("Lookup(%s) = %d, %v, want %d, true", name, i, ok, want)
		}
		if r.Path(i).Name != name {
			t.Errorf("Path(%d).Name = %q, want %q", i, r.Path(i).Name, name)
		}
	}
}

func TestDisplayNameDisambiguation(t *testing.T) {
	r := NewRegistry()

	// Two distinct store paths carrying the same human name, plus one unique.
	a, err := r.Intern("/nix/store/b6gvzjyb2pg0kjfwrjmg1vfhpfzyqr3v-hello-2.12", Info{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Intern("/nix/store/9y4cfi5lqvpkjxwsbmaqbkvzd2g6jcq7-hello-2.12", Info{})
	if err != nil {
		t.Fatal(err)
	}
	c, err := r.Intern(testPath("zlib-1.3"), Info{})
	if err != nil {
		t.Fatal(err)
	}

	if got := r.DisplayName(c); got != "zlib-1.3" {
		t.Errorf("unique DisplayName = %q, want plain name", got)
	}
	da, db := r.DisplayName(a), r.DisplayName(b)
	if da == db {
		t.Errorf("colliding names not disambiguated: both %q", da)
	}
	for _, d := range []string{da, db} {
		if !strings.HasPrefix(d, "hello-2.12 (") {
			t.Errorf("DisplayName = %q, want name plus hash prefix", d)
		}
	}
}
