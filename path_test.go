package mmapfs

import (
	"strings"
	"testing"
)

func TestSplitParentBase(t *testing.T) {
	cases := []struct {
		path, dir, base string
	}{
		{"/a", "/", "a"},
		{"/a/b/c", "/a/b", "c"},
	}
	for _, c := range cases {
		dir, base, err := splitParentBase(c.path)
		if err != nil {
			t.Fatalf("splitParentBase(%q): %v", c.path, err)
		}
		if dir != c.dir || base != c.base {
			t.Fatalf("splitParentBase(%q) = (%q, %q), want (%q, %q)", c.path, dir, base, c.dir, c.base)
		}
	}
}

func TestNameTooLongRejected(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	longName := strings.Repeat("x", MaxNameLength+1)
	err := fs.Mknod("/" + longName)
	if err == nil {
		t.Fatalf("expected ErrNameTooLong")
	}
	if e, ok := err.(*Error); !ok || e.Kind != ErrNameTooLong {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	// P7.
	fs := newTestFS(t, 1<<16)
	mustMkdir(t, fs, "/d")
	mustMknod(t, fs, "/d/f")

	h, err := fs.acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	r1, err := h.resolve("/d/f", fs.now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	r2, err := h.resolve("/d/f", fs.now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r1.offset != r2.offset || r1.parent != r2.parent {
		t.Fatalf("resolve is not deterministic: %+v != %+v", r1, r2)
	}
}

func TestResolveThroughRegularFileIsNotADirectory(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")
	err := fs.Mknod("/f/child")
	if err == nil {
		t.Fatalf("expected ErrNotDir walking through a regular file")
	}
	if e, ok := err.(*Error); !ok || e.Kind != ErrNotDir {
		t.Fatalf("expected ErrNotDir, got %v", err)
	}
}
