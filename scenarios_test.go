package mmapfs

import (
	"bytes"
	"sort"
	"testing"
)

// TestScenarioFreshInit matches spec.md §8 scenario 1.
func TestScenarioFreshInit(t *testing.T) {
	fs := newTestFS(t, 4096)
	st, err := fs.Statfs()
	if err != nil {
		t.Fatalf("Statfs: %v", err)
	}
	if st.Bsize != 1024 {
		t.Fatalf("Bsize = %d, want 1024", st.Bsize)
	}
	if st.Blocks < 3 {
		t.Fatalf("Blocks = %d, want >= 3", st.Blocks)
	}
	if st.Bfree < 2 {
		t.Fatalf("Bfree = %d, want >= 2", st.Bfree)
	}
	if st.Namemax != 255 {
		t.Fatalf("Namemax = %d, want 255", st.Namemax)
	}
}

// TestScenarioCreateAndList matches spec.md §8 scenario 2.
func TestScenarioCreateAndList(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/a")
	mustMknod(t, fs, "/b")
	mustMkdir(t, fs, "/c")

	names, err := fs.ReadDir("/")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	sort.Strings(names)
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Fatalf("got %v, want {a,b,c}", names)
	}
}

// TestScenarioRemountSurvives matches spec.md §8 scenario 6 (R1).
func TestScenarioRemountSurvives(t *testing.T) {
	region := make([]byte, 1<<16)
	fs, err := New(region)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mustMknod(t, fs, "/f")
	want := []byte("Hello, world!\n")
	if _, err := fs.Write("/f", want, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Discard the handle and simulate a remap to a different base
	// address by copying the backing bytes into a freshly allocated
	// slice before re-mounting over it.
	moved := make([]byte, len(region))
	copy(moved, region)
	fs = nil
	region = nil

	remounted, err := New(moved)
	if err != nil {
		t.Fatalf("New (remount): %v", err)
	}
	buf := make([]byte, len(want))
	n, err := remounted.Read("/f", buf, 0)
	if err != nil || n != len(want) || !bytes.Equal(buf, want) {
		t.Fatalf("remount did not preserve content: n=%d err=%v buf=%q", n, err, buf)
	}
}

// TestRoundTripMknodUnlinkRestoresFreeTotals matches R3.
func TestRoundTripMknodUnlinkRestoresFreeTotals(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	if _, err := fs.GetAttr("/"); err != nil {
		t.Fatalf("GetAttr: %v", err)
	}
	h, err := fs.acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	before := h.totalFree()

	mustMknod(t, fs, "/a")
	if err := fs.Unlink("/a"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}

	h2, err := fs.acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if h2.totalFree() != before {
		t.Fatalf("free totals not restored: before=%d after=%d", before, h2.totalFree())
	}
}

// TestRoundTripMkdirRmdirRestoresFreeTotals matches R4.
func TestRoundTripMkdirRmdirRestoresFreeTotals(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	if _, err := fs.GetAttr("/"); err != nil {
		t.Fatalf("GetAttr: %v", err)
	}
	h, err := fs.acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	before := h.totalFree()

	mustMkdir(t, fs, "/d")
	if err := fs.Rmdir("/d"); err != nil {
		t.Fatalf("Rmdir: %v", err)
	}

	h2, err := fs.acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if h2.totalFree() != before {
		t.Fatalf("free totals not restored: before=%d after=%d", before, h2.totalFree())
	}
}

// TestWalkVisitsEveryPath exercises testutils_test.go's walk helper
// (grounded on absfs/inode's Walk) against a small multi-level tree.
func TestWalkVisitsEveryPath(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMkdir(t, fs, "/d1")
	mustMknod(t, fs, "/d1/x")
	mustMkdir(t, fs, "/d2")

	var visited []string
	if err := walk(fs, "/", func(p string, st Stat) error {
		visited = append(visited, p)
		return nil
	}); err != nil {
		t.Fatalf("walk: %v", err)
	}
	sort.Strings(visited)
	want := []string{"/", "/d1", "/d1/x", "/d2"}
	if len(visited) != len(want) {
		t.Fatalf("got %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("got %v, want %v", visited, want)
		}
	}
}
