package mmapfs

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	// R2 and scenario 3.
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")

	want := []byte("Hello, world!\n")
	n, err := fs.Write("/f", want, 0)
	if err != nil || n != len(want) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}

	st, err := fs.GetAttr("/f")
	if err != nil || st.Size() != int64(len(want)) {
		t.Fatalf("GetAttr: size=%d err=%v", st.Size(), err)
	}

	buf := make([]byte, len(want))
	n, err = fs.Read("/f", buf, 0)
	if err != nil || n != len(want) {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if !bytes.Equal(buf, want) {
		t.Fatalf("round trip mismatch: got %q want %q", buf, want)
	}
}

func TestTruncateGrowZeroFills(t *testing.T) {
	// Scenario 4.
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/z")

	if err := fs.Truncate("/z", 8); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	buf := make([]byte, 8)
	n, err := fs.Read("/z", buf, 0)
	if err != nil || n != 8 {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	want := make([]byte, 8)
	if !bytes.Equal(buf, want) {
		t.Fatalf("expected zero-fill, got %v", buf)
	}
}

func TestTruncateShrink(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")
	if _, err := fs.Write("/f", []byte("0123456789"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := fs.Truncate("/f", 4); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	st, err := fs.GetAttr("/f")
	if err != nil || st.Size() != 4 {
		t.Fatalf("GetAttr: size=%d err=%v", st.Size(), err)
	}
	buf := make([]byte, 4)
	n, err := fs.Read("/f", buf, 0)
	if err != nil || n != 4 || string(buf) != "0123" {
		t.Fatalf("Read after shrink: n=%d err=%v buf=%q", n, err, buf)
	}
}

func TestTruncateSameSizeIsNoop(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")
	if _, err := fs.Write("/f", []byte("abcd"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := fs.Truncate("/f", 4); err != nil {
		t.Fatalf("Truncate to same size should succeed as a no-op: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := fs.Read("/f", buf, 0); err != nil || string(buf) != "abcd" {
		t.Fatalf("content changed after no-op truncate: %q err=%v", buf, err)
	}
}

func TestReadPastEOFReturnsZero(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")
	if _, err := fs.Write("/f", []byte("abcd"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 4)
	n, err := fs.Read("/f", buf, 10)
	if err != nil || n != 0 {
		t.Fatalf("expected EOF-as-zero, got n=%d err=%v", n, err)
	}
}

func TestWritePastEndOfFileReturnsZero(t *testing.T) {
	// Open Question 1: offset > size is rejected rather than creating a
	// file hole.
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")
	n, err := fs.Write("/f", []byte("abcd"), 10)
	if err != nil || n != 0 {
		t.Fatalf("expected write-past-end to be a silent no-op, got n=%d err=%v", n, err)
	}
}

func TestWriteExtendsFile(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")
	if _, err := fs.Write("/f", []byte("abcd"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := fs.Write("/f", []byte("EFGH"), 4); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 8)
	n, err := fs.Read("/f", buf, 0)
	if err != nil || n != 8 || string(buf) != "abcdEFGH" {
		t.Fatalf("extend failed: n=%d err=%v buf=%q", n, err, buf)
	}
}

func TestWriteOverwritesWithinExistingRange(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")
	if _, err := fs.Write("/f", []byte("aaaaaaaa"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := fs.Write("/f", []byte("BB"), 3); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 8)
	if _, err := fs.Read("/f", buf, 0); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "aaaBBaaa" {
		t.Fatalf("overwrite failed: got %q", buf)
	}
}

func TestUnlinkFreesBlocksForReuse(t *testing.T) {
	// R3, adapted to exercise the file-block chain too.
	fs := newTestFS(t, 1<<16)
	// Force root creation first so its one-time allocation is not
	// counted as part of mknod's cost.
	if _, err := fs.GetAttr("/"); err != nil {
		t.Fatalf("GetAttr: %v", err)
	}
	h, err := fs.acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	before := h.totalFree()

	mustMknod(t, fs, "/f")
	if _, err := fs.Write("/f", bytes.Repeat([]byte("x"), 200), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := fs.Unlink("/f"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}

	h2, err := fs.acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if h2.totalFree() != before {
		t.Fatalf("mknod+write+unlink did not restore free-list totals: before=%d after=%d", before, h2.totalFree())
	}
}
