package mmapfs

import (
	"testing"
	"time"
)

func TestGetAttrModeAndSize(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMkdir(t, fs, "/d")
	mustMknod(t, fs, "/f")
	if _, err := fs.Write("/f", []byte("abc"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	dst, err := fs.GetAttr("/d")
	if err != nil || !dst.IsDir() {
		t.Fatalf("GetAttr(/d): %+v err=%v", dst, err)
	}
	fst, err := fs.GetAttr("/f")
	if err != nil || fst.IsDir() || fst.Size() != 3 {
		t.Fatalf("GetAttr(/f): %+v err=%v", fst, err)
	}
	if dst.Mode().Perm() != 0755 || fst.Mode().Perm() != 0755 {
		t.Fatalf("expected fixed 0755 mode bits, got dir=%v file=%v", dst.Mode(), fst.Mode())
	}
}

func TestUtimensSetsBothTimes(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")

	at := time.Unix(111, 0)
	mt := time.Unix(222, 0)
	if err := fs.Utimens("/f", at, mt); err != nil {
		t.Fatalf("Utimens: %v", err)
	}

	st, err := fs.GetAttr("/f")
	if err != nil {
		t.Fatalf("GetAttr: %v", err)
	}
	if !st.Atime().Equal(at) {
		t.Fatalf("atime = %v, want %v", st.Atime(), at)
	}
	if !st.ModTime().Equal(mt) {
		t.Fatalf("mtime = %v, want %v", st.ModTime(), mt)
	}
}

func TestOpenReportsMissingPath(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	if err := fs.Open("/nope"); !IsNotExist(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	mustMknod(t, fs, "/f")
	if err := fs.Open("/f"); err != nil {
		t.Fatalf("Open: %v", err)
	}
}

func TestReadDirOnRegularFileFails(t *testing.T) {
	fs := newTestFS(t, 1<<16)
	mustMknod(t, fs, "/f")
	_, err := fs.ReadDir("/f")
	if err == nil {
		t.Fatalf("expected ErrNotDir")
	}
	if e, ok := err.(*Error); !ok || e.Kind != ErrNotDir {
		t.Fatalf("expected ErrNotDir, got %v", err)
	}
}
