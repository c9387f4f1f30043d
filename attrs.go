package mmapfs

import "time"

// Stat is the getattr result. It implements fs.FileInfo (see
// fileinfo.go). uid/gid are not stored in the image and GetAttr never
// sets them, so both always read as 0; nothing is enforced.
type Stat struct {
	name      string
	dir       bool
	modeBits  uint32
	sizeBytes uint64
	atime     time.Time
	mtime     time.Time
	uid       uint32
	gid       uint32
}

// Uid returns the owner uid; it is always 0.
func (s Stat) Uid() uint32 { return s.uid }

// Gid returns the owner gid; it is always 0.
func (s Stat) Gid() uint32 { return s.gid }

// Atime returns the inode's last-access time.
func (s Stat) Atime() time.Time { return s.atime }

// StatFS is the statfs result, with field semantics carried over from
// the original implementation's homework3/implementation.c.
type StatFS struct {
	Bsize   uint64
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Namemax uint64
}

const statfsBlockSize = 1024

// GetAttr populates a Stat for path: fixed mode bits (0755 for both
// directories and regular files, since access control is never
// enforced), atime/mtime from the inode, and size for
// regular files.
func (fs *FS) GetAttr(path string) (Stat, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return Stat{}, err
	}

	r, err := h.resolve(path, fs.now)
	if err != nil {
		return Stat{}, err
	}
	t, err := h.inodeTypeAt(r.offset)
	if err != nil {
		return Stat{}, err
	}
	name, err := h.inodeNameAt(r.offset)
	if err != nil {
		return Stat{}, err
	}
	rec, err := h.inodeAt(r.offset)
	if err != nil {
		return Stat{}, err
	}
	atime, mtime := readInodeTimes(rec)

	st := Stat{
		name:     name,
		dir:      t == typeDirectory,
		modeBits: 0755,
		atime:    atime,
		mtime:    mtime,
	}
	if t == typeRegular {
		size, err := h.fileSize(r.offset)
		if err != nil {
			return Stat{}, err
		}
		st.sizeBytes = size
	}
	return st, nil
}

// ReadDir returns the child names of the directory at path, not
// including "." or "..". The returned slice is host memory: it does
// not alias the image.
func (fs *FS) ReadDir(path string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return nil, err
	}

	r, err := h.resolve(path, fs.now)
	if err != nil {
		return nil, err
	}
	t, err := h.inodeTypeAt(r.offset)
	if err != nil {
		return nil, err
	}
	if t != typeDirectory {
		return nil, newErr("readdir", path, ErrNotDir)
	}

	count, err := h.dirChildCount(r.offset)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	children, err := h.dirChildrenOffset(r.offset)
	if err != nil {
		return nil, err
	}

	names := make([]string, count)
	for i := uint64(0); i < count; i++ {
		name, err := h.inodeNameAt(children + i*inodeSize)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	h.touch(r.offset, true, false, fs.now())
	return names, nil
}

// Utimens sets atime and mtime on path from the two supplied
// timestamps independently.
func (fs *FS) Utimens(path string, atime, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return err
	}

	r, err := h.resolve(path, fs.now)
	if err != nil {
		return err
	}
	rec, err := h.inodeAt(r.offset)
	if err != nil {
		return err
	}
	writeInodeAtime(rec, atime)
	writeInodeMtime(rec, mtime)
	return nil
}

// Open resolves path and reports whether it exists, without retaining
// any handle: mmapfs has no open-file-descriptor table, so every
// read/write re-resolves the path itself. Host adapters call Open only
// to translate its error into the right errno at open(2) time.
func (fs *FS) Open(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return err
	}
	_, err = h.resolve(path, fs.now)
	return err
}

// Statfs reports aggregate allocator statistics.
func (fs *FS) Statfs() (StatFS, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return StatFS{}, err
	}

	size := h.usableSize()
	free := h.totalFree()
	return StatFS{
		Bsize:   statfsBlockSize,
		Blocks:  size / statfsBlockSize,
		Bfree:   free / statfsBlockSize,
		Bavail:  free / statfsBlockSize,
		Namemax: MaxNameLength,
	}, nil
}
