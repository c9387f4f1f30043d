package mmapfs

import (
	"io/fs"
	"time"
)

// Name implements fs.FileInfo.
func (s Stat) Name() string { return s.name }

// Size implements fs.FileInfo: zero for directories, the logical byte
// length for regular files.
func (s Stat) Size() int64 { return int64(s.sizeBytes) }

// Mode implements fs.FileInfo.
func (s Stat) Mode() fs.FileMode {
	m := fs.FileMode(s.modeBits)
	if s.dir {
		m |= fs.ModeDir
	}
	return m
}

// ModTime implements fs.FileInfo.
func (s Stat) ModTime() time.Time { return s.mtime }

// IsDir implements fs.FileInfo.
func (s Stat) IsDir() bool { return s.dir }

// Sys implements fs.FileInfo. mmapfs has no underlying OS-specific
// data to expose, so it returns nil.
func (s Stat) Sys() any { return nil }
