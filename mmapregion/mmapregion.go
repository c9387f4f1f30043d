// Package mmapregion supplies the host-side memory-mapping facility
// that mmapfs.New expects: a contiguous []byte region, either backed
// by a file (so it survives unmount) or anonymous (scratch use only).
//
// This is the "external collaborator" named by spec.md §1: the core
// package never opens a file or calls mmap itself, so something has
// to hand it bytes. Grounded on bureau-foundation-bureau's
// lib/secret.Buffer, which wraps the same golang.org/x/sys/unix
// mmap/munmap pair for an anonymous region.
package mmapregion

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Region is a memory-mapped byte slice obtained from the host kernel.
// Close unmaps it; afterward the Region must not be used.
type Region struct {
	data []byte
	file *os.File
}

// Bytes returns the mapped region. The returned slice aliases the
// mapping directly: writes through it are writes to the mapping, and
// (for a file-backed Region) become visible to other mappings of the
// same file once synced or unmapped.
func (r *Region) Bytes() []byte {
	return r.data
}

// Sync flushes a file-backed region's dirty pages to disk. It is a
// no-op for an anonymous region.
func (r *Region) Sync() error {
	if r.file == nil {
		return nil
	}
	return unix.Msync(r.data, unix.MS_SYNC)
}

// Close unmaps the region and, for a file-backed Region, closes the
// underlying file descriptor.
func (r *Region) Close() error {
	err := unix.Munmap(r.data)
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// OpenFile memory-maps size bytes of path, creating or growing the
// file as needed, so that the mapping — and therefore the filesystem
// image inside it — survives process exit and can be remounted later.
func OpenFile(path string, size int64) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mmapregion: opening %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmapregion: stat %s: %w", path, err)
	}
	if info.Size() < size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("mmapregion: truncating %s to %d bytes: %w", path, size, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmapregion: mmap %s: %w", path, err)
	}
	return &Region{data: data, file: f}, nil
}

// Anonymous allocates a size-byte region backed by anonymous memory
// rather than a file. The region does not survive process exit; it
// exists for tests and scratch mounts that need the same []byte
// contract as OpenFile without touching the filesystem.
func Anonymous(size int) (*Region, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmapregion: anonymous mmap: %w", err)
	}
	return &Region{data: data}, nil
}
