// Package mmapfs implements a POSIX-style filesystem that lives
// entirely inside a single contiguous byte slice supplied by a host —
// typically a memory-mapped file, but any []byte works, including one
// backed by plain heap memory for tests.
//
// # Design
//
// The image is self-describing: every structural reference inside it
// (inode locations, file block chains, the free list) is stored as a
// byte offset from the start of the region rather than a pointer. This
// is what lets the same bytes be unmounted, copied or remapped to a new
// base address, and remounted: nothing outside the image itself needs
// to survive.
//
// Three layers, bottom-up:
//
//   - A fixed-layout header at offset zero plus an address-ordered,
//     self-coalescing free list (allocator.go, header.go).
//   - Inodes held inline inside their parent directory's children
//     array, and regular files represented as singly-linked chains of
//     file blocks (inode.go, fileblock.go).
//   - Path resolution and the thirteen filesystem operations layered
//     on top (path.go, dirops.go, fileops.go, attrs.go).
//
// # Thread Safety
//
// The core is single-threaded by contract: the host is expected to
// serialize calls, the way a FUSE request loop naturally does. FS
// nonetheless holds one coarse mutex at the handle-acquisition
// boundary (see FS in fs.go) so that a host which cannot
// guarantee serialization on its own still gets safe behavior, at the
// cost of no internal concurrency.
//
// # No pointers across calls
//
// Every exported method re-derives a fresh *handle from the backing
// []byte at the start of the call and discards it at the end. No
// offset, slice, or pointer derived from the image is ever retained
// between calls — the caller may remap, copy, or relocate the backing
// bytes between any two calls and mmapfs will still reconstruct the
// same filesystem.
package mmapfs
