package mmapfs

import (
	"sync"
	"time"
)

// timeNow is the clock used to stamp atime/mtime. New sets it to
// time.Now.
type timeNow = func() time.Time

// FS is a mounted mmapfs filesystem backed by a single []byte region.
// The zero value is not usable; construct with New.
//
// FS holds one coarse mutex at the handle-acquisition boundary, per
// spec.md §9's design note that a multi-threaded host should "place a
// single mutex at the handle-acquisition boundary." The core's own
// operations assume single-threaded use once past that boundary.
type FS struct {
	mu     sync.Mutex
	region []byte
	now    timeNow
}

// New mounts a filesystem over region, initializing it if it does not
// already carry MagicNumber. region is retained by reference: writes
// through FS's methods mutate it in place, which is what lets a
// memory-mapped region be persisted across unmount/remount by the
// host.
func New(region []byte) (*FS, error) {
	if _, err := acquire(region); err != nil {
		return nil, err
	}
	return &FS{region: region, now: time.Now}, nil
}

// acquire derives a fresh handle from fs.region. Callers must hold
// fs.mu for the duration of the handle's use.
func (fs *FS) acquire() (*handle, error) {
	return acquire(fs.region)
}
