package mmapfs

import (
	"encoding/binary"
	"time"
)

// inodeType distinguishes a directory from a regular file. It is the
// only variant discriminator stored on disk — there is no link count
// or access-control data, per spec.md's Non-goals.
type inodeType uint8

const (
	typeDirectory inodeType = 0
	typeRegular   inodeType = 1
)

// MaxNameLength is the longest name (not counting the NUL terminator)
// a path component may have.
const MaxNameLength = 255

// Inode record layout, fixed width, inline inside a directory's
// children array:
//
//	offset 0:   name        [256]byte, NUL-terminated
//	offset 256: type        uint8
//	offset 264: atimeSec    uint64
//	offset 272: atimeNsec   uint32
//	offset 280: mtimeSec    uint64
//	offset 288: mtimeNsec   uint32
//	offset 296: variant0    uint64  (dir: child count   | file: size)
//	offset 304: variant1    uint64  (dir: children off. | file: first block)
const (
	nameFieldSize = MaxNameLength + 1
	inodeTypeOff  = nameFieldSize
	inodeAtimeOff = 264
	inodeMtimeOff = 280
	inodeVar0Off  = 296
	inodeVar1Off  = 304
	inodeSize     = 312
)

func readInodeName(rec []byte) string {
	n := rec[0:nameFieldSize]
	end := 0
	for end < len(n) && n[end] != 0 {
		end++
	}
	return string(n[:end])
}

func writeInodeName(rec []byte, name string) {
	n := rec[0:nameFieldSize]
	for i := range n {
		n[i] = 0
	}
	copy(n, name)
}

func readInodeType(rec []byte) inodeType {
	return inodeType(rec[inodeTypeOff])
}

func writeInodeType(rec []byte, t inodeType) {
	rec[inodeTypeOff] = byte(t)
}

func readInodeTimes(rec []byte) (atime, mtime time.Time) {
	aSec := binary.LittleEndian.Uint64(rec[inodeAtimeOff:])
	aNsec := binary.LittleEndian.Uint32(rec[inodeAtimeOff+8:])
	mSec := binary.LittleEndian.Uint64(rec[inodeMtimeOff:])
	mNsec := binary.LittleEndian.Uint32(rec[inodeMtimeOff+8:])
	return time.Unix(int64(aSec), int64(aNsec)), time.Unix(int64(mSec), int64(mNsec))
}

func writeInodeAtime(rec []byte, t time.Time) {
	binary.LittleEndian.PutUint64(rec[inodeAtimeOff:], uint64(t.Unix()))
	binary.LittleEndian.PutUint32(rec[inodeAtimeOff+8:], uint32(t.Nanosecond()))
}

func writeInodeMtime(rec []byte, t time.Time) {
	binary.LittleEndian.PutUint64(rec[inodeMtimeOff:], uint64(t.Unix()))
	binary.LittleEndian.PutUint32(rec[inodeMtimeOff+8:], uint32(t.Nanosecond()))
}

func readInodeVar0(rec []byte) uint64 { return binary.LittleEndian.Uint64(rec[inodeVar0Off:]) }
func readInodeVar1(rec []byte) uint64 { return binary.LittleEndian.Uint64(rec[inodeVar1Off:]) }

func writeInodeVar0(rec []byte, v uint64) { binary.LittleEndian.PutUint64(rec[inodeVar0Off:], v) }
func writeInodeVar1(rec []byte, v uint64) { binary.LittleEndian.PutUint64(rec[inodeVar1Off:], v) }

// inodeAt returns the fixed-size byte window for the inode record at
// off.
func (h *handle) inodeAt(off offsetT) ([]byte, error) {
	return h.slice(off, inodeSize)
}

// initInode zero-initializes a freshly allocated inode record with a
// name, a type, and the current time stamped into both atime and
// mtime.
func (h *handle) initInode(off offsetT, name string, t inodeType, now time.Time) error {
	rec, err := h.inodeAt(off)
	if err != nil {
		return err
	}
	for i := range rec {
		rec[i] = 0
	}
	writeInodeName(rec, name)
	writeInodeType(rec, t)
	writeInodeAtime(rec, now)
	writeInodeMtime(rec, now)
	return nil
}

// --- directory variant accessors ---

func (h *handle) dirChildCount(off offsetT) (uint64, error) {
	rec, err := h.inodeAt(off)
	if err != nil {
		return 0, err
	}
	return readInodeVar0(rec), nil
}

func (h *handle) dirChildrenOffset(off offsetT) (offsetT, error) {
	rec, err := h.inodeAt(off)
	if err != nil {
		return 0, err
	}
	return readInodeVar1(rec), nil
}

func (h *handle) setDirChildren(off offsetT, count uint64, children offsetT) error {
	rec, err := h.inodeAt(off)
	if err != nil {
		return err
	}
	writeInodeVar0(rec, count)
	writeInodeVar1(rec, children)
	return nil
}

// --- regular-file variant accessors ---

func (h *handle) fileSize(off offsetT) (uint64, error) {
	rec, err := h.inodeAt(off)
	if err != nil {
		return 0, err
	}
	return readInodeVar0(rec), nil
}

func (h *handle) fileFirstBlock(off offsetT) (offsetT, error) {
	rec, err := h.inodeAt(off)
	if err != nil {
		return 0, err
	}
	return readInodeVar1(rec), nil
}

func (h *handle) setFile(off offsetT, size uint64, firstBlock offsetT) error {
	rec, err := h.inodeAt(off)
	if err != nil {
		return err
	}
	writeInodeVar0(rec, size)
	writeInodeVar1(rec, firstBlock)
	return nil
}

func (h *handle) inodeTypeAt(off offsetT) (inodeType, error) {
	rec, err := h.inodeAt(off)
	if err != nil {
		return 0, err
	}
	return readInodeType(rec), nil
}

func (h *handle) inodeNameAt(off offsetT) (string, error) {
	rec, err := h.inodeAt(off)
	if err != nil {
		return "", err
	}
	return readInodeName(rec), nil
}

func (h *handle) touch(off offsetT, accessed, modified bool, now time.Time) error {
	rec, err := h.inodeAt(off)
	if err != nil {
		return err
	}
	if accessed {
		writeInodeAtime(rec, now)
	}
	if modified {
		writeInodeMtime(rec, now)
	}
	return nil
}
