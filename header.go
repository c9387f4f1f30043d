package mmapfs

import "encoding/binary"

// MagicNumber identifies an initialized image. It is written to the
// first four bytes of the region on first use and checked on every
// subsequent mount.
const MagicNumber uint32 = 0xcafebabe

// headerSize is the fixed layout of the image header:
//
//	offset 0:  magic      uint32
//	offset 4:  reserved   [4]byte  (alignment padding)
//	offset 8:  size       uint64   usable bytes past the header
//	offset 16: freeHead   uint64   offset of the first free block, or 0
//	offset 24: root       uint64   offset of the root inode, or 0
const headerSize = 32

const (
	headerMagicOff    = 0
	headerSizeOff     = 8
	headerFreeHeadOff = 16
	headerRootOff     = 24
)

// handle is a transient, per-call view over the backing image. It is
// never retained past the end of the exported method that created it;
// see the package doc for why.
type handle struct {
	region []byte
}

// acquire derives a handle from the host-supplied region, initializing
// the image in place if it does not already carry MagicNumber. This
// mirrors the original implementation's handle-acquisition routine:
// a region already full of zero bytes (the common case for a freshly
// truncated or mmap'd file) is assumed to already be zero and the
// memset of the heap area is skipped; any other non-matching magic is
// treated as garbage and the heap area is explicitly zeroed before the
// single covering free block is installed.
func acquire(region []byte) (*handle, error) {
	if len(region) < headerSize {
		return nil, newErr("acquire", "", ErrBadState)
	}

	h := &handle{region: region}
	magic := binary.LittleEndian.Uint32(region[headerMagicOff:])
	if magic == MagicNumber {
		return h, nil
	}

	usable := uint64(len(region)) - headerSize
	if magic != 0 {
		heap := region[headerSize:]
		for i := range heap {
			heap[i] = 0
		}
	}

	binary.LittleEndian.PutUint32(region[headerMagicOff:], MagicNumber)
	binary.LittleEndian.PutUint64(region[headerSizeOff:], usable)
	binary.LittleEndian.PutUint64(region[headerRootOff:], 0)

	if usable == 0 {
		binary.LittleEndian.PutUint64(region[headerFreeHeadOff:], 0)
		return h, nil
	}

	binary.LittleEndian.PutUint64(region[headerFreeHeadOff:], headerSize)
	writeBlockHeader(region, headerSize, usable, 0)
	return h, nil
}

func (h *handle) usableSize() uint64 {
	return binary.LittleEndian.Uint64(h.region[headerSizeOff:])
}

func (h *handle) freeHead() offsetT {
	return offsetT(binary.LittleEndian.Uint64(h.region[headerFreeHeadOff:]))
}

func (h *handle) setFreeHead(off offsetT) {
	binary.LittleEndian.PutUint64(h.region[headerFreeHeadOff:], uint64(off))
}

func (h *handle) rootOffset() offsetT {
	return offsetT(binary.LittleEndian.Uint64(h.region[headerRootOff:]))
}

func (h *handle) setRootOffset(off offsetT) {
	binary.LittleEndian.PutUint64(h.region[headerRootOff:], uint64(off))
}
