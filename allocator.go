package mmapfs

import "encoding/binary"

// blockHeaderSize is the shape shared by free and allocated blocks: a
// total size (header inclusive) and a next-block offset. For an
// allocated block the next field is unused and left at zero; it only
// becomes meaningful again once the block is freed and threaded back
// onto the free list.
const blockHeaderSize = 16

func readBlockHeader(region []byte, off offsetT) (size uint64, next offsetT) {
	b := region[off : off+blockHeaderSize]
	return binary.LittleEndian.Uint64(b[0:8]), binary.LittleEndian.Uint64(b[8:16])
}

func writeBlockHeader(region []byte, off offsetT, size uint64, next offsetT) {
	b := region[off : off+blockHeaderSize]
	binary.LittleEndian.PutUint64(b[0:8], size)
	binary.LittleEndian.PutUint64(b[8:16], next)
}

// allocate reserves at least n user bytes and returns the offset of
// the first user byte (i.e. past the block's header). It returns
// (0, nil) when no free block is large enough — the caller lifts that
// into ErrOutOfSpace, since "exhausted" is not itself a fault.
//
// Allocation policy is address-ordered first-fit: the free list is
// walked in offset order and the first block whose size can cover
// n+blockHeaderSize is taken. If the leftover tail is itself large
// enough to describe a free block, it is split off and reinserted in
// place; otherwise the whole block is handed out and the slack is
// accepted, exactly as spec.md §4.3 describes.
func (h *handle) allocate(n uint64) (offsetT, error) {
	if n == 0 {
		return 0, nil
	}
	need := n + blockHeaderSize
	if need < n {
		return 0, newErr("allocate", "", ErrBadState)
	}

	var prev offsetT
	curr := h.freeHead()
	for curr != 0 {
		size, next := readBlockHeader(h.region, curr)
		if size >= need {
			residual := size - need
			var afterCurr offsetT
			if residual >= blockHeaderSize {
				tail := curr + need
				writeBlockHeader(h.region, tail, residual, next)
				afterCurr = tail
				writeBlockHeader(h.region, curr, need, 0)
			} else {
				afterCurr = next
				writeBlockHeader(h.region, curr, size, 0)
			}

			if prev == 0 {
				h.setFreeHead(afterCurr)
			} else {
				prevSize, _ := readBlockHeader(h.region, prev)
				writeBlockHeader(h.region, prev, prevSize, afterCurr)
			}
			return curr + blockHeaderSize, nil
		}
		prev = curr
		curr = next
	}
	return 0, nil
}

// free releases a previously allocated block, reinserting it into the
// address-ordered free list and coalescing with any immediately
// adjacent neighbors. off is the user offset returned by allocate; a
// null off is a no-op.
func (h *handle) free(off offsetT) error {
	if off == 0 {
		return nil
	}
	blockOff := off - blockHeaderSize
	if blockOff < headerSize || blockOff+blockHeaderSize > uint64(len(h.region)) {
		return newErr("free", "", ErrBadState)
	}
	size, _ := readBlockHeader(h.region, blockOff)

	var prev offsetT
	curr := h.freeHead()
	for curr != 0 && curr < blockOff {
		prev = curr
		_, curr = readBlockHeader(h.region, curr)
	}

	next := curr
	writeBlockHeader(h.region, blockOff, size, next)

	if prev == 0 {
		h.setFreeHead(blockOff)
	} else {
		prevSize, _ := readBlockHeader(h.region, prev)
		writeBlockHeader(h.region, prev, prevSize, blockOff)
	}

	// Merge with the right neighbor first so a subsequent merge with
	// the left neighbor sees the combined size. blockOff is already
	// correctly linked from prev (or the free-list head) above, so
	// only its own header needs updating.
	if next != 0 && blockOff+size == next {
		nextSize, nextNext := readBlockHeader(h.region, next)
		size += nextSize
		next = nextNext
		writeBlockHeader(h.region, blockOff, size, next)
	}

	if prev != 0 {
		prevSize, _ := readBlockHeader(h.region, prev)
		if prev+prevSize == blockOff {
			writeBlockHeader(h.region, prev, prevSize+size, next)
		}
	}

	return nil
}

// reallocate resizes the block at off to hold n user bytes, preserving
// up to min(old user size, n) bytes of content. n == 0 is equivalent
// to free and always returns (0, nil). A failed reallocation leaves
// the original block untouched and returns (0, nil).
func (h *handle) reallocate(off offsetT, n uint64) (offsetT, error) {
	if n == 0 {
		if err := h.free(off); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if off == 0 {
		return h.allocate(n)
	}

	blockOff := off - blockHeaderSize
	oldBlockSize, _ := readBlockHeader(h.region, blockOff)
	oldUserSize := oldBlockSize - blockHeaderSize

	newOff, err := h.allocate(n)
	if err != nil {
		return 0, err
	}
	if newOff == 0 {
		return 0, nil
	}

	toCopy := oldUserSize
	if n < toCopy {
		toCopy = n
	}
	copy(h.region[newOff:newOff+toCopy], h.region[off:off+toCopy])

	if err := h.free(off); err != nil {
		return 0, err
	}
	return newOff, nil
}

// largestFreeRun returns the largest single user-visible size
// allocatable right now.
func (h *handle) largestFreeRun() uint64 {
	var max uint64
	curr := h.freeHead()
	for curr != 0 {
		size, next := readBlockHeader(h.region, curr)
		if size > blockHeaderSize && size-blockHeaderSize > max {
			max = size - blockHeaderSize
		}
		curr = next
	}
	return max
}

// totalFree returns the sum of all free-list block sizes, header bytes
// included.
func (h *handle) totalFree() uint64 {
	var total uint64
	curr := h.freeHead()
	for curr != 0 {
		size, next := readBlockHeader(h.region, curr)
		total += size
		curr = next
	}
	return total
}
