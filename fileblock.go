package mmapfs

import "encoding/binary"

// fileBlockSize is the fixed width of a file-block record:
//
//	offset 0:  size   uint64  bytes of user data in this block
//	offset 8:  data   uint64  offset of the data payload, or 0
//	offset 16: next   uint64  offset of the next block, or 0
const fileBlockSize = 24

func (h *handle) blockAt(off offsetT) ([]byte, error) {
	return h.slice(off, fileBlockSize)
}

func readFileBlock(rec []byte) (size uint64, data, next offsetT) {
	return binary.LittleEndian.Uint64(rec[0:8]),
		binary.LittleEndian.Uint64(rec[8:16]),
		binary.LittleEndian.Uint64(rec[16:24])
}

func writeFileBlock(rec []byte, size uint64, data, next offsetT) {
	binary.LittleEndian.PutUint64(rec[0:8], size)
	binary.LittleEndian.PutUint64(rec[8:16], data)
	binary.LittleEndian.PutUint64(rec[16:24], next)
}

func (h *handle) readBlock(off offsetT) (size uint64, data, next offsetT, err error) {
	rec, err := h.blockAt(off)
	if err != nil {
		return 0, 0, 0, err
	}
	size, data, next = readFileBlock(rec)
	return
}

func (h *handle) writeBlock(off offsetT, size uint64, data, next offsetT) error {
	rec, err := h.blockAt(off)
	if err != nil {
		return err
	}
	writeFileBlock(rec, size, data, next)
	return nil
}

// freeFileChain releases every block in the chain starting at first,
// along with each block's data payload.
func (h *handle) freeFileChain(first offsetT) error {
	curr := first
	for curr != 0 {
		_, data, next, err := h.readBlock(curr)
		if err != nil {
			return err
		}
		if err := h.free(data); err != nil {
			return err
		}
		if err := h.free(curr); err != nil {
			return err
		}
		curr = next
	}
	return nil
}

// zeroRegion zeroes n bytes of the image starting at off.
func (h *handle) zeroRegion(off offsetT, n uint64) error {
	if n == 0 {
		return nil
	}
	b, err := h.slice(off, n)
	if err != nil {
		return err
	}
	for i := range b {
		b[i] = 0
	}
	return nil
}
