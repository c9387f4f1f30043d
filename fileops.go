package mmapfs

// Truncate changes the size of the regular file at path to n bytes.
// Growing the file zero-fills the new bytes; shrinking it frees the
// trailing blocks. Truncating to the current size is a no-op, per
// spec.md §9 Open Question 3.
func (fs *FS) Truncate(path string, n uint64) error {
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
	t, err := h.inodeTypeAt(r.offset)
	if err != nil {
		return err
	}
	if t != typeDirectory && t != typeRegular {
		return newErr("truncate", path, ErrBadState)
	}
	if t == typeDirectory {
		return newErr("truncate", path, ErrIsDir)
	}

	size, err := h.fileSize(r.offset)
	if err != nil {
		return err
	}
	if n == size {
		return nil
	}

	if err := h.resizeFile(r.offset, n); err != nil {
		return err
	}
	return h.touch(r.offset, true, true, fs.now())
}

// resizeFile grows or shrinks the file-block chain owned by the inode
// at fileOff to exactly n bytes, per spec.md §4.6.
func (h *handle) resizeFile(fileOff offsetT, n uint64) error {
	size, err := h.fileSize(fileOff)
	if err != nil {
		return err
	}
	first, err := h.fileFirstBlock(fileOff)
	if err != nil {
		return err
	}

	switch {
	case n == 0:
		if err := h.freeFileChain(first); err != nil {
			return err
		}
		return h.setFile(fileOff, 0, 0)

	case size == 0:
		data, err := h.allocate(n)
		if err != nil {
			return err
		}
		if data == 0 {
			return newErr("truncate", "", ErrOutOfSpace)
		}
		if err := h.zeroRegion(data, n); err != nil {
			return err
		}
		block, err := h.allocate(fileBlockSize)
		if err != nil {
			return err
		}
		if block == 0 {
			h.free(data)
			return newErr("truncate", "", ErrOutOfSpace)
		}
		if err := h.writeBlock(block, n, data, 0); err != nil {
			return err
		}
		return h.setFile(fileOff, n, block)

	case n < size:
		var before uint64
		blockOff := first
		for {
			blkSize, data, next, err := h.readBlock(blockOff)
			if err != nil {
				return err
			}
			if before+blkSize >= n {
				localSize := n - before
				newData, err := h.reallocate(data, localSize)
				if err != nil {
					return err
				}
				if newData == 0 && localSize != 0 {
					return newErr("truncate", "", ErrOutOfSpace)
				}
				if err := h.writeBlock(blockOff, localSize, newData, 0); err != nil {
					return err
				}
				if err := h.freeFileChain(next); err != nil {
					return err
				}
				break
			}
			before += blkSize
			blockOff = next
		}
		return h.setFile(fileOff, n, first)

	default: // n > size
		blockOff := first
		var lastOff offsetT
		var lastSize uint64
		var lastData offsetT
		for blockOff != 0 {
			blkSize, data, next, err := h.readBlock(blockOff)
			if err != nil {
				return err
			}
			lastOff, lastSize, lastData = blockOff, blkSize, data
			blockOff = next
		}
		extra := n - size
		newLocalSize := lastSize + extra
		newData, err := h.reallocate(lastData, newLocalSize)
		if err != nil {
			return err
		}
		if newData == 0 {
			return newErr("truncate", "", ErrOutOfSpace)
		}
		if err := h.zeroRegion(newData+lastSize, extra); err != nil {
			return err
		}
		if err := h.writeBlock(lastOff, newLocalSize, newData, 0); err != nil {
			return err
		}
		return h.setFile(fileOff, n, first)
	}
}

// Read copies up to len(buf) bytes from the regular file at path,
// starting at offset, into buf, returning the number of bytes copied.
// An offset at or past the end of file returns (0, nil): EOF, not an
// error.
func (fs *FS) Read(path string, buf []byte, offset int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return 0, err
	}

	r, err := h.resolve(path, fs.now)
	if err != nil {
		return 0, err
	}
	t, err := h.inodeTypeAt(r.offset)
	if err != nil {
		return 0, err
	}
	if t != typeRegular {
		return 0, newErr("read", path, ErrIsDir)
	}

	size, err := h.fileSize(r.offset)
	if err != nil {
		return 0, err
	}
	if offset < 0 || uint64(offset) >= size {
		return 0, nil
	}

	n, err := h.readFile(r.offset, buf, uint64(offset))
	if err != nil {
		return 0, err
	}
	h.touch(r.offset, true, false, fs.now())
	return n, nil
}

func (h *handle) readFile(fileOff offsetT, buf []byte, offset uint64) (int, error) {
	first, err := h.fileFirstBlock(fileOff)
	if err != nil {
		return 0, err
	}

	var before uint64
	blockOff := first
	for blockOff != 0 {
		blkSize, data, next, err := h.readBlock(blockOff)
		if err != nil {
			return 0, err
		}
		if before+blkSize > offset {
			break
		}
		before += blkSize
		blockOff = next
		_ = data
	}

	localOff := offset - before
	copied := 0
	for blockOff != 0 && copied < len(buf) {
		blkSize, data, next, err := h.readBlock(blockOff)
		if err != nil {
			return copied, err
		}
		avail := blkSize - localOff
		want := uint64(len(buf) - copied)
		take := avail
		if want < take {
			take = want
		}
		if take > 0 {
			payload, err := h.slice(data, blkSize)
			if err != nil {
				return copied, err
			}
			copy(buf[copied:], payload[localOff:localOff+take])
			copied += int(take)
		}
		blockOff = next
		localOff = 0
	}
	return copied, nil
}

// Write copies len(buf) bytes into the regular file at path starting
// at offset, extending the file if the write runs past the current
// end. Writes strictly past the current end of file (offset > size)
// are rejected by returning (0, nil), matching the original
// implementation's behavior (spec.md §9 Open Question 1); mmapfs does
// not support sparse files / holes.
func (fs *FS) Write(path string, buf []byte, offset int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return 0, err
	}

	r, err := h.resolve(path, fs.now)
	if err != nil {
		return 0, err
	}
	t, err := h.inodeTypeAt(r.offset)
	if err != nil {
		return 0, err
	}
	if t != typeRegular {
		return 0, newErr("write", path, ErrIsDir)
	}

	size, err := h.fileSize(r.offset)
	if err != nil {
		return 0, err
	}
	if offset < 0 || uint64(offset) > size {
		return 0, nil
	}
	if len(buf) == 0 {
		return 0, nil
	}

	end := uint64(offset) + uint64(len(buf))
	if end > size {
		if err := h.resizeFile(r.offset, end); err != nil {
			return 0, err
		}
	}

	if err := h.writeFile(r.offset, buf, uint64(offset)); err != nil {
		return 0, err
	}
	h.touch(r.offset, true, true, fs.now())
	return len(buf), nil
}

func (h *handle) writeFile(fileOff offsetT, buf []byte, offset uint64) error {
	first, err := h.fileFirstBlock(fileOff)
	if err != nil {
		return err
	}

	var before uint64
	blockOff := first
	for blockOff != 0 {
		blkSize, _, next, err := h.readBlock(blockOff)
		if err != nil {
			return err
		}
		if before+blkSize > offset {
			break
		}
		before += blkSize
		blockOff = next
	}

	localOff := offset - before
	written := 0
	for blockOff != 0 && written < len(buf) {
		blkSize, data, next, err := h.readBlock(blockOff)
		if err != nil {
			return err
		}
		avail := blkSize - localOff
		want := uint64(len(buf) - written)
		take := avail
		if want < take {
			take = want
		}
		if take > 0 {
			payload, err := h.slice(data, blkSize)
			if err != nil {
				return err
			}
			copy(payload[localOff:localOff+take], buf[written:])
			written += int(take)
		}
		blockOff = next
		localOff = 0
	}
	return nil
}
