package mmapfs

// Mknod creates an empty regular file at path. The parent directory
// must already exist; path itself must not.
func (fs *FS) Mknod(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return err
	}
	return h.create(path, typeRegular, fs.now)
}

// Mkdir creates an empty directory at path.
func (fs *FS) Mkdir(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return err
	}
	return h.create(path, typeDirectory, fs.now)
}

// create implements both Mknod and Mkdir: resolve the parent, check
// for a name collision, grow the parent's inline children array by
// one slot, and initialize the new inode there.
func (h *handle) create(path string, t inodeType, now timeNow) error {
	parentPath, base, err := splitParentBase(path)
	if err != nil {
		return err
	}
	if len(base) > MaxNameLength {
		return newErr("create", path, ErrNameTooLong)
	}

	parent, err := h.resolve(parentPath, now)
	if err != nil {
		return err
	}
	parentType, err := h.inodeTypeAt(parent.offset)
	if err != nil {
		return err
	}
	if parentType != typeDirectory {
		return newErr("create", path, ErrNotDir)
	}

	if _, found, err := h.lookupChild(parent.offset, base); err != nil {
		return err
	} else if found {
		return newErr("create", path, ErrExists)
	}

	slot, err := h.growChildren(parent.offset)
	if err != nil {
		return err
	}
	if slot == 0 {
		return newErr("create", path, ErrOutOfSpace)
	}

	if err := h.initInode(slot, base, t, now()); err != nil {
		return err
	}
	if t == typeDirectory {
		return h.setDirChildren(slot, 0, 0)
	}
	return h.setFile(slot, 0, 0)
}

// growChildren extends dirOff's inline children array by one inode
// slot and returns the offset of the new, not-yet-initialized slot.
// It returns (0, nil) on allocation failure, leaving the directory
// untouched.
func (h *handle) growChildren(dirOff offsetT) (offsetT, error) {
	count, err := h.dirChildCount(dirOff)
	if err != nil {
		return 0, err
	}
	children, err := h.dirChildrenOffset(dirOff)
	if err != nil {
		return 0, err
	}

	var newChildren offsetT
	if count == 0 {
		newChildren, err = h.allocate(inodeSize)
	} else {
		newChildren, err = h.reallocate(children, (count+1)*inodeSize)
	}
	if err != nil {
		return 0, err
	}
	if newChildren == 0 {
		return 0, nil
	}

	if err := h.setDirChildren(dirOff, count+1, newChildren); err != nil {
		return 0, err
	}
	return newChildren + count*inodeSize, nil
}

// indexOfChild returns the index of the entry named name within
// dirOff's children array.
func (h *handle) indexOfChild(dirOff offsetT, name string) (idx uint64, found bool, err error) {
	count, err := h.dirChildCount(dirOff)
	if err != nil {
		return 0, false, err
	}
	children, err := h.dirChildrenOffset(dirOff)
	if err != nil {
		return 0, false, err
	}
	for i := uint64(0); i < count; i++ {
		n, err := h.inodeNameAt(children + i*inodeSize)
		if err != nil {
			return 0, false, err
		}
		if n == name {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// dropLastChild shrinks dirOff's children array by one slot, assuming
// the caller has already arranged for the last slot's contents to be
// disposable (either copied elsewhere or genuinely redundant).
func (h *handle) dropLastChild(dirOff offsetT) error {
	count, err := h.dirChildCount(dirOff)
	if err != nil {
		return err
	}
	children, err := h.dirChildrenOffset(dirOff)
	if err != nil {
		return err
	}
	newCount := count - 1
	if newCount == 0 {
		if err := h.free(children); err != nil {
			return err
		}
		return h.setDirChildren(dirOff, 0, 0)
	}
	newChildren, err := h.reallocate(children, newCount*inodeSize)
	if err != nil {
		return err
	}
	if newChildren == 0 {
		return h.setDirChildren(dirOff, newCount, children)
	}
	return h.setDirChildren(dirOff, newCount, newChildren)
}

// removeChild removes the entry named name from dirOff's children
// array using compact-with-last-slot: the removed slot is overwritten
// with the last slot's bytes, and the array is shrunk by one. Indexes
// into a children array are never stable across this operation, which
// is why every exported operation re-resolves paths from scratch.
func (h *handle) removeChild(dirOff offsetT, name string) error {
	count, err := h.dirChildCount(dirOff)
	if err != nil {
		return err
	}
	children, err := h.dirChildrenOffset(dirOff)
	if err != nil {
		return err
	}

	var idx uint64 = count
	for i := uint64(0); i < count; i++ {
		n, err := h.inodeNameAt(children + i*inodeSize)
		if err != nil {
			return err
		}
		if n == name {
			idx = i
			break
		}
	}
	if idx == count {
		return newErr("removeChild", name, ErrNotFound)
	}

	lastIdx := count - 1
	if idx != lastIdx {
		lastRec, err := h.inodeAt(children + lastIdx*inodeSize)
		if err != nil {
			return err
		}
		targetRec, err := h.inodeAt(children + idx*inodeSize)
		if err != nil {
			return err
		}
		copy(targetRec, lastRec)
	}

	newCount := count - 1
	if newCount == 0 {
		if err := h.free(children); err != nil {
			return err
		}
		return h.setDirChildren(dirOff, 0, 0)
	}

	newChildren, err := h.reallocate(children, newCount*inodeSize)
	if err != nil {
		return err
	}
	if newChildren == 0 {
		// Shrinking should never fail to find space for less memory
		// than already held, but if the allocator somehow cannot
		// service it, keep the pre-shrink array rather than leave the
		// directory inconsistent.
		return h.setDirChildren(dirOff, newCount, children)
	}
	return h.setDirChildren(dirOff, newCount, newChildren)
}

// Unlink removes the regular file at path and releases its file-block
// chain.
func (fs *FS) Unlink(path string) error {
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
	if t != typeRegular {
		return newErr("unlink", path, ErrIsDir)
	}
	if r.parent == 0 {
		return newErr("unlink", path, ErrIsDir)
	}

	first, err := h.fileFirstBlock(r.offset)
	if err != nil {
		return err
	}
	if err := h.freeFileChain(first); err != nil {
		return err
	}

	_, base, err := splitParentBase(path)
	if err != nil {
		return err
	}
	return h.removeChild(r.parent, base)
}

// Rmdir removes the empty directory at path.
func (fs *FS) Rmdir(path string) error {
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
	if t != typeDirectory {
		return newErr("rmdir", path, ErrNotDir)
	}
	if r.parent == 0 {
		return newErr("rmdir", path, ErrNotEmpty)
	}

	count, err := h.dirChildCount(r.offset)
	if err != nil {
		return err
	}
	if count != 0 {
		return newErr("rmdir", path, ErrNotEmpty)
	}

	_, base, err := splitParentBase(path)
	if err != nil {
		return err
	}
	return h.removeChild(r.parent, base)
}

// Rename moves or renames the file or directory at from to to. If to
// already exists, it is replaced: an existing file target is deleted
// (content freed) first; an existing empty directory target is
// removed first; an existing non-empty directory target fails with
// ErrNotEmpty. This resolves spec.md §9 Open Question 2 in favor of
// well-defined overwrite semantics rather than the source's silent
// uniqueness violation.
func (fs *FS) Rename(from, to string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	h, err := fs.acquire()
	if err != nil {
		return err
	}
	return h.rename(from, to, fs.now)
}

func (h *handle) rename(from, to string, now timeNow) error {
	if from == to {
		return nil
	}

	fromDirPath, fromBase, err := splitParentBase(from)
	if err != nil {
		return err
	}
	toDirPath, toBase, err := splitParentBase(to)
	if err != nil {
		return err
	}
	if len(toBase) > MaxNameLength {
		return newErr("rename", to, ErrNameTooLong)
	}

	src, err := h.resolve(from, now)
	if err != nil {
		return err
	}
	fromDir, err := h.resolve(fromDirPath, now)
	if err != nil {
		return err
	}
	toDir, err := h.resolve(toDirPath, now)
	if err != nil {
		return err
	}
	if t, err := h.inodeTypeAt(toDir.offset); err != nil {
		return err
	} else if t != typeDirectory {
		return newErr("rename", to, ErrNotDir)
	}

	existing, found, err := h.lookupChild(toDir.offset, toBase)
	if err != nil {
		return err
	}
	var existingType inodeType
	if found {
		existingType, err = h.inodeTypeAt(existing)
		if err != nil {
			return err
		}
		if existingType == typeDirectory {
			n, err := h.dirChildCount(existing)
			if err != nil {
				return err
			}
			if n != 0 {
				return newErr("rename", to, ErrNotEmpty)
			}
		}
	}

	if fromDir.offset == toDir.offset {
		if found {
			if existingType == typeRegular {
				first, err := h.fileFirstBlock(existing)
				if err != nil {
					return err
				}
				if err := h.freeFileChain(first); err != nil {
					return err
				}
			}
			if err := h.removeChild(toDir.offset, toBase); err != nil {
				return err
			}
		}
		srcNow, stillFound, err := h.lookupChild(fromDir.offset, fromBase)
		if err != nil {
			return err
		}
		if !stillFound {
			return newErr("rename", from, ErrNotFound)
		}
		rec, err := h.inodeAt(srcNow)
		if err != nil {
			return err
		}
		writeInodeName(rec, toBase)
		return nil
	}

	// Cross-directory move: grow the destination first so a failed
	// allocation leaves both directories untouched. The existing
	// target, if any, is found by index now (before the grow may
	// relocate the children array) so that the subsequent overwrite
	// cannot be confused by the new entry sharing its name.
	existingIdx, existingFound, err := h.indexOfChild(toDir.offset, toBase)
	if err != nil {
		return err
	}

	slot, err := h.growChildren(toDir.offset)
	if err != nil {
		return err
	}
	if slot == 0 {
		return newErr("rename", to, ErrOutOfSpace)
	}

	srcRec, err := h.inodeAt(src.offset)
	if err != nil {
		return err
	}
	dstRec, err := h.inodeAt(slot)
	if err != nil {
		return err
	}
	copy(dstRec, srcRec)
	writeInodeName(dstRec, toBase)

	if existingFound {
		// Overwrite the pre-existing target slot with the entry we
		// just appended, then drop the now-duplicate tail slot. The
		// target's own payload must be freed first, exactly as Unlink
		// would, or its file-block chain leaks.
		newChildren, err := h.dirChildrenOffset(toDir.offset)
		if err != nil {
			return err
		}
		targetRec, err := h.inodeAt(newChildren + existingIdx*inodeSize)
		if err != nil {
			return err
		}
		if existingType == typeRegular {
			first, err := h.fileFirstBlock(newChildren + existingIdx*inodeSize)
			if err != nil {
				return err
			}
			if err := h.freeFileChain(first); err != nil {
				return err
			}
		}
		appendedRec, err := h.inodeAt(slot)
		if err != nil {
			return err
		}
		copy(targetRec, appendedRec)
		if err := h.dropLastChild(toDir.offset); err != nil {
			return err
		}
	}

	return h.removeChild(fromDir.offset, fromBase)
}
