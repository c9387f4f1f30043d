package mmapfs

import (
	"strings"
)

// splitComponents breaks a path into its non-empty components,
// rejecting any component longer than MaxNameLength. "/" and ""
// both split to zero components, meaning "the root".
func splitComponents(p string) ([]string, error) {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, "/")
	for _, c := range parts {
		if len(c) > MaxNameLength {
			return nil, newErr("resolve", p, ErrNameTooLong)
		}
	}
	return parts, nil
}

// splitParentBase splits a path into its parent directory path and
// final component, e.g. "/a/b/c" -> ("/a/b", "c"), "/a" -> ("/", "a").
func splitParentBase(p string) (parentDir, base string, err error) {
	parts, err := splitComponents(p)
	if err != nil {
		return "", "", err
	}
	if len(parts) == 0 {
		return "", "", newErr("resolve", p, ErrNotFound)
	}
	base = parts[len(parts)-1]
	if len(parts) == 1 {
		return "/", base, nil
	}
	return "/" + strings.Join(parts[:len(parts)-1], "/"), base, nil
}

// resolved identifies an inode together with the directory inode that
// directly owns it. parent is 0 for the root inode, which is owned by
// the header rather than by any children array.
type resolved struct {
	offset offsetT
	parent offsetT
}

// ensureRoot returns the offset of the root directory inode, lazily
// creating it on first use, per spec.md §4.1 and §4.4.
func (h *handle) ensureRoot(now timeNow) (offsetT, error) {
	if root := h.rootOffset(); root != 0 {
		return root, nil
	}
	off, err := h.allocate(inodeSize)
	if err != nil {
		return 0, err
	}
	if off == 0 {
		return 0, newErr("resolve", "/", ErrOutOfSpace)
	}
	if err := h.initInode(off, "", typeDirectory, now()); err != nil {
		return 0, err
	}
	if err := h.setDirChildren(off, 0, 0); err != nil {
		return 0, err
	}
	h.setRootOffset(off)
	return off, nil
}

// lookupChild scans dirOff's children array linearly for name,
// returning the offset of the matching inode.
func (h *handle) lookupChild(dirOff offsetT, name string) (offsetT, bool, error) {
	count, err := h.dirChildCount(dirOff)
	if err != nil {
		return 0, false, err
	}
	if count == 0 {
		return 0, false, nil
	}
	children, err := h.dirChildrenOffset(dirOff)
	if err != nil {
		return 0, false, err
	}
	for i := uint64(0); i < count; i++ {
		childOff := children + i*inodeSize
		childName, err := h.inodeNameAt(childOff)
		if err != nil {
			return 0, false, err
		}
		if childName == name {
			return childOff, true, nil
		}
	}
	return 0, false, nil
}

// resolve walks p component by component from the root. It never
// mutates the image except for the lazy root creation described above.
func (h *handle) resolve(p string, now timeNow) (resolved, error) {
	root, err := h.ensureRoot(now)
	if err != nil {
		return resolved{}, err
	}
	comps, err := splitComponents(p)
	if err != nil {
		return resolved{}, err
	}
	if len(comps) == 0 {
		return resolved{offset: root, parent: 0}, nil
	}

	cur := root
	var parent offsetT
	for _, name := range comps {
		t, err := h.inodeTypeAt(cur)
		if err != nil {
			return resolved{}, err
		}
		if t != typeDirectory {
			return resolved{}, newErr("resolve", p, ErrNotDir)
		}
		child, found, err := h.lookupChild(cur, name)
		if err != nil {
			return resolved{}, err
		}
		if !found {
			return resolved{}, newErr("resolve", p, ErrNotFound)
		}
		parent = cur
		cur = child
	}
	return resolved{offset: cur, parent: parent}, nil
}
