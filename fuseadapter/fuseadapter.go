// Package fuseadapter exposes an *mmapfs.FS as a mountable FUSE
// filesystem. It is the "host driver" spec.md §1 describes: each
// go-fuse callback below is built from one or more of mmapfs's
// thirteen operations (Create, for instance, calls Mknod then
// GetAttr) and maps *mmapfs.Error back into a syscall.Errno.
//
// Grounded on bureau-foundation-bureau/lib/artifact/fuse/mount.go's
// use of gofuse.Inode and the NodeLookuper/NodeReaddirer/NodeReader
// family of interfaces; extended here with the writer-side interfaces
// (NodeCreater, NodeMkdirer, NodeUnlinker, NodeRmdirer, NodeRenamer,
// NodeSetattrer, NodeWriter, NodeStatfser) since mmapfs, unlike the
// read-only artifact store, is a read/write filesystem.
package fuseadapter

import (
	"context"
	"log/slog"
	"os"
	"path"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/absfs/mmapfs"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	Mountpoint string

	// FS is the already-constructed mmapfs filesystem to serve.
	FS *mmapfs.FS

	// AllowOther permits other users (including root) to access the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives mount/unmount/error diagnostics. If nil, a
	// text logger writing error-level records to stderr is used.
	Logger *slog.Logger
}

// Mount mounts fs at options.Mountpoint. The caller must call Unmount
// on the returned Server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, &os.PathError{Op: "mount", Path: "", Err: os.ErrInvalid}
	}
	if options.FS == nil {
		return nil, &os.PathError{Op: "mount", Path: options.Mountpoint, Err: os.ErrInvalid}
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, err
	}

	root := &node{fs: options.FS, path: "/", logger: options.Logger}
	entryTimeout := time.Second
	attrTimeout := time.Second

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout: &entryTimeout,
		AttrTimeout:  &attrTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "mmapfs",
			Name:       "mmapfs",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, err
	}

	options.Logger.Info("mmapfs mounted", "mountpoint", options.Mountpoint)
	return server, nil
}

// node is a single FUSE inode. It carries no mmapfs-side state beyond
// its path: every callback re-resolves through fs, matching the
// core's own "no pointers across calls" discipline — a node surviving
// across calls is just a cached path, never a cached offset.
type node struct {
	gofuse.Inode

	fs     *mmapfs.FS
	path   string
	logger *slog.Logger
}

var (
	_ gofuse.InodeEmbedder  = (*node)(nil)
	_ gofuse.NodeLookuper   = (*node)(nil)
	_ gofuse.NodeReaddirer  = (*node)(nil)
	_ gofuse.NodeGetattrer  = (*node)(nil)
	_ gofuse.NodeSetattrer  = (*node)(nil)
	_ gofuse.NodeOpener     = (*node)(nil)
	_ gofuse.NodeReader     = (*node)(nil)
	_ gofuse.NodeWriter     = (*node)(nil)
	_ gofuse.NodeCreater    = (*node)(nil)
	_ gofuse.NodeMkdirer    = (*node)(nil)
	_ gofuse.NodeUnlinker   = (*node)(nil)
	_ gofuse.NodeRmdirer    = (*node)(nil)
	_ gofuse.NodeRenamer    = (*node)(nil)
	_ gofuse.NodeStatfser   = (*node)(nil)
)

func childPath(parent, name string) string {
	return path.Join(parent, name)
}

func fillAttr(out *fuse.Attr, st mmapfs.Stat) {
	out.Mode = uint32(st.Mode().Perm())
	if st.IsDir() {
		out.Mode |= syscall.S_IFDIR
	} else {
		out.Mode |= syscall.S_IFREG
		out.Size = uint64(st.Size())
	}
	out.Mtime = uint64(st.ModTime().Unix())
	out.Atime = uint64(st.Atime().Unix())
	out.Uid = st.Uid()
	out.Gid = st.Gid()
}

func (n *node) childNode(p string, st mmapfs.Stat) *gofuse.Inode {
	mode := uint32(syscall.S_IFREG)
	if st.IsDir() {
		mode = syscall.S_IFDIR
	}
	child := &node{fs: n.fs, path: p, logger: n.logger}
	return n.NewInode(context.Background(), child, gofuse.StableAttr{Mode: mode})
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	p := childPath(n.path, name)
	st, err := n.fs.GetAttr(p)
	if err != nil {
		return nil, mmapfs.Errno(err)
	}
	fillAttr(&out.Attr, st)
	return n.childNode(p, st), 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	names, err := n.fs.ReadDir(n.path)
	if err != nil {
		return nil, mmapfs.Errno(err)
	}
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		st, err := n.fs.GetAttr(childPath(n.path, name))
		if err != nil {
			continue
		}
		mode := uint32(syscall.S_IFREG)
		if st.IsDir() {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode})
	}
	return gofuse.NewListDirStream(entries), 0
}

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	st, err := n.fs.GetAttr(n.path)
	if err != nil {
		return mmapfs.Errno(err)
	}
	fillAttr(&out.Attr, st)
	return 0
}

func (n *node) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if err := n.fs.Truncate(n.path, size); err != nil {
			return mmapfs.Errno(err)
		}
	}
	atime, hasAtime := in.GetATime()
	mtime, hasMtime := in.GetMTime()
	if hasAtime || hasMtime {
		if !hasAtime || !hasMtime {
			st, err := n.fs.GetAttr(n.path)
			if err != nil {
				return mmapfs.Errno(err)
			}
			if !hasAtime {
				atime = st.Atime()
			}
			if !hasMtime {
				mtime = st.ModTime()
			}
		}
		if err := n.fs.Utimens(n.path, atime, mtime); err != nil {
			return mmapfs.Errno(err)
		}
	}
	st, err := n.fs.GetAttr(n.path)
	if err != nil {
		return mmapfs.Errno(err)
	}
	fillAttr(&out.Attr, st)
	return 0
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if err := n.fs.Open(n.path); err != nil {
		return nil, 0, mmapfs.Errno(err)
	}
	return nil, 0, 0
}

func (n *node) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	count, err := n.fs.Read(n.path, dest, off)
	if err != nil {
		n.logger.Error("read failed", "path", n.path, "offset", off, "error", err)
		return nil, mmapfs.Errno(err)
	}
	return fuse.ReadResultData(dest[:count]), 0
}

func (n *node) Write(ctx context.Context, f gofuse.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	count, err := n.fs.Write(n.path, data, off)
	if err != nil {
		n.logger.Error("write failed", "path", n.path, "offset", off, "error", err)
		return 0, mmapfs.Errno(err)
	}
	return uint32(count), 0
}

func (n *node) Create(ctx context.Context, name string, flags, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	p := childPath(n.path, name)
	if err := n.fs.Mknod(p); err != nil {
		return nil, nil, 0, mmapfs.Errno(err)
	}
	st, err := n.fs.GetAttr(p)
	if err != nil {
		return nil, nil, 0, mmapfs.Errno(err)
	}
	fillAttr(&out.Attr, st)
	return n.childNode(p, st), nil, 0, 0
}

func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	p := childPath(n.path, name)
	if err := n.fs.Mkdir(p); err != nil {
		return nil, mmapfs.Errno(err)
	}
	st, err := n.fs.GetAttr(p)
	if err != nil {
		return nil, mmapfs.Errno(err)
	}
	fillAttr(&out.Attr, st)
	return n.childNode(p, st), 0
}

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	if err := n.fs.Unlink(childPath(n.path, name)); err != nil {
		return mmapfs.Errno(err)
	}
	return 0
}

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	if err := n.fs.Rmdir(childPath(n.path, name)); err != nil {
		return mmapfs.Errno(err)
	}
	return 0
}

func (n *node) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	dst, ok := newParent.(*node)
	if !ok {
		return syscall.EINVAL
	}
	from := childPath(n.path, name)
	to := childPath(dst.path, newName)
	if err := n.fs.Rename(from, to); err != nil {
		return mmapfs.Errno(err)
	}
	return 0
}

func (n *node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	st, err := n.fs.Statfs()
	if err != nil {
		return mmapfs.Errno(err)
	}
	out.Bsize = uint32(st.Bsize)
	out.Blocks = st.Blocks
	out.Bfree = st.Bfree
	out.Bavail = st.Bavail
	out.NameLen = uint32(st.Namemax)
	return 0
}
