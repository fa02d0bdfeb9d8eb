package fusefs

import (
	"context"
	"syscall"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/objectfs/gitreefs/internal/attr"
)

// fileNode is a regular (or executable) file materialized from a blob.
type fileNode struct {
	nodeBase
	blobHash   plumbing.Hash
	executable bool
	size       uint64
	commitTime time.Time
}

var (
	_ fs.NodeGetattrer = (*fileNode)(nil)
	_ fs.NodeOpener    = (*fileNode)(nil)
	_ fs.NodeReader    = (*fileNode)(nil)
	_ fs.NodeAccesser  = (*fileNode)(nil)
)

func (n *fileNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	applyAttr(attr.FileAttr(n.StableAttr().Ino, n.executable, n.size, n.commitTime), out)
	return 0
}

// Open verifies the inode decodes to a known blob and rejects any access
// mode other than read-only, surfacing EBADF/EROFS at open rather than at
// the first read.
func (n *fileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	if _, err := n.root.db.Blob(n.blobHash); err != nil {
		return nil, 0, syscall.EBADF
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

// Read is a pure projection over the blob's content: offset clamps to
// [0, len], length clamps to [0, len-offset], and reads at or past EOF
// return zero bytes.
func (n *fileNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := n.root.db.BlobBytes(n.blobHash)
	if err != nil {
		return nil, syscall.EIO
	}
	if off < 0 || off >= int64(len(data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), 0
}

// Access succeeds for any read/execute check and fails with EROFS the
// moment a caller asks for write permission, per the spec's access(W_OK)
// mapping.
func (n *fileNode) Access(ctx context.Context, mask uint32) syscall.Errno {
	if mask&2 != 0 { // W_OK
		return syscall.EROFS
	}
	return 0
}

// symlinkNode is a Git symlink-mode blob entry; its target is the blob's raw
// content (not a path relative to the mount, matching the distinction drawn
// from ref symlinks which do carry a mount-relative target).
type symlinkNode struct {
	nodeBase
	blobHash   plumbing.Hash
	commitTime time.Time
}

var (
	_ fs.NodeGetattrer  = (*symlinkNode)(nil)
	_ fs.NodeReadlinker = (*symlinkNode)(nil)
)

func (n *symlinkNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	data, err := n.root.db.BlobBytes(n.blobHash)
	if err != nil {
		return syscall.EIO
	}
	applyAttr(attr.SymlinkAttr(n.StableAttr().Ino, len(data), n.commitTime), out)
	return 0
}

func (n *symlinkNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	data, err := n.root.db.BlobBytes(n.blobHash)
	if err != nil {
		return nil, syscall.EIO
	}
	return data, 0
}
