package fusefs

import (
	"context"
	"syscall"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/objectfs/gitreefs/internal/attr"
	"github.com/objectfs/gitreefs/internal/gitdb"
	"github.com/objectfs/gitreefs/internal/inode"
	"github.com/objectfs/gitreefs/internal/listing"
)

// TreeNode is a directory materialized from a Git tree object: either a
// commit's root tree or a subdirectory reached by walking tree entries.
// commitTime is the committer time of the commit whose tree first reached
// this node and governs every timestamp this node (and its descendants,
// once they are themselves materialized) reports.
type TreeNode struct {
	nodeBase
	treeHash   plumbing.Hash
	commitTime time.Time
}

var (
	_ fs.NodeGetattrer = (*TreeNode)(nil)
	_ fs.NodeReaddirer = (*TreeNode)(nil)
	_ fs.NodeLookuper  = (*TreeNode)(nil)
)

func (n *TreeNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	applyAttr(attr.DirAttr(n.StableAttr().Ino, n.commitTime), out)
	return 0
}

func (n *TreeNode) tree() (*object.Tree, syscall.Errno) {
	t, err := n.root.db.Tree(n.treeHash)
	if err != nil {
		return nil, syscall.EIO
	}
	return t, 0
}

func (n *TreeNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	t, errno := n.tree()
	if errno != 0 {
		return nil, errno
	}
	children := make([]listing.Record, 0, len(t.Entries))
	for _, e := range t.Entries {
		children = append(children, listing.Record{
			Name:  e.Name,
			Ino:   childIno(e),
			Dtype: childDtype(e.Mode),
		})
	}
	records := listing.Build(n.StableAttr().Ino, n.StableAttr().Ino, children)
	return fs.NewListDirStream(toDirEntries(records)), 0
}

func (n *TreeNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	t, errno := n.tree()
	if errno != 0 {
		return nil, errno
	}
	for _, e := range t.Entries {
		if e.Name != name {
			continue
		}
		return n.materializeChild(ctx, e, out)
	}
	return nil, syscall.ENOENT
}

func childIno(e object.TreeEntry) uint64 {
	isDir, isSymlink, _, isGitlink := gitdb.EntryKind(e.Mode)
	switch {
	case isGitlink:
		return inode.Encode(e.Hash[:], inode.KindTree)
	case isDir:
		return inode.Encode(e.Hash[:], inode.KindTree)
	case isSymlink:
		return inode.Encode(e.Hash[:], inode.KindSymlink)
	default:
		return inode.Encode(e.Hash[:], inode.KindBlob)
	}
}

func childDtype(mode filemode.FileMode) listing.Dtype {
	isDir, isSymlink, _, isGitlink := gitdb.EntryKind(mode)
	switch {
	case isDir || isGitlink:
		return listing.DtDir
	case isSymlink:
		return listing.DtLnk
	default:
		return listing.DtReg
	}
}

func (n *TreeNode) materializeChild(ctx context.Context, e object.TreeEntry, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	isDir, isSymlink, isExecutable, isGitlink := gitdb.EntryKind(e.Mode)
	ino := childIno(e)

	switch {
	case isGitlink:
		n.register(ino, e.Hash.String(), inode.KindTree)
		applyEntry(attr.DirAttr(ino, n.commitTime), out)
		child := &gitlinkNode{nodeBase: nodeBase{root: n.root}, commitTime: n.commitTime}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: ino}), 0

	case isDir:
		n.register(ino, e.Hash.String(), inode.KindTree)
		applyEntry(attr.DirAttr(ino, n.commitTime), out)
		child := &TreeNode{nodeBase: nodeBase{root: n.root}, treeHash: e.Hash, commitTime: n.commitTime}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: ino}), 0

	case isSymlink:
		n.register(ino, e.Hash.String(), inode.KindSymlink)
		data, err := n.root.db.BlobBytes(e.Hash)
		if err != nil {
			return nil, syscall.EIO
		}
		applyEntry(attr.SymlinkAttr(ino, len(data), n.commitTime), out)
		child := &symlinkNode{nodeBase: nodeBase{root: n.root}, blobHash: e.Hash, commitTime: n.commitTime}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFLNK, Ino: ino}), 0

	default:
		n.register(ino, e.Hash.String(), inode.KindBlob)
		blob, err := n.root.db.Blob(e.Hash)
		if err != nil {
			return nil, syscall.EIO
		}
		applyEntry(attr.FileAttr(ino, isExecutable, uint64(blob.Size), n.commitTime), out)
		child := &fileNode{nodeBase: nodeBase{root: n.root}, blobHash: e.Hash, executable: isExecutable, size: uint64(blob.Size), commitTime: n.commitTime}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFREG, Ino: ino}), 0
	}
}

// gitlinkNode is the empty placeholder directory a submodule (gitlink) entry
// materializes as: no children are listed and no read is permitted, per the
// spec's submodule invariant.
type gitlinkNode struct {
	nodeBase
	commitTime time.Time
}

var (
	_ fs.NodeGetattrer = (*gitlinkNode)(nil)
	_ fs.NodeReaddirer = (*gitlinkNode)(nil)
	_ fs.NodeLookuper  = (*gitlinkNode)(nil)
)

func (n *gitlinkNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	applyAttr(attr.DirAttr(n.StableAttr().Ino, n.commitTime), out)
	return 0
}

func (n *gitlinkNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	records := listing.Build(n.StableAttr().Ino, n.StableAttr().Ino, nil)
	return fs.NewListDirStream(toDirEntries(records)), 0
}

func (n *gitlinkNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	return nil, syscall.ENOENT
}
