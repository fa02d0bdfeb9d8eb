package fusefs

import (
	"context"
	"fmt"
	"syscall"

	"go.uber.org/zap"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/objectfs/gitreefs/internal/attr"
	"github.com/objectfs/gitreefs/internal/gitdb"
	"github.com/objectfs/gitreefs/internal/inode"
	"github.com/objectfs/gitreefs/internal/listing"
)

// RefsNode serves /branches or /tags, depending on namespace: a flat,
// listable directory whose entries are symlinks into /commits for refs that
// peel to a commit, or the target object's own node directly for refs built
// to point at a tree or blob.
type RefsNode struct {
	nodeBase
	namespace inode.RefNamespace
}

var (
	_ fs.NodeGetattrer = (*RefsNode)(nil)
	_ fs.NodeReaddirer = (*RefsNode)(nil)
	_ fs.NodeLookuper  = (*RefsNode)(nil)
)

func (n *RefsNode) selfIno() uint64 {
	if n.namespace == inode.NamespaceBranch {
		return inode.InoBranches
	}
	return inode.InoTags
}

func (n *RefsNode) list() ([]gitdb.RefEntry, error) {
	if n.namespace == inode.NamespaceBranch {
		return n.root.db.ListBranches()
	}
	return n.root.db.ListTags()
}

func (n *RefsNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	applyAttr(attr.DirAttr(n.selfIno(), n.root.mountTime), out)
	return 0
}

func (n *RefsNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	refs, err := n.list()
	if err != nil {
		return nil, syscall.EIO
	}
	children := make([]listing.Record, 0, len(refs))
	for _, r := range refs {
		children = append(children, refEntryRecord(n.namespace, r))
	}
	records := listing.Build(n.selfIno(), inode.InoRoot, children)
	return fs.NewListDirStream(toDirEntries(records)), 0
}

func (n *RefsNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	refs, err := n.list()
	if err != nil {
		return nil, syscall.EIO
	}
	for _, r := range refs {
		if r.ShortName != name {
			continue
		}
		return n.materializeRef(ctx, r, out)
	}
	return nil, syscall.ENOENT
}

// refEntryRecord renders a single branches/tags listing entry. A ref that
// peels to a commit is a symlink into /commits; a ref that peels to a tree
// or blob is listed directly as that object's own content-addressed kind,
// since there is nothing under /commits for it to point at.
func refEntryRecord(ns inode.RefNamespace, r gitdb.RefEntry) listing.Record {
	switch r.Kind {
	case gitdb.KindTree:
		return listing.Record{Name: r.ShortName, Ino: inode.Encode(r.Hash[:], inode.KindTree), Dtype: listing.DtDir}
	case gitdb.KindBlob:
		return listing.Record{Name: r.ShortName, Ino: inode.Encode(r.Hash[:], inode.KindBlob), Dtype: listing.DtReg}
	default:
		return listing.Record{Name: r.ShortName, Ino: inode.EncodeSyntheticRef(ns, r.ShortName), Dtype: listing.DtLnk}
	}
}

// materializeRef builds the child node for a single branches/ or tags/
// entry, dispatching on the peeled target's kind exactly as refEntryRecord
// does for Readdir.
func (n *RefsNode) materializeRef(ctx context.Context, r gitdb.RefEntry, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	switch r.Kind {
	case gitdb.KindTree:
		ino := inode.Encode(r.Hash[:], inode.KindTree)
		n.register(ino, r.Hash.String(), inode.KindTree)
		applyEntry(attr.DirAttr(ino, n.root.mountTime), out)
		child := &TreeNode{nodeBase: nodeBase{root: n.root}, treeHash: r.Hash, commitTime: n.root.mountTime}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: ino}), 0

	case gitdb.KindBlob:
		blob, err := n.root.db.Blob(r.Hash)
		if err != nil {
			return nil, syscall.EIO
		}
		ino := inode.Encode(r.Hash[:], inode.KindBlob)
		n.register(ino, r.Hash.String(), inode.KindBlob)
		applyEntry(attr.FileAttr(ino, false, uint64(blob.Size), n.root.mountTime), out)
		child := &fileNode{nodeBase: nodeBase{root: n.root}, blobHash: r.Hash, executable: false, size: uint64(blob.Size), commitTime: n.root.mountTime}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFREG, Ino: ino}), 0

	default:
		target := commitSymlinkTarget(r.Hash)
		ino := inode.EncodeSyntheticRef(n.namespace, r.ShortName)
		applyEntry(attr.SymlinkAttr(ino, len(target), n.root.mountTime), out)
		child := &refSymlinkNode{nodeBase: nodeBase{root: n.root}, target: target}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFLNK, Ino: ino}), 0
	}
}

// commitSymlinkTarget renders the relative symlink target every HEAD,
// branch, and tag symlink in this filesystem uses.
func commitSymlinkTarget(commit plumbing.Hash) string {
	return fmt.Sprintf("../commits/%s", commit.String())
}

// refSymlinkNode is a materialized branches/ or tags/ entry; its target was
// computed once at Lookup time and is fixed for the node's lifetime
// (matching the one-second TTL's tolerance for staleness against a moving ref).
type refSymlinkNode struct {
	nodeBase
	target string
}

var (
	_ fs.NodeGetattrer  = (*refSymlinkNode)(nil)
	_ fs.NodeReadlinker = (*refSymlinkNode)(nil)
)

func (n *refSymlinkNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	applyAttr(attr.SymlinkAttr(n.StableAttr().Ino, len(n.target), n.root.mountTime), out)
	return 0
}

func (n *refSymlinkNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	return []byte(n.target), 0
}

// HeadNode is inode 5, the top-level HEAD symlink. Unlike branch/tag
// symlinks its target is re-resolved on every readlink/getattr, matching the
// spec's requirement that HEAD always reflects the current ref.
type HeadNode struct {
	nodeBase
}

var (
	_ fs.NodeGetattrer  = (*HeadNode)(nil)
	_ fs.NodeReadlinker = (*HeadNode)(nil)
)

func (n *HeadNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	target, errno := resolveHeadTarget(n.root)
	if errno != 0 {
		return errno
	}
	applyAttr(attr.SymlinkAttr(inode.InoHead, len(target), n.root.mountTime), out)
	return 0
}

func (n *HeadNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, errno := resolveHeadTarget(n.root)
	if errno != 0 {
		return nil, errno
	}
	return []byte(target), 0
}

func resolveHeadTarget(root *GitTreeFS) (string, syscall.Errno) {
	commit, err := root.db.ResolveHead()
	if err != nil {
		root.log.Warn("HEAD resolution failed", zap.Error(err))
		return "", syscall.EIO
	}
	return commitSymlinkTarget(commit), 0
}
