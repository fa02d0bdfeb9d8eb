package fusefs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/objectfs/gitreefs/internal/attr"
	"github.com/objectfs/gitreefs/internal/inode"
	"github.com/objectfs/gitreefs/internal/listing"
)

// RootNode is inode 1, the mount's top-level directory.
type RootNode struct {
	nodeBase
}

var (
	_ fs.NodeGetattrer = (*RootNode)(nil)
	_ fs.NodeReaddirer = (*RootNode)(nil)
	_ fs.NodeLookuper  = (*RootNode)(nil)
)

func (n *RootNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	applyAttr(attr.DirAttr(inode.InoRoot, n.root.mountTime), out)
	return 0
}

func (n *RootNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	children := []listing.Record{
		{Name: "commits", Ino: inode.InoCommits, Dtype: listing.DtDir},
		{Name: "branches", Ino: inode.InoBranches, Dtype: listing.DtDir},
		{Name: "tags", Ino: inode.InoTags, Dtype: listing.DtDir},
		{Name: "HEAD", Ino: inode.InoHead, Dtype: listing.DtLnk},
	}
	records := listing.Build(inode.InoRoot, inode.InoRoot, children)
	return fs.NewListDirStream(toDirEntries(records)), 0
}

func (n *RootNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	switch name {
	case "commits":
		applyEntry(attr.DirAttr(inode.InoCommits, n.root.mountTime), out)
		child := &CommitsNode{nodeBase: nodeBase{root: n.root}}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: inode.InoCommits}), 0
	case "branches":
		applyEntry(attr.DirAttr(inode.InoBranches, n.root.mountTime), out)
		child := &RefsNode{nodeBase: nodeBase{root: n.root}, namespace: inode.NamespaceBranch}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: inode.InoBranches}), 0
	case "tags":
		applyEntry(attr.DirAttr(inode.InoTags, n.root.mountTime), out)
		child := &RefsNode{nodeBase: nodeBase{root: n.root}, namespace: inode.NamespaceTag}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: inode.InoTags}), 0
	case "HEAD":
		target, errno := resolveHeadTarget(n.root)
		if errno != 0 {
			return nil, errno
		}
		applyEntry(attr.SymlinkAttr(inode.InoHead, len(target), n.root.mountTime), out)
		child := &HeadNode{nodeBase: nodeBase{root: n.root}}
		return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFLNK, Ino: inode.InoHead}), 0
	default:
		return nil, syscall.ENOENT
	}
}

// toDirEntries adapts listing records (the spec-facing representation) to
// the go-fuse high-level API's DirStream entry type.
func toDirEntries(records []listing.Record) []fuse.DirEntry {
	out := make([]fuse.DirEntry, 0, len(records))
	for _, r := range records {
		out = append(out, fuse.DirEntry{
			Name: r.Name,
			Ino:  r.Ino,
			Mode: dtypeToMode(r.Dtype),
			Off:  r.Off,
		})
	}
	return out
}

func dtypeToMode(d listing.Dtype) uint32 {
	switch d {
	case listing.DtDir:
		return syscall.S_IFDIR
	case listing.DtLnk:
		return syscall.S_IFLNK
	default:
		return syscall.S_IFREG
	}
}
