package fusefs

import (
	"context"
	"errors"
	"syscall"

	"go.uber.org/zap"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/objectfs/gitreefs/internal/attr"
	"github.com/objectfs/gitreefs/internal/gitdb"
	"github.com/objectfs/gitreefs/internal/inode"
)

// CommitsNode is inode 2, /commits. It is a lookup-only namespace: readdir
// is deliberately unsupported because enumerating every commit in the
// object database is both potentially enormous and meaningless to clients.
type CommitsNode struct {
	nodeBase
}

var (
	_ fs.NodeGetattrer = (*CommitsNode)(nil)
	_ fs.NodeReaddirer = (*CommitsNode)(nil)
	_ fs.NodeLookuper  = (*CommitsNode)(nil)
)

func (n *CommitsNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	applyAttr(attr.DirAttr(inode.InoCommits, n.root.mountTime), out)
	return 0
}

func (n *CommitsNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	return nil, syscall.ENOTSUP
}

func (n *CommitsNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	commitHash, errno := resolveCommitHex(n.root, name)
	if errno != 0 {
		return nil, errno
	}
	commit, err := n.root.db.Commit(commitHash)
	if err != nil {
		return nil, syscall.ENOENT
	}

	ino := inode.Encode(commitHash[:], inode.KindCommit)
	n.register(ino, commitHash.String(), inode.KindCommit)

	applyEntry(attr.DirAttr(ino, commit.Committer.When), out)
	child := &TreeNode{
		nodeBase:   nodeBase{root: n.root},
		treeHash:   commit.TreeHash,
		commitTime: commit.Committer.When,
	}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: ino}), 0
}

// resolveCommitHex resolves a hex prefix under /commits to a unique commit
// hash, mapping gitdb's ambiguity/not-found/wrong-kind errors onto the
// kernel errnos the spec assigns them: ambiguity is EIO (logged), anything
// else not present is ENOENT.
func resolveCommitHex(root *GitTreeFS, hex string) (plumbing.Hash, syscall.Errno) {
	h, err := root.db.ResolveFullCommitID(hex)
	if err == nil {
		return h, 0
	}
	if errors.Is(err, gitdb.ErrAmbiguous) {
		root.log.Warn("ambiguous hex prefix under /commits", zap.String("prefix", hex), zap.Error(err))
		return plumbing.ZeroHash, syscall.EIO
	}
	return plumbing.ZeroHash, syscall.ENOENT
}
