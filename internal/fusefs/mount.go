package fusefs

import (
	"errors"
	"fmt"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/objectfs/gitreefs/internal/gitdb"
	"github.com/objectfs/gitreefs/internal/inode"
)

// MountOptions configures the kernel-visible mount surface beyond the
// filesystem's own read-only semantics.
type MountOptions struct {
	AllowOther bool
	Debug      bool
	// FsName is shown in `mount`/`df` output; callers pass the repository
	// path so multiple mounts are distinguishable.
	FsName string
}

// MountFS mounts root at mountpoint with a one-second entry and attribute
// TTL. The FUSE init capability handshake is left entirely to the high-level
// fs package's defaults: MountFS sets no capability options, requires no
// capability from the kernel, and does not fail the mount over a missing one.
func MountFS(mountpoint string, gtfs *GitTreeFS, opts MountOptions) (*fuse.Server, error) {
	ttl := EntryTTL
	root := &RootNode{nodeBase: nodeBase{root: gtfs}}

	fsName := opts.FsName
	if fsName == "" {
		fsName = "gitreefs"
	}

	server, err := fs.Mount(mountpoint, root, &fs.Options{
		AttrTimeout:  &ttl,
		EntryTimeout: &ttl,
		MountOptions: fuse.MountOptions{
			Name:       "gitreefs",
			FsName:     fsName,
			Debug:      opts.Debug,
			AllowOther: opts.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fusefs: mount %s: %w", mountpoint, err)
	}
	return server, nil
}

// DecodeInode reconstructs the hex prefix, kind, and (for synthetic refs)
// namespace encoded in ino, for diagnostic use by the inspect-inode CLI
// command; it does not participate in the FUSE request path, where node
// identity is already carried by the *fs.Inode the tree API caches.
//
// A content-addressed inode's top byte and a synthetic ref's namespace byte
// share the same value space (see inode.IsSyntheticRef), so decode must
// attempt the content-addressed hex-prefix lookup against db first and only
// treat ino as a synthetic ref once that lookup comes back not-found.
func DecodeInode(db *gitdb.Repository, ino uint64) (hexPrefix string, tag inode.Kind, ns inode.RefNamespace, isSyntheticRef bool) {
	prefix := inode.HexPrefix(ino)
	if _, _, err := db.ResolveInodeFragment(prefix); err == nil || errors.Is(err, gitdb.ErrAmbiguous) {
		return prefix, inode.Tag(ino), 0, false
	}
	if ns, ok := inode.IsSyntheticRef(ino); ok {
		return "", 0, ns, true
	}
	return prefix, inode.Tag(ino), 0, false
}
