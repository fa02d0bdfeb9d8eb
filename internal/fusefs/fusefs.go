// Package fusefs adapts the object-database façade, inode codec, attribute
// builder, and directory-listing engine into a go-fuse/v2 node tree: the
// read-only op surface and FUSE adapter components.
package fusefs

import (
	"time"

	"go.uber.org/zap"

	"github.com/hanwen/go-fuse/v2/fs"

	"github.com/objectfs/gitreefs/internal/gitdb"
	"github.com/objectfs/gitreefs/internal/inode"
)

// EntryTTL is the kernel dentry/attribute cache lifetime this filesystem
// advertises: Git objects are immutable, so a short TTL only trades a
// negligible amount of cache-hit rate for freshness when refs move.
const EntryTTL = time.Second

// GitTreeFS is the shared, read-only state every node in the tree consults:
// the object-database handle, the inode collision table, and the mount-start
// time used for synthetic node timestamps.
type GitTreeFS struct {
	db        *gitdb.Repository
	inodes    *inode.Table
	mountTime time.Time
	log       *zap.Logger
}

// NewGitTreeFS constructs the shared filesystem state. db and log must be
// non-nil; table may be a freshly-created or restored *inode.Table.
func NewGitTreeFS(db *gitdb.Repository, table *inode.Table, log *zap.Logger) *GitTreeFS {
	return &GitTreeFS{
		db:        db,
		inodes:    table,
		mountTime: time.Now(),
		log:       log,
	}
}

// Close releases the object-database handle's background resources.
func (g *GitTreeFS) Close() {
	g.db.Close()
}

// Table exposes the collision table so the CLI can snapshot/restore it
// across the mount's lifetime.
func (g *GitTreeFS) Table() *inode.Table { return g.inodes }

// nodeBase is embedded by every node type to give it access to the shared
// filesystem state: each node reaches the database and inode table through
// root. No node type stores a reference to its parent, neither by pointer
// nor by inode number; the only parent links are those go-fuse's fs.Inode
// keeps itself.
type nodeBase struct {
	fs.Inode
	root *GitTreeFS
}

func (b *nodeBase) fsRoot() *GitTreeFS { return b.root }

// register records ino's (oid, kind) in the collision table, logging (not
// failing) on a first-writer-wins collision. The collision is not reported
// to the caller: a lookup that hits one still succeeds with the colliding
// inode number.
func (b *nodeBase) register(ino uint64, oid string, kind inode.Kind) {
	if err := b.root.inodes.Register(ino, oid, kind); err != nil {
		b.root.log.Warn("inode collision", zap.Uint64("inode", ino), zap.String("oid", oid), zap.Error(err))
	}
}
