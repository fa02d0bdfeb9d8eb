package fusefs

import (
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/objectfs/gitreefs/internal/attr"
)

// applyAttr copies a Record built by internal/attr into a fuse.AttrOut, the
// shape shared by Getattr and Lookup replies.
func applyAttr(r attr.Record, out *fuse.AttrOut) {
	out.Attr.Ino = r.Ino
	out.Attr.Mode = r.Mode
	out.Attr.Nlink = r.Nlink
	out.Attr.Size = r.Size
	out.Attr.Blksize = r.BlockSize
	out.Attr.Uid = 0
	out.Attr.Gid = 0
	out.Attr.SetTimes(&r.Atime, &r.Mtime, &r.Ctime)
}

// applyEntry is applyAttr's counterpart for fuse.EntryOut, used from Lookup.
func applyEntry(r attr.Record, out *fuse.EntryOut) {
	out.Attr.Ino = r.Ino
	out.Attr.Mode = r.Mode
	out.Attr.Nlink = r.Nlink
	out.Attr.Size = r.Size
	out.Attr.Blksize = r.BlockSize
	out.Attr.Uid = 0
	out.Attr.Gid = 0
	out.Attr.SetTimes(&r.Atime, &r.Mtime, &r.Ctime)
	out.SetEntryTimeout(EntryTTL)
	out.SetAttrTimeout(EntryTTL)
}
