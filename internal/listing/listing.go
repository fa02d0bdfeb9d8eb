// Package listing produces the ordered directory-entry sequences this
// filesystem serves from readdir, and the linear offset/cursor arithmetic
// that lets a kernel-driven readdir resume exactly where it left off.
package listing

import "errors"

// Dtype mirrors the handful of d_type values this filesystem ever produces.
type Dtype uint32

const (
	DtDir Dtype = 4
	DtReg Dtype = 8
	DtLnk Dtype = 10
)

// Record is one entry in a directory listing. Off is the entry's one-based
// position in the full ordered sequence for its parent, assigned by Build.
type Record struct {
	Name  string
	Ino   uint64
	Dtype Dtype
	Off   uint64
}

// ErrUnsupported names the error for directories that are lookup-only and
// never enumerable, namely /commits. Nothing in this package returns it; the
// /commits node in internal/fusefs answers readdir with ENOTSUP directly.
var ErrUnsupported = errors.New("listing: directory is not enumerable")

// Build assembles the full ordered record sequence for a directory, given its
// own inode, its parent's inode, and the directory's raw children in their
// already-correctly-ordered form (sorted by name for branches/tags, native
// tree order for Git trees). `.` and `..` are always synthesized at offsets 1
// and 2, as every listable directory in this filesystem (root, branches,
// tags, and every tree-backed directory) needs them; children start at 3.
func Build(selfIno, parentIno uint64, children []Record) []Record {
	out := make([]Record, 0, len(children)+2)
	out = append(out,
		Record{Name: ".", Ino: selfIno, Dtype: DtDir, Off: 1},
		Record{Name: "..", Ino: parentIno, Dtype: DtDir, Off: 2},
	)
	for i, c := range children {
		c.Off = uint64(i) + 3
		out = append(out, c)
	}
	return out
}

// Page returns the subsequence of records whose offset is strictly greater
// than the supplied cursor (the kernel passes back the last accepted offset
// on each continuation), truncated to at most limit records if limit > 0. It
// also returns the offset the next call should be resumed from.
func Page(records []Record, cursor uint64, limit int) (page []Record, nextCursor uint64) {
	start := 0
	for start < len(records) && records[start].Off <= cursor {
		start++
	}
	end := len(records)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	page = records[start:end]
	if len(page) == 0 {
		return page, cursor
	}
	return page, page[len(page)-1].Off
}
