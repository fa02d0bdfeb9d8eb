// Package attr builds kernel-visible attribute records for the three node
// shapes this filesystem exposes: directories, regular files, and symlinks.
package attr

import (
	"math"
	"syscall"
	"time"
)

// BlockSize is the fixed block size reported for every node; the filesystem
// never reports a blocks count since Git objects are not stored as files.
const BlockSize = 4096

const (
	ModeDir      = syscall.S_IFDIR | 0o755
	ModeFile     = syscall.S_IFREG | 0o444
	ModeExecFile = syscall.S_IFREG | 0o555
	ModeSymlink  = syscall.S_IFLNK | 0o777
)

// Record is a library-agnostic attribute tuple; callers in internal/fusefs
// translate it into a fuse.AttrOut.
type Record struct {
	Ino       uint64
	Mode      uint32
	Nlink     uint32
	Size      uint64
	BlockSize uint32
	Atime     time.Time
	Mtime     time.Time
	Ctime     time.Time
}

// DirAttr builds the attribute record for a directory node (trees, gitlink
// placeholders, and the four synthetic directories).
func DirAttr(ino uint64, t time.Time) Record {
	return Record{
		Ino:       ino,
		Mode:      ModeDir,
		Nlink:     2,
		Size:      0,
		BlockSize: BlockSize,
		Atime:     t,
		Mtime:     t,
		Ctime:     t,
	}
}

// FileAttr builds the attribute record for a blob node.
func FileAttr(ino uint64, executable bool, size uint64, t time.Time) Record {
	mode := uint32(ModeFile)
	if executable {
		mode = ModeExecFile
	}
	return Record{
		Ino:       ino,
		Mode:      mode,
		Nlink:     1,
		Size:      size,
		BlockSize: BlockSize,
		Atime:     t,
		Mtime:     t,
		Ctime:     t,
	}
}

// SymlinkAttr builds the attribute record for a symlink node; size is the
// byte length of the link target.
func SymlinkAttr(ino uint64, targetLen int, t time.Time) Record {
	return Record{
		Ino:       ino,
		Mode:      ModeSymlink,
		Nlink:     1,
		Size:      uint64(SaturateSize(targetLen)),
		BlockSize: BlockSize,
		Atime:     t,
		Mtime:     t,
		Ctime:     t,
	}
}

// SaturateSize clamps n to the maximum representable signed 64-bit size, in
// the (practically impossible, but specified) case of an oversized blob.
func SaturateSize(n int) int64 {
	if n < 0 {
		return 0
	}
	if uint64(n) > uint64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(n)
}

// SplitTime separates t into whole seconds and a non-negative nanosecond
// remainder, matching POSIX timespec semantics: for instants before the Unix
// epoch, seconds is negative and nanosecond is still the positive sub-second
// offset (i.e. seconds rounds toward negative infinity).
func SplitTime(t time.Time) (sec int64, nsec uint32) {
	unixNsec := t.UnixNano()
	sec = unixNsec / int64(time.Second)
	nsec = uint32(unixNsec % int64(time.Second))
	if unixNsec < 0 && nsec != 0 {
		sec--
		nsec = uint32(int64(time.Second) + unixNsec%int64(time.Second))
	}
	return sec, nsec
}
