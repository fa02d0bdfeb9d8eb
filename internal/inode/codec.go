// Package inode implements the bidirectional mapping between 64-bit kernel
// inode numbers and Git object identities.
package inode

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

// Kind tags the Git object (or synthetic node) an inode refers to.
type Kind uint8

const (
	KindBlob    Kind = 0
	KindTree    Kind = 1
	KindCommit  Kind = 2
	KindSymlink Kind = 3
	// KindSyntheticRef names the branches/tags per-ref symlinks; it never
	// appears as a tag bit-pattern in a codec-produced inode (those use the
	// namespace-byte scheme below), and no code path in this module assigns
	// it; it exists so Kind.String can render it.
	KindSyntheticRef Kind = 7
)

// Reserved fixed inodes, never produced by Encode.
const (
	InoRoot     uint64 = 1
	InoCommits  uint64 = 2
	InoBranches uint64 = 3
	InoTags     uint64 = 4
	InoHead     uint64 = 5

	maxReserved uint64 = 5
)

// RefNamespace distinguishes the two synthetic symlink directories.
type RefNamespace uint8

const (
	NamespaceBranch RefNamespace = 1
	NamespaceTag    RefNamespace = 2
)

var (
	// ErrReservedInode names an encoding that collided with one of the five
	// fixed inode numbers. Encode never returns it: Encode returns no error
	// and instead sets bit 4 of any value that would land on 0..5.
	ErrReservedInode = errors.New("inode: encoding collided with a reserved inode")
)

// tagMask clears the top four bits of a uint64, leaving room for a 4-bit kind tag.
const tagMask = 0x0FFF_FFFF_FFFF_FFFF

// Encode derives the 64-bit inode for a content-addressed Git object from its
// OID and kind. It takes the leading eight bytes of oid, interprets them
// big-endian, clears the top four bits, and ORs in the four-bit kind tag.
func Encode(oid []byte, kind Kind) uint64 {
	var buf [8]byte
	n := copy(buf[:], oid)
	_ = n // oid is always >= 20 bytes (sha1) or 32 bytes (sha256) in practice
	v := binary.BigEndian.Uint64(buf[:])
	v &= tagMask
	v |= uint64(kind&0x0F) << 60
	if v <= maxReserved {
		// Astronomically unlikely (requires both top 4 bits clear and the low
		// 60 bits to equal one of 1..5), but guarded rather than ignored.
		v |= 0x10
	}
	return v
}

// EncodeSyntheticRef derives the inode for a branches/ or tags/ symlink whose
// name is not itself a hash. This follows the literal formula used by the
// implementation this filesystem's ref-symlink behavior is grounded on: a
// one-byte namespace tag occupies the top eight bits (not the general four-bit
// content-addressed tag), and the low 56 bits hold an FNV-1a hash of the
// namespace and name so that two different ref names essentially never alias.
func EncodeSyntheticRef(ns RefNamespace, name string) uint64 {
	h := fnvHash(ns, name)
	return (uint64(ns) << 56) | (h & 0x00FF_FFFF_FFFF_FFFF)
}

func fnvHash(ns RefNamespace, name string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	h ^= uint64(ns)
	h *= prime64
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= prime64
	}
	return h
}

// Tag extracts the four-bit content-address kind tag from an inode produced
// by Encode. It is meaningless for reserved or synthetic-ref inodes.
func Tag(ino uint64) Kind {
	return Kind((ino >> 60) & 0x0F)
}

// IsSyntheticRef reports whether ino looks like it was produced by
// EncodeSyntheticRef: its top byte is 1 (branch) or 2 (tag). Encode can
// produce the same top byte (a blob or tree tag whose oid's second hex digit
// is 1 or 2), so the answer is not conclusive on its own: decode must try the
// content-addressed lookup of HexPrefix(ino) first and fall back to treating
// ino as a synthetic ref only when that lookup fails to resolve — see
// DecodeInode in internal/fusefs.
func IsSyntheticRef(ino uint64) (RefNamespace, bool) {
	top := Kind((ino >> 56) & 0xFF)
	switch RefNamespace(top) {
	case NamespaceBranch, NamespaceTag:
		return RefNamespace(top), true
	default:
		return 0, false
	}
}

// HexPrefixLen is the number of hex characters reconstructable from the low
// 60 bits of a content-addressed inode (4 bits/hex digit * 15 digits = 60 bits).
const HexPrefixLen = 15

// HexPrefix renders ino's low 60 bits as hex, for use with a resolver against
// the object database. The returned string has HexPrefixLen characters,
// left-padded with zeros if the low bits begin with zero nibbles. For an
// inode produced by Encode these are the oid's hex digits
// [1:1+HexPrefixLen), not a leading prefix: the oid's first hex digit is
// overwritten by the kind tag and cannot be recovered.
func HexPrefix(ino uint64) string {
	v := ino & tagMask
	// 60 bits packed left-aligned in a 64-bit value simplifies hex rendering:
	// shift left by 4 so the 15 hex digits occupy the top 60 bits, matching
	// a standard 8-byte big-endian encode, then trim the trailing nibble.
	full := make([]byte, 8)
	binary.BigEndian.PutUint64(full, v<<4)
	return hex.EncodeToString(full)[:HexPrefixLen]
}

// String renders k for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	case KindCommit:
		return "commit"
	case KindSymlink:
		return "symlink"
	case KindSyntheticRef:
		return "synthetic-ref"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}
