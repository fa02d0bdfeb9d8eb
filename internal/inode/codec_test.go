package inode

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHash(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex fixture %q: %v", s, err)
	}
	return b
}

func TestEncodeStableAcrossCalls(t *testing.T) {
	t.Parallel()
	oid := mustHash(t, "aabbccddeeff00112233445566778899aabbccdd")
	a := Encode(oid, KindBlob)
	b := Encode(oid, KindBlob)
	if a != b {
		t.Fatalf("Encode not stable: %d != %d", a, b)
	}
}

func TestEncodeNeverProducesReserved(t *testing.T) {
	t.Parallel()
	for i := uint64(0); i <= 5; i++ {
		var buf [8]byte
		buf[0] = byte(i)
		for k := Kind(0); k < 4; k++ {
			got := Encode(buf[:], k)
			if got >= 1 && got <= maxReserved {
				t.Fatalf("Encode(%v, %v) = %d, collided with a reserved inode", buf, k, got)
			}
		}
	}
}

func TestEncodeDistinguishesKind(t *testing.T) {
	t.Parallel()
	oid := mustHash(t, "0102030405060708090a0b0c0d0e0f1011121314")
	blob := Encode(oid, KindBlob)
	tree := Encode(oid, KindTree)
	if blob == tree {
		t.Fatalf("blob and tree inodes collided for the same oid: %d", blob)
	}
	if Tag(blob) != KindBlob {
		t.Errorf("Tag(blob inode) = %v, want KindBlob", Tag(blob))
	}
	if Tag(tree) != KindTree {
		t.Errorf("Tag(tree inode) = %v, want KindTree", Tag(tree))
	}
}

func TestHexPrefixRoundTrips(t *testing.T) {
	t.Parallel()
	oidHex := "deadbeef00112233445566778899aabbccddeeff"
	oid := mustHash(t, oidHex)
	ino := Encode(oid, KindCommit)
	prefix := HexPrefix(ino)
	if len(prefix) != HexPrefixLen {
		t.Fatalf("HexPrefix length = %d, want %d", len(prefix), HexPrefixLen)
	}
	// Encode's tag occupies the top four bits, which is also the oid's first
	// hex digit; that digit is unrecoverable, so the reconstructed prefix is
	// oid's hex digits [1:1+HexPrefixLen], not a leading prefix of the oid.
	want := oidHex[1 : 1+HexPrefixLen]
	if prefix != want {
		t.Errorf("HexPrefix = %q, want %q (oid's first hex digit is lost to the kind tag)", prefix, want)
	}
}

func TestEncodeSyntheticRefDeterministicAndDistinct(t *testing.T) {
	t.Parallel()
	a := EncodeSyntheticRef(NamespaceBranch, "main")
	b := EncodeSyntheticRef(NamespaceBranch, "main")
	if a != b {
		t.Fatalf("EncodeSyntheticRef not stable: %d != %d", a, b)
	}
	if a == EncodeSyntheticRef(NamespaceBranch, "feature") {
		t.Fatalf("different names collided: %d", a)
	}
	if a == EncodeSyntheticRef(NamespaceTag, "main") {
		t.Fatalf("different namespaces collided: %d", a)
	}
	ns, ok := IsSyntheticRef(a)
	if !ok || ns != NamespaceBranch {
		t.Errorf("IsSyntheticRef(%d) = (%v, %v), want (NamespaceBranch, true)", a, ns, ok)
	}
}

func TestKindStringUnknown(t *testing.T) {
	t.Parallel()
	if got := Kind(9).String(); got == "" {
		t.Error("String() on unknown kind returned empty string")
	}
}

func TestEncodeTruncatesLongOID(t *testing.T) {
	t.Parallel()
	// sha256 oids are 32 bytes; only the leading eight participate.
	oid := bytes.Repeat([]byte{0xAB}, 32)
	short := oid[:8]
	if Encode(oid, KindTree) != Encode(short, KindTree) {
		t.Error("Encode should only consider the leading eight bytes of oid")
	}
}
