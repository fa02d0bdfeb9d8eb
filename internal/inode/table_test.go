package inode

import (
	"errors"
	"testing"
)

func TestTableRegisterIdempotent(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	if err := tbl.Register(100, "abc", KindBlob); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := tbl.Register(100, "abc", KindBlob); err != nil {
		t.Fatalf("identical re-register should be a no-op: %v", err)
	}
	e, ok := tbl.Get(100)
	if !ok || e.OID != "abc" || e.Kind != KindBlob {
		t.Fatalf("Get(100) = %+v, %v", e, ok)
	}
}

func TestTableRegisterCollision(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	if err := tbl.Register(100, "abc", KindBlob); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := tbl.Register(100, "def", KindTree)
	if !errors.Is(err, ErrCollision) {
		t.Fatalf("expected ErrCollision, got %v", err)
	}
	// First writer wins.
	e, _ := tbl.Get(100)
	if e.OID != "abc" {
		t.Errorf("Get(100).OID = %q, want %q (first writer should win)", e.OID, "abc")
	}
	cs := tbl.Collisions(100)
	if len(cs) != 1 || cs[0].OID != "def" {
		t.Fatalf("Collisions(100) = %+v", cs)
	}
}

func TestTableSnapshotRestore(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	_ = tbl.Register(100, "abc", KindBlob)
	_ = tbl.Register(200, "xyz", KindTree)
	_ = tbl.Register(200, "other", KindTree)

	data, err := tbl.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restored := NewTable()
	if err := restored.RestoreSnapshot(data); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	e, ok := restored.Get(100)
	if !ok || e.OID != "abc" {
		t.Fatalf("restored Get(100) = %+v, %v", e, ok)
	}
	cs := restored.Collisions(200)
	if len(cs) != 1 || cs[0].OID != "other" {
		t.Fatalf("restored Collisions(200) = %+v", cs)
	}
}
