package listing

import "testing"

func TestBuildAssignsDotAndDotDot(t *testing.T) {
	t.Parallel()
	children := []Record{
		{Name: "README", Ino: 10, Dtype: DtReg},
		{Name: "run.sh", Ino: 11, Dtype: DtReg},
	}
	got := Build(1, 1, children)
	want := []struct {
		name string
		off  uint64
	}{
		{".", 1}, {"..", 2}, {"README", 3}, {"run.sh", 4},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Off != w.off {
			t.Errorf("entry %d = %+v, want name=%s off=%d", i, got[i], w.name, w.off)
		}
	}
}

func TestPagingReproducesFullListing(t *testing.T) {
	t.Parallel()
	children := make([]Record, 0, 10)
	for i := 0; i < 10; i++ {
		children = append(children, Record{Name: string(rune('a' + i)), Ino: uint64(i + 100), Dtype: DtReg})
	}
	full := Build(1, 1, children)

	var reassembled []Record
	cursor := uint64(0)
	for {
		page, next := Page(full, cursor, 3)
		if len(page) == 0 {
			break
		}
		reassembled = append(reassembled, page...)
		cursor = next
	}

	if len(reassembled) != len(full) {
		t.Fatalf("reassembled %d records, want %d", len(reassembled), len(full))
	}
	for i := range full {
		if reassembled[i] != full[i] {
			t.Errorf("record %d = %+v, want %+v", i, reassembled[i], full[i])
		}
	}
}

func TestPageAtExactEnd(t *testing.T) {
	t.Parallel()
	full := Build(1, 1, []Record{{Name: "only", Ino: 5, Dtype: DtReg}})
	page, next := Page(full, full[len(full)-1].Off, 10)
	if len(page) != 0 {
		t.Errorf("Page past end returned %d records, want 0", len(page))
	}
	if next != full[len(full)-1].Off {
		t.Errorf("next cursor = %d, want unchanged at %d", next, full[len(full)-1].Off)
	}
}

func TestEmptyDirectoryListsOnlyDotEntries(t *testing.T) {
	t.Parallel()
	full := Build(42, 1, nil)
	if len(full) != 2 || full[0].Name != "." || full[1].Name != ".." {
		t.Fatalf("empty dir listing = %+v", full)
	}
}
