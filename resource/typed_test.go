package resource

import "testing"

func TestTyped(t *testing.T) {
	table := NewTable()
	strs := NewTyped[string](table, TypeStashValue)
	ints := NewTyped[int](table, TypeUserData)

	hs := strs.Insert("a")
	hi := ints.Insert(42)

	if v, ok := strs.Get(hs); !ok || v != "a" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if _, ok := strs.Get(hi); ok {
		t.Fatal("Get should reject handle of another type")
	}
	if _, ok := strs.Remove(hi); ok {
		t.Fatal("Remove should reject handle of another type")
	}
	if table.Len() != 2 {
		t.Fatalf("Expected table Len 2, got %d", table.Len())
	}
	if strs.Len() != 1 || ints.Len() != 1 {
		t.Fatalf("Expected per-type Len 1, got %d and %d", strs.Len(), ints.Len())
	}

	strs.Insert("b")
	var seen []string
	strs.Each(func(_ Handle, v string) bool {
		seen = append(seen, v)
		return true
	})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("Each = %v", seen)
	}

	if v, ok := ints.Remove(hi); !ok || v != 42 {
		t.Fatalf("Remove = %d, %v", v, ok)
	}
	if ints.Len() != 0 {
		t.Fatal("Expected empty int view after Remove")
	}
	if ints.Table() != table {
		t.Fatal("Table() should return the shared table")
	}
}

func TestTyped_Dropper(t *testing.T) {
	table := NewTable()
	view := NewTyped[*dropCounter](table, TypeUserData)

	d := &dropCounter{}
	h, err := view.TryInsert(d)
	if err != nil {
		t.Fatalf("TryInsert failed: %v", err)
	}
	view.Remove(h)
	if d.count != 1 {
		t.Fatalf("Expected Drop once, got %d", d.count)
	}
}

func TestTyped_Take(t *testing.T) {
	table := NewTable()
	view := NewTyped[*dropCounter](table, TypeUserData)

	d := &dropCounter{}
	h := view.Insert(d)
	got, ok := view.Take(h)
	if !ok || got != d {
		t.Fatalf("Take = %v, %v", got, ok)
	}
	if d.count != 0 {
		t.Fatal("Take must not call Drop")
	}
	if _, ok := view.Get(h); ok {
		t.Fatal("entry should be gone after Take")
	}
	if _, ok := view.Take(h); ok {
		t.Fatal("second Take should fail")
	}
}
