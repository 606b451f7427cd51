package pkggraph

import "testing"

func TestPackageAddLookup(t *testing.T) {
	parent := NewWithDir("/tmp/root", "")
	child := NewWithDir("/tmp/child", "deadbeef")

	parent.Add("foo", child)

	got, ok := parent.Lookup("foo")
	if !ok {
		t.Fatal("expected foo to be found")
	}
	if got != child {
		t.Error("got wrong child package")
	}

	if _, ok := parent.Lookup("bar"); ok {
		t.Error("expected bar to be absent")
	}
}

func TestPackageAddOverwritesExistingName(t *testing.T) {
	parent := NewWithDir("/tmp/root", "")
	first := NewWithDir("/tmp/a", "aaaa")
	second := NewWithDir("/tmp/b", "bbbb")

	parent.Add("foo", first)
	parent.Add("foo", second)

	got, _ := parent.Lookup("foo")
	if got != second {
		t.Error("expected second registration to win")
	}
}

func TestNewFromPathOwnsHandle(t *testing.T) {
	dir := t.TempDir()
	pkg, err := NewFromPath(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !pkg.owned || pkg.dir == nil {
		t.Error("expected NewFromPath to take ownership of a directory handle")
	}
	if err := pkg.Destroy(); err != nil {
		t.Errorf("Destroy: %v", err)
	}
}

func TestPackageEntriesPreservesInsertionOrder(t *testing.T) {
	parent := NewWithDir("/tmp/root", "")
	a := NewWithDir("/tmp/a", "hashA")
	b := NewWithDir("/tmp/b", "hashB")
	c := NewWithDir("/tmp/c", "hashC")

	parent.Add("b", b)
	parent.Add("a", a)
	parent.Add("c", c)
	parent.Add("a", a) // re-adding an existing name must not move its position

	entries := parent.Entries()
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := []string{"b", "a", "c"}
	if len(names) != len(want) {
		t.Fatalf("Entries() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Entries()[%d].Name = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestNewWithDirDoesNotOwnHandle(t *testing.T) {
	pkg := NewWithDir("/tmp/child", "deadbeef")
	if pkg.owned {
		t.Error("expected NewWithDir not to own a handle")
	}
	if err := pkg.Destroy(); err != nil {
		t.Errorf("Destroy should be a no-op: %v", err)
	}
}
