package pathnorm

import "testing"

func TestNormalizeIdempotent(t *testing.T) {
	cases := []string{"a/b/c", "a", "a/b.txt", ""}
	for _, c := range cases {
		once := Normalize(c)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize(%q) = %q, Normalize of that = %q; want idempotent", c, once, twice)
		}
	}
}

func TestNormalizeForwardSlashUnchanged(t *testing.T) {
	p := "already/forward/slash/path.go"
	if got := Normalize(p); got != p {
		t.Errorf("Normalize(%q) = %q, want unchanged", p, got)
	}
}
