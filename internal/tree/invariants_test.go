package tree

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// walkRegistered collects every item reachable from dir, itself included.
func walkRegistered(dir *Item) []*Item {
	out := []*Item{dir}
	for _, c := range dir.children {
		if !c.registered {
			continue
		}
		out = append(out, c)
		if len(c.children) > 0 {
			out = append(out, walkRegistered(c)[1:]...)
		}
	}
	return out
}

// assertTreeInvariants checks spec.md section 8's quantified invariants
// over every item reachable from root: registered, name_hash == hash(name)
// (except root, which carries no name), and pairwise-distinct child names.
// On failure it dumps the whole tree via spew so a broken invariant is
// diagnosable from the test output alone.
func assertTreeInvariants(t *testing.T, tr *Tree) {
	t.Helper()

	root := tr.Root()
	for _, it := range walkRegistered(root) {
		if !it.registered {
			t.Fatalf("unregistered item reachable from root: %s\n%s", it.name, spew.Sdump(tr))
		}
		if it != root && it.nameHash != nameHashOf(it.name) {
			t.Fatalf("stale name hash for %q\n%s", it.name, spew.Sdump(it))
		}
		if it != root && it.parent == nil {
			t.Fatalf("non-root item %q has nil parent\n%s", it.name, spew.Sdump(it))
		}

		seen := make(map[string]bool, len(it.children))
		for _, c := range it.children {
			if !c.registered {
				continue
			}
			if seen[c.name] {
				t.Fatalf("duplicate child name %q under %q\n%s", c.name, it.name, spew.Sdump(it))
			}
			seen[c.name] = true
		}
	}
}

func TestTreeInvariantsHoldAcrossMixedOperations(t *testing.T) {
	tr := New()

	a, err := tr.CreateDirectory(tr.Root(), "a")
	require.NoError(t, err)
	_, err = tr.CreateDirectory(a, "b")
	require.NoError(t, err)
	_, _, err = tr.CreateU64Series(tr.Root(), "s1")
	require.NoError(t, err)
	_, _, err = tr.CreateHistogramU32Series(tr.Root(), "h1", []float64{0.5, 0.99})
	require.NoError(t, err)
	_, err = tr.CreateAggregator(tr.Root(), "all")
	require.NoError(t, err)

	assertTreeInvariants(t, tr)

	require.NoError(t, tr.RemoveByName(tr.Root(), "a"))
	assertTreeInvariants(t, tr)

	_, err = tr.CreateDirectory(tr.Root(), "a")
	require.NoError(t, err, "recreating a removed name must succeed")
	assertTreeInvariants(t, tr)
}
