package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTreeHasRootWithRefCountOne(t *testing.T) {
	tr := New()
	root := tr.Root()
	require.Equal(t, KindDirectory, root.Kind())
	require.True(t, root.Registered())
	require.Equal(t, 1, root.RefCount())
}

func TestCreateDirectoryAndLookup(t *testing.T) {
	tr := New()
	d, err := tr.CreateDirectory(tr.Root(), "a")
	require.NoError(t, err)
	require.Equal(t, "a", d.Name())

	found, err := tr.Lookup(tr.Root(), "a")
	require.NoError(t, err)
	require.Same(t, d, found)
}

func TestCreateDirectoryDuplicateNameFails(t *testing.T) {
	tr := New()
	_, err := tr.CreateDirectory(tr.Root(), "dup")
	require.NoError(t, err)
	_, err = tr.CreateDirectory(tr.Root(), "dup")
	require.ErrorIs(t, err, ErrExists)
}

func TestCreateDirectoryInvalidNameFails(t *testing.T) {
	tr := New()
	_, err := tr.CreateDirectory(tr.Root(), "bad name!")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateDirectoryUnderNonDirectoryFails(t *testing.T) {
	tr := New()
	_, series, err := tr.CreateU64Series(tr.Root(), "s")
	require.NoError(t, err)
	_ = series
	sdir, err := tr.Lookup(tr.Root(), "s")
	require.NoError(t, err)
	_, err = tr.CreateDirectory(sdir, "nope")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetPutFreesItemAtZero(t *testing.T) {
	tr := New()
	d, err := tr.CreateDirectory(tr.Root(), "a")
	require.NoError(t, err)
	ino := d.Ino

	tr.Get(d)
	require.Equal(t, 2, d.RefCount())

	require.NoError(t, tr.Remove(d))
	_, ok := tr.ItemByIno(ino)
	require.True(t, ok, "item should still be resolvable while an extra ref is outstanding")

	tr.Put(d, 1)
	_, ok = tr.ItemByIno(ino)
	require.False(t, ok, "item should be freed once the last reference drops")
}

func TestRemoveDetachesChildrenRecursively(t *testing.T) {
	tr := New()
	parent, err := tr.CreateDirectory(tr.Root(), "parent")
	require.NoError(t, err)
	child, err := tr.CreateDirectory(parent, "child")
	require.NoError(t, err)

	require.NoError(t, tr.Remove(parent))
	require.False(t, parent.Registered())
	require.False(t, child.Registered())
	require.Nil(t, child.Parent())
}

func TestRemoveIsIdempotentOnDetachedItems(t *testing.T) {
	tr := New()
	d, err := tr.CreateDirectory(tr.Root(), "a")
	require.NoError(t, err)
	require.NoError(t, tr.Remove(d))
	require.NoError(t, tr.Remove(d))
}

func TestRemoveRootOnlyDetachesChildren(t *testing.T) {
	tr := New()
	_, err := tr.CreateDirectory(tr.Root(), "a")
	require.NoError(t, err)
	require.NoError(t, tr.Remove(tr.Root()))
	require.True(t, tr.Root().Registered())

	entries, err := tr.Readdir(tr.Root())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestReaddirSkipsAggregatorsAndUnregistered(t *testing.T) {
	tr := New()
	_, err := tr.CreateDirectory(tr.Root(), "visible")
	require.NoError(t, err)
	_, err = tr.CreateAggregator(tr.Root(), "hidden")
	require.NoError(t, err)

	entries, err := tr.Readdir(tr.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "visible", entries[0].Name)
	require.True(t, entries[0].Dir)
}

func TestLookupAggregatorStillWorksDespiteHiddenListing(t *testing.T) {
	tr := New()
	agg, err := tr.CreateAggregator(tr.Root(), "all")
	require.NoError(t, err)
	found, err := tr.Lookup(tr.Root(), "all")
	require.NoError(t, err)
	require.Same(t, agg, found)
}

func TestRemoveByName(t *testing.T) {
	tr := New()
	_, err := tr.CreateDirectory(tr.Root(), "a")
	require.NoError(t, err)
	require.NoError(t, tr.RemoveByName(tr.Root(), "a"))
	_, err = tr.Lookup(tr.Root(), "a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveByNameMissingReturnsNotFound(t *testing.T) {
	tr := New()
	err := tr.RemoveByName(tr.Root(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
