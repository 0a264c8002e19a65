package tree

import (
	"sync"

	"golang.org/x/exp/slices"
)

// Tree is the root of the statistics hierarchy plus the single coarse mutex
// that serializes every mutation, lookup, refcount change and directory
// snapshot (spec.md 5 and 9).
type Tree struct {
	mu      sync.Mutex
	root    *Item
	nextIno uint64
	byIno   map[uint64]*Item
}

// New creates an empty tree with a freshly initialized root directory,
// registered with refcount 1 per spec.md 3's "register -> refcount = 1" rule.
func New() *Tree {
	t := &Tree{byIno: make(map[uint64]*Item)}
	t.nextIno = 1
	root := &Item{
		tree:       t,
		kind:       KindDirectory,
		registered: true,
		refCount:   1,
	}
	root.Ino = t.allocIno()
	t.byIno[root.Ino] = root
	t.root = root
	return t
}

// Root returns the tree's root directory item.
func (t *Tree) Root() *Item { return t.root }

func (t *Tree) allocIno() uint64 {
	ino := t.nextIno
	t.nextIno++
	return ino
}

// ItemByIno looks an item up by its stable inode-equivalent identity, used
// by the filesystem adapter to resolve a kernel nodeid back to an item. It
// returns ok=false if no item (registered or detached-but-referenced) has
// that identity.
func (t *Tree) ItemByIno(ino uint64) (*Item, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	it, ok := t.byIno[ino]
	return it, ok
}

// Lock and Unlock expose the tree's mutex to callers outside this package.
// Readdir and AggregatorRead take it themselves, and fsadapter does not
// call these.
func (t *Tree) Lock()   { t.mu.Lock() }
func (t *Tree) Unlock() { t.mu.Unlock() }

// lookupLocked performs the linear scan spec.md 4.3 describes: match first
// by name hash, then by name equality. Caller must hold t.mu.
func lookupLocked(parent *Item, name string) *Item {
	h := nameHashOf(name)
	for _, c := range parent.children {
		if c.nameHash == h && c.name == name {
			return c
		}
	}
	return nil
}

// Lookup finds a registered child of parent by name. It does not touch
// refcounts; callers that need the kernel's "lookup bumps refcount"
// semantics call Get afterwards (fsadapter does this explicitly so that
// internal API users are not forced to release a reference they never
// asked for).
func (t *Tree) Lookup(parent *Item, name string) (*Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if parent.kind != KindDirectory && parent.kind != KindSeriesDir && parent.kind != KindHistogramDir {
		return nil, ErrInvalidArgument
	}
	if !parent.registered {
		return nil, ErrNotFound
	}
	child := lookupLocked(parent, name)
	if child == nil || !child.registered {
		return nil, ErrNotFound
	}
	return child, nil
}

// Get increments an item's refcount, e.g. for a kernel lookup reply or an
// open filesystem handle (spec.md 3's reference counting rules).
func (t *Tree) Get(it *Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	it.refCount++
}

// Put releases n references, freeing the item once the count reaches zero
// (spec.md 3: "put of the last reference frees the item").
func (t *Tree) Put(it *Item, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.putLocked(it, n)
}

func (t *Tree) putLocked(it *Item, n int) {
	it.refCount -= n
	if it.refCount <= 0 {
		t.freeLocked(it)
	}
}

func (t *Tree) freeLocked(it *Item) {
	delete(t.byIno, it.Ino)
	if it.parent != nil {
		if idx := slices.IndexFunc(it.parent.children, func(c *Item) bool { return c == it }); idx >= 0 {
			it.parent.children = slices.Delete(it.parent.children, idx, idx+1)
		}
	}
	it.children = nil
	it.series = nil
	it.hist = nil
	it.obj = nil
}

func (t *Tree) linkChildLocked(parent *Item, child *Item) error {
	if lookupLocked(parent, child.name) != nil {
		return ErrExists
	}
	parent.children = append(parent.children, child)
	return nil
}

func (t *Tree) newItemLocked(kind Kind, name string) (*Item, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	it := &Item{
		tree:       t,
		kind:       kind,
		name:       name,
		nameHash:   nameHashOf(name),
		registered: true,
		refCount:   1,
	}
	it.Ino = t.allocIno()
	t.byIno[it.Ino] = it
	return it, nil
}

// CreateDirectory creates an empty subdirectory named name under parent.
func (t *Tree) CreateDirectory(parent *Item, name string) (*Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.createDirectoryLocked(parent, name)
}

func (t *Tree) createDirectoryLocked(parent *Item, name string) (*Item, error) {
	if parent.kind != KindDirectory || !parent.registered {
		return nil, ErrInvalidArgument
	}
	it, err := t.newItemLocked(KindDirectory, name)
	if err != nil {
		return nil, err
	}
	if err := t.linkChildLocked(parent, it); err != nil {
		delete(t.byIno, it.Ino)
		return nil, err
	}
	it.parent = parent
	return it, nil
}

// Remove unregisters item and detaches it from its parent. If item is the
// tree's root, only its children are detached (the root itself is never
// unregistered). Removing a directory recursively detaches its children;
// they survive only for as long as something else still references them.
func (t *Tree) Remove(it *Item) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeLocked(it)
}

func (t *Tree) removeLocked(it *Item) error {
	if it == t.root {
		for _, c := range append([]*Item(nil), it.children...) {
			t.detachRecursiveLocked(c)
		}
		it.children = nil
		return nil
	}
	if !it.registered {
		// remove is idempotent on detached items (spec.md 7).
		return nil
	}
	t.detachRecursiveLocked(it)
	return nil
}

func (t *Tree) detachRecursiveLocked(it *Item) {
	it.registered = false
	if it.parent != nil {
		if idx := slices.IndexFunc(it.parent.children, func(c *Item) bool { return c == it }); idx >= 0 {
			it.parent.children = slices.Delete(it.parent.children, idx, idx+1)
		}
	}
	it.parent = nil
	for _, c := range append([]*Item(nil), it.children...) {
		t.detachRecursiveLocked(c)
	}
	t.putLocked(it, 1)
}

// RemoveByName looks up name under parent and removes it.
func (t *Tree) RemoveByName(parent *Item, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	child := lookupLocked(parent, name)
	if child == nil || !child.registered {
		return ErrNotFound
	}
	return t.removeLocked(child)
}

// DirEntry is one row of a directory listing.
type DirEntry struct {
	Name string
	Ino  uint64
	Dir  bool
}

// Readdir snapshots the visible (registered, non-aggregator) children of dir
// in insertion order, as of the moment it takes the mutex (spec.md 5's
// "directory-listing readers see a consistent snapshot" guarantee).
func (t *Tree) Readdir(dir *Item) ([]DirEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !dir.registered {
		return nil, ErrNotFound
	}
	out := make([]DirEntry, 0, len(dir.children))
	for _, c := range dir.children {
		if !c.registered || c.kind == KindAggregator {
			continue
		}
		out = append(out, DirEntry{
			Name: c.name,
			Ino:  c.Ino,
			Dir:  c.kind == KindDirectory || c.kind == KindSeriesDir || c.kind == KindHistogramDir,
		})
	}
	return out, nil
}
