package tree

// SimpleDescriptor describes one value-file to be created by CreateSimple:
// object and tag are opaque to the tree and passed straight through to the
// formatter/writer callbacks (spec.md 4.3/6).
type SimpleDescriptor struct {
	Name   string
	Object interface{}
	Tag    uint64
	Read   ReadFormatter
	Write  WriteFormatter
}

// CreateSimple batch-creates value-files under parent from descriptors,
// unwinding (removing) the already-created prefix on any failure so the
// tree is never left partially constructed under a caller-visible name
// (spec.md 7).
func (t *Tree) CreateSimple(parent *Item, descriptors []SimpleDescriptor) ([]*Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parent.kind != KindDirectory || !parent.registered {
		return nil, ErrInvalidArgument
	}

	created := make([]*Item, 0, len(descriptors))
	rollback := func() {
		for _, c := range created {
			t.detachRecursiveLocked(c)
		}
	}

	for _, d := range descriptors {
		child, err := t.newItemLocked(KindValueFile, d.Name)
		if err != nil {
			rollback()
			return nil, err
		}
		child.obj = d.Object
		child.tag = d.Tag
		child.read = d.Read
		child.write = d.Write
		if err := t.linkChildLocked(parent, child); err != nil {
			delete(t.byIno, child.Ino)
			rollback()
			return nil, err
		}
		child.parent = parent
		created = append(created, child)
	}
	return created, nil
}

// StartEndDescriptor describes a "start"/"end" sub-directory: two
// value-files sharing one formatter but distinguished by StartTag/EndTag
// (spec.md 4.3).
type StartEndDescriptor struct {
	Name     string
	Object   interface{}
	StartTag uint64
	EndTag   uint64
	Read     ReadFormatter
	Write    WriteFormatter
}

// CreateStartEnd batch-creates start/end sub-directories under parent, with
// the same all-or-nothing rollback policy as CreateSimple.
func (t *Tree) CreateStartEnd(parent *Item, descriptors []StartEndDescriptor) ([]*Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parent.kind != KindDirectory || !parent.registered {
		return nil, ErrInvalidArgument
	}

	created := make([]*Item, 0, len(descriptors))
	rollback := func() {
		for _, c := range created {
			t.detachRecursiveLocked(c)
		}
	}

	for _, d := range descriptors {
		dir, err := t.newItemLocked(KindDirectory, d.Name)
		if err != nil {
			rollback()
			return nil, err
		}
		if err := t.linkChildLocked(parent, dir); err != nil {
			delete(t.byIno, dir.Ino)
			rollback()
			return nil, err
		}
		dir.parent = parent

		startEnd := []struct {
			name string
			tag  uint64
		}{
			{"start", d.StartTag},
			{"end", d.EndTag},
		}
		for _, se := range startEnd {
			child, err := t.newItemLocked(KindValueFile, se.name)
			if err != nil {
				rollback()
				t.detachRecursiveLocked(dir)
				return nil, err
			}
			child.obj = d.Object
			child.tag = se.tag
			child.read = d.Read
			child.write = d.Write
			child.parent = dir
			dir.children = append(dir.children, child)
		}
		created = append(created, dir)
	}
	return created, nil
}

// CreateAggregator creates a read-only pseudo-file under parent whose read
// depth-first-walks parent's subtree (spec.md 3/4.4). Aggregators are
// invisible in parent's directory listing but remain lookup-able by name.
func (t *Tree) CreateAggregator(parent *Item, name string) (*Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parent.kind != KindDirectory || !parent.registered {
		return nil, ErrInvalidArgument
	}
	it, err := t.newItemLocked(KindAggregator, name)
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
