package procstat

// This file is the programmatic surface spec.md 6 names: thin, directly
// delegating wrappers over internal/tree so a host process never needs to
// import internal/... directly.

// Root returns ctx's root directory item.
func (c *Context) Root() *Item { return c.tree.Root() }

// LookupItem finds a registered child of parent by name.
func (c *Context) LookupItem(parent *Item, name string) (*Item, error) {
	return c.tree.Lookup(parent, name)
}

// CreateDirectory creates an empty subdirectory named name under parent.
func (c *Context) CreateDirectory(parent *Item, name string) (*Item, error) {
	return c.tree.CreateDirectory(parent, name)
}

// Remove unregisters and detaches it.
func (c *Context) Remove(it *Item) error { return c.tree.Remove(it) }

// RemoveByName looks up name under parent and removes it.
func (c *Context) RemoveByName(parent *Item, name string) error {
	return c.tree.RemoveByName(parent, name)
}

// CreateSimple batch-creates value-files under parent.
func (c *Context) CreateSimple(parent *Item, descriptors []SimpleDescriptor) ([]*Item, error) {
	return c.tree.CreateSimple(parent, descriptors)
}

// CreateStartEnd batch-creates start/end sub-directories under parent.
func (c *Context) CreateStartEnd(parent *Item, descriptors []StartEndDescriptor) ([]*Item, error) {
	return c.tree.CreateStartEnd(parent, descriptors)
}

// CreateU64Series creates one series directory under parent.
func (c *Context) CreateU64Series(parent *Item, name string) (*Item, *U64Series, error) {
	return c.tree.CreateU64Series(parent, name)
}

// CreateMultipleU64Series creates several series directories in one call.
func (c *Context) CreateMultipleU64Series(parent *Item, names []string) ([]*Item, []*U64Series, error) {
	return c.tree.CreateMultipleU64Series(parent, names)
}

// CreateHistogramU32Series creates one histogram directory under parent.
func (c *Context) CreateHistogramU32Series(parent *Item, name string, fractions []float64) (*Item, *U32Histogram, error) {
	return c.tree.CreateHistogramU32Series(parent, name, fractions)
}

// CreateAggregator creates a read-only aggregator pseudo-file under parent.
func (c *Context) CreateAggregator(parent *Item, name string) (*Item, error) {
	return c.tree.CreateAggregator(parent, name)
}

// AddU64Point records one sample on a u64 series accumulator. It is a free
// function, not a Context method, since accumulators outlive no particular
// mount and the hot path (spec.md 5) must not touch ctx or the tree mutex.
func AddU64Point(s *U64Series, v uint64) { s.AddPoint(v) }

// AddHistogramPoint records one sample on a u32 histogram accumulator.
func AddHistogramPoint(h *U32Histogram, v uint32) { h.AddPoint(v) }
