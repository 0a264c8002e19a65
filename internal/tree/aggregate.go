package tree

const maxAggregatorPath = 120

// AggregatorCursor is the per-open-handle state spec.md 4.4 requires: which
// leaf to resume after, whether the stream has ended, whether a
// non-sequential read has already been reported, and the byte offset the
// next read must match (non-sequential reads are not supported).
//
// Unlike the source implementation's incremental "resume this specific
// top-level sibling, skipping N already-emitted lines" scheme, this port
// pins the cursor directly on the last fully-emitted *leaf* (by reference,
// via Tree.Get/Put) and re-flattens the subtree fresh on every read to find
// it again. Go's garbage collector removes the aliasing hazard that made
// sibling-pointer resumption attractive in the source; re-flattening is a
// few pointer-equality comparisons over a slice the tree mutex already
// serializes, and it is strictly more precise (every leaf is a resume
// point, not just every top-level sibling).
type AggregatorCursor struct {
	started      bool
	ended        bool
	failed       bool
	pinned       *Item
	streamOffset uint64
}

type aggregatorLeaf struct {
	item *Item
	path string
}

// flattenLocked depth-first walks dir (skipping the aggregator file itself
// and any unregistered directory) collecting every value-file leaf along
// with its path prefix, capped at 120 bytes. Caller must hold t.mu.
func flattenLocked(dir *Item, path string) []aggregatorLeaf {
	var out []aggregatorLeaf
	for _, c := range dir.children {
		if !c.registered || c.kind == KindAggregator {
			continue
		}
		switch c.kind {
		case KindDirectory:
			sub := joinPath(path, c.name)
			out = append(out, flattenLocked(c, sub)...)
		case KindSeriesDir, KindHistogramDir:
			sub := joinPath(path, c.name)
			for _, vf := range c.children {
				if !vf.registered || vf.read == nil {
					continue
				}
				out = append(out, aggregatorLeaf{item: vf, path: sub})
			}
		case KindValueFile:
			if c.read != nil {
				out = append(out, aggregatorLeaf{item: c, path: path})
			}
		}
	}
	return out
}

// joinPath appends name to path (path is empty at the aggregator's parent
// directory per spec.md 4.4), capping the result at 120 bytes.
func joinPath(path, name string) string {
	var joined string
	if path == "" {
		joined = name
	} else {
		joined = path + "/" + name
	}
	if len(joined) > maxAggregatorPath {
		joined = joined[:maxAggregatorPath]
	}
	return joined
}

func findLeaf(leaves []aggregatorLeaf, item *Item) int {
	for i, l := range leaves {
		if l.item == item {
			return i
		}
	}
	return -1
}

func renderLeaf(l aggregatorLeaf, buf []byte) (int, error) {
	prefix := joinPath(l.path, l.item.name) + ":"
	if len(prefix) >= len(buf) {
		return 0, ErrBufferTooSmall
	}
	n := copy(buf, prefix)
	m, err := l.item.read(l.item.obj, l.item.tag, buf[n:])
	if err != nil {
		return 0, err
	}
	return n + m, nil
}

// AggregatorRead implements spec.md 4.4's read protocol for one bounded read
// of size bytes at the given stream offset.
func (t *Tree) AggregatorRead(agg *Item, cur *AggregatorCursor, size int, offset uint64) ([]byte, error) {
	if cur.failed {
		return nil, nil
	}
	if offset != cur.streamOffset {
		cur.ended = true
		cur.failed = true
		cur.Release(t)
		return []byte("error: non-sequential aggregator read\n"), nil
	}
	if cur.ended {
		return nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent := agg.parent
	if parent == nil || !parent.registered {
		cur.ended = true
		return nil, nil
	}

	leaves := flattenLocked(parent, "")

	start := 0
	if cur.started {
		if cur.pinned == nil {
			// Nothing was pinned by the previous read (it returned
			// the oversized-entry error line); start again from the
			// first leaf.
			start = 0
		} else {
			idx := findLeaf(leaves, cur.pinned)
			t.putLocked(cur.pinned, 1)
			cur.pinned = nil
			if idx < 0 {
				// The pinned leaf was detached since the last read:
				// spec.md 9 resolves this as end-of-stream.
				cur.ended = true
				return nil, nil
			}
			start = idx + 1
		}
	} else {
		cur.started = true
	}

	buf := make([]byte, size)
	written := 0
	last := -1
	for i := start; i < len(leaves); i++ {
		n, err := renderLeaf(leaves[i], buf[written:])
		if err != nil {
			// Overflow: pad the tail of the buffer so it ends on a
			// clean line boundary, per spec.md 4.4 step 5.
			if written == 0 {
				// Not even one line fits; nothing we can do but
				// report an oversized single entry as an error line
				// instead of wedging the stream.
				return []byte("error: entry too large for read buffer\n"), nil
			}
			for j := written; j < size-1; j++ {
				buf[j] = ' '
			}
			buf[size-1] = '\n'
			written = size
			last = i - 1
			break
		}
		written += n
		last = i
	}

	if last == len(leaves)-1 || start >= len(leaves) {
		cur.ended = true
	} else if last >= start {
		cur.pinned = leaves[last].item
		cur.pinned.refCount++
	}

	cur.streamOffset += uint64(written)
	return buf[:written], nil
}

// Release drops the cursor's pinned leaf reference, if any. Callers must
// separately Put the aggregator file's own refcount and the extra
// reference taken on the parent directory at open time (spec.md 4.4/4.5).
func (c *AggregatorCursor) Release(t *Tree) {
	if c.pinned != nil {
		t.Put(c.pinned, 1)
		c.pinned = nil
	}
}
