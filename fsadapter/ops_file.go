package fsadapter

import (
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/solganik/procstat/internal/tree"
)

// Open implements spec.md 4.5's open contract: deny write access unless the
// item has a write-formatter, allocate the fixed 100-byte handle buffer,
// mark the reply for direct I/O (sizes are dynamic, spec.md 6), and for
// aggregator items additionally pin the parent directory. Aggregators never
// carry a write-formatter, so this check denies them too, same as any other
// read-only item.
func (a *Adapter) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	it, ok := a.resolve(input.NodeId)
	if !ok || !it.Registered() {
		return fuse.ENOENT
	}

	accessMode := input.Flags & unix.O_ACCMODE
	wantsWrite := accessMode == unix.O_WRONLY || accessMode == unix.O_RDWR
	if wantsWrite && !it.Writable() {
		return fuse.EACCES
	}

	a.tree.Get(it)

	h := &fileHandle{item: it}
	if it.Kind() == tree.KindAggregator {
		h.kind = handleAggregator
		if parent := it.Parent(); parent != nil {
			a.tree.Get(parent)
			h.pinnedParent = parent
		}
	} else {
		h.kind = handleValue
	}

	out.Fh = a.allocHandle(h)
	out.OpenFlags = fuse.FOPEN_DIRECT_IO
	return fuse.OK
}

// Read implements spec.md 4.5's read contract, dispatching aggregator
// handles to the streaming protocol in spec.md 4.4 and rendering every
// other value-file exactly once, at offset 0, into its 100-byte buffer.
func (a *Adapter) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	h := a.getHandle(input.Fh)
	if h == nil {
		return nil, fuse.EINVAL
	}

	if h.kind == handleAggregator {
		data, err := a.tree.AggregatorRead(h.item, &h.cursor, int(input.Size), input.Offset)
		if err != nil {
			return nil, errToStatus(err)
		}
		return fuse.ReadResultData(data), fuse.OK
	}

	if input.Offset == 0 {
		n, err := a.tree.ReadValue(h.item, h.buf[:])
		if err != nil {
			return nil, errToStatus(err)
		}
		h.rendered = n
	}

	off := int(input.Offset)
	if off >= h.rendered {
		return fuse.ReadResultData(nil), fuse.OK
	}
	end := off + int(input.Size)
	if end > h.rendered {
		end = h.rendered
	}
	return fuse.ReadResultData(h.buf[off:end]), fuse.OK
}

// Write implements spec.md 4.5's write contract: an item with no
// write-formatter is an I/O error, not a permission error. Open already
// refuses write-mode opens of such items, so this is a defensive check.
func (a *Adapter) Write(cancel <-chan struct{}, input *fuse.WriteIn, data []byte) (uint32, fuse.Status) {
	h := a.getHandle(input.Fh)
	if h == nil {
		return 0, fuse.EINVAL
	}
	if !h.item.Writable() {
		return 0, fuse.EIO
	}
	n, err := a.tree.WriteValue(h.item, data)
	if err != nil {
		return 0, errToStatus(err)
	}
	if n != 1 {
		return 0, fuse.EINVAL
	}
	return uint32(len(data)), fuse.OK
}

// Release implements spec.md 4.5/4.4's release contract: for an aggregator
// handle, drop any pinned cursor leaf and the extra reference taken on the
// parent directory at open time, then release the handle's own reference.
func (a *Adapter) Release(cancel <-chan struct{}, input *fuse.ReleaseIn) {
	h := a.freeHandle(input.Fh)
	if h == nil {
		return
	}
	if h.kind == handleAggregator {
		h.cursor.Release(a.tree)
		if h.pinnedParent != nil {
			a.tree.Put(h.pinnedParent, 1)
		}
	}
	a.tree.Put(h.item, 1)
}
