package fsadapter

import (
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/solganik/procstat/internal/tree"
)

// Lookup implements spec.md 4.5's lookup contract: find child, bump its
// refcount on success, reply with a one-hour attribute/entry timeout.
func (a *Adapter) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	parent, ok := a.resolve(header.NodeId)
	if !ok {
		return fuse.ENOENT
	}
	child, err := a.tree.Lookup(parent, name)
	if err != nil {
		return errToStatus(err)
	}
	a.tree.Get(child)

	out.NodeId = child.Ino
	out.Generation = 1
	out.EntryValid = attrTimeoutSec
	out.AttrValid = attrTimeoutSec
	fillAttr(child, &out.Attr)
	return fuse.OK
}

// Forget implements spec.md 4.5/4.6's kernel dentry-cache eviction: release
// nlookup references, freeing the item once none remain.
func (a *Adapter) Forget(nodeid, nlookup uint64) {
	it, ok := a.resolve(nodeid)
	if !ok {
		return
	}
	a.tree.Put(it, int(nlookup))
}

// GetAttr implements spec.md 4.5's getattr contract.
func (a *Adapter) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	it, ok := a.resolve(input.NodeId)
	if !ok || !it.Registered() {
		return fuse.ENOENT
	}
	out.AttrValid = attrTimeoutSec
	fillAttr(it, &out.Attr)
	return fuse.OK
}

// SetAttr implements spec.md 4.5's setattr contract: accept only SIZE
// (truncate-before-write), and only against an item with a write-formatter.
// Both checks are unconditional, matching the original implementation's
// fuse_setattr: a non-control item is always EACCES regardless of which
// bits are set, and any mask other than exactly SIZE is always EINVAL.
func (a *Adapter) SetAttr(cancel <-chan struct{}, input *fuse.SetAttrIn, out *fuse.AttrOut) fuse.Status {
	it, ok := a.resolve(input.NodeId)
	if !ok || !it.Registered() {
		return fuse.ENOENT
	}
	if !it.Writable() {
		return errToStatus(tree.ErrPermission)
	}
	if input.Valid != fuse.FATTR_SIZE {
		return errToStatus(tree.ErrInvalidArgument)
	}
	out.AttrValid = attrTimeoutSec
	fillAttr(it, &out.Attr)
	return fuse.OK
}
