package fsadapter

import (
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"
)

// OpenDir implements spec.md 4.5's opendir contract: fail on an
// unregistered item, otherwise succeed with no extra handle state beyond
// the directory-listing snapshot readdir will need.
func (a *Adapter) OpenDir(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	it, ok := a.resolve(input.NodeId)
	if !ok || !it.Registered() {
		return fuse.ENOENT
	}
	entries, err := a.tree.Readdir(it)
	if err != nil {
		return errToStatus(err)
	}
	a.tree.Get(it)
	out.Fh = a.allocHandle(&fileHandle{kind: handleDir, item: it, dirSnapshot: entries})
	return fuse.OK
}

// ReadDir implements spec.md 4.5's readdir contract: reply with the
// requested slice of the snapshot taken at opendir time.
func (a *Adapter) ReadDir(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	h := a.getHandle(input.Fh)
	if h == nil || h.kind != handleDir {
		return fuse.EINVAL
	}
	for i := int(input.Offset); i < len(h.dirSnapshot); i++ {
		e := h.dirSnapshot[i]
		mode := uint32(unix.S_IFREG)
		if e.Dir {
			mode = unix.S_IFDIR
		}
		if !out.AddDirEntry(fuse.DirEntry{Name: e.Name, Ino: e.Ino, Mode: mode}) {
			break
		}
	}
	return fuse.OK
}

// ReleaseDir implements spec.md 4.5's release contract for directory
// handles: it drops the reference OpenDir took. Aggregator handles are file
// handles, so their parent reference is dropped in Release instead.
func (a *Adapter) ReleaseDir(input *fuse.ReleaseIn) {
	h := a.freeHandle(input.Fh)
	if h == nil {
		return
	}
	a.tree.Put(h.item, 1)
}
