// Package fsadapter maps the procstat tree onto the FUSE lowlevel protocol
// via github.com/hanwen/go-fuse/v2/fuse.RawFileSystem (spec.md 4.5).
package fsadapter

import (
	"sync"

	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/solganik/procstat/internal/tree"
)

// handleReadBufSize is the fixed per-open-handle read buffer spec.md 4.5
// mandates for non-aggregator value-files.
const handleReadBufSize = 100

// attrTimeoutSec is the entry/attribute cache timeout spec.md 4.5 calls
// "attribute timeout one hour".
const attrTimeoutSec = 3600

type handleKind int

const (
	handleValue handleKind = iota
	handleDir
	handleAggregator
)

type fileHandle struct {
	kind handleKind
	item *tree.Item

	// handleValue
	buf      [handleReadBufSize]byte
	rendered int

	// handleDir
	dirSnapshot []tree.DirEntry

	// handleAggregator: pinnedParent is captured at open time since
	// item.Parent() can go nil if the aggregated directory is removed
	// before release (tree.go's detachRecursiveLocked clears it).
	cursor       tree.AggregatorCursor
	pinnedParent *tree.Item
}

// Adapter implements fuse.RawFileSystem over a *tree.Tree. Every op spec.md
// 4.5 doesn't name falls through to the embedded default implementation
// (ENOSYS).
type Adapter struct {
	fuse.RawFileSystem

	tree *tree.Tree

	mu      sync.Mutex
	nextFh  uint64
	handles map[uint64]*fileHandle
}

// New wraps t in a fuse.RawFileSystem. Callers normally reach this only
// through procstat.Create.
func New(t *tree.Tree) *Adapter {
	return &Adapter{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		tree:          t,
		handles:       make(map[uint64]*fileHandle),
		nextFh:        1,
	}
}

func errToStatus(err error) fuse.Status {
	switch err {
	case nil:
		return fuse.OK
	case tree.ErrNotFound:
		return fuse.ENOENT
	case tree.ErrExists:
		return fuse.EEXIST
	case tree.ErrPermission:
		return fuse.EACCES
	case tree.ErrInvalidArgument:
		return fuse.EINVAL
	case tree.ErrIO:
		return fuse.EIO
	default:
		return fuse.EIO
	}
}

// statDefaults is the unix.Stat_t every item shares: a conventional block
// size and a zero byte count, since content is computed on read rather than
// stored (spec.md 6: "stat sizes are reported as 0; clients must use direct
// I/O"). fillAttr copies its fields into the FUSE reply rather than using
// bare literals, so the on-the-wire attributes stay traceable to the same
// struct a raw stat(2) caller would get back.
var statDefaults = unix.Stat_t{Blksize: 4096, Size: 0}

// fillAttr renders it's mode/size/nlink per spec.md 4.5/6: 0755 for any
// directory-shaped item, 0444 if readable plus 0222 if writable for
// value-files, 0444 for
// a read-only aggregator pseudo-file, size always 0 since content is
// computed on read.
func fillAttr(it *tree.Item, out *fuse.Attr) {
	out.Ino = it.Ino
	out.Nlink = 1
	out.Blksize = uint32(statDefaults.Blksize)
	out.Size = uint64(statDefaults.Size)

	switch it.Kind() {
	case tree.KindDirectory, tree.KindSeriesDir, tree.KindHistogramDir:
		out.Mode = unix.S_IFDIR | 0755
		out.Nlink = 2
	case tree.KindAggregator:
		out.Mode = unix.S_IFREG | 0444
	default:
		mode := uint32(unix.S_IFREG)
		if it.Readable() {
			mode |= 0444
		}
		if it.Writable() {
			mode |= 0222
		}
		out.Mode = mode
	}
}

func (a *Adapter) resolve(nodeid uint64) (*tree.Item, bool) {
	return a.tree.ItemByIno(nodeid)
}

func (a *Adapter) allocHandle(h *fileHandle) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	fh := a.nextFh
	a.nextFh++
	a.handles[fh] = h
	return fh
}

func (a *Adapter) getHandle(fh uint64) *fileHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handles[fh]
}

func (a *Adapter) freeHandle(fh uint64) *fileHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := a.handles[fh]
	delete(a.handles, fh)
	return h
}

func (a *Adapter) String() string { return "procstat" }
