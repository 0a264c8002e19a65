// Package tree implements the concurrent, reference-counted statistics tree:
// spec.md's "item" hierarchy of directories, value-files, series-dirs,
// histogram-dirs and aggregator-files, protected by a single coarse mutex
// (spec.md 9's "global state via a single mutex").
package tree

import (
	"regexp"

	"github.com/solganik/procstat/internal/accum"
)

// Kind discriminates an item's variant. The tree uses tagged dispatch
// (a Kind plus a payload) rather than a subtype hierarchy, matching the
// teacher's own collector/metric tagged-union style.
type Kind int

const (
	KindDirectory Kind = iota
	KindValueFile
	KindSeriesDir
	KindHistogramDir
	KindAggregator
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindValueFile:
		return "value"
	case KindSeriesDir:
		return "series"
	case KindHistogramDir:
		return "histogram"
	case KindAggregator:
		return "aggregator"
	default:
		return "unknown"
	}
}

// ReadFormatter renders a value-file's contents. It must write a newline
// terminated rendering into buf and return the number of bytes written. It
// returns ErrBufferTooSmall if buf cannot hold the full rendering.
type ReadFormatter func(obj interface{}, tag uint64, buf []byte) (int, error)

// WriteFormatter parses data written to a value-file back into host state.
// It returns 1 on success and 0 (with no error) for a recognized-but-invalid
// payload; the caller treats anything other than 1 as EINVAL.
type WriteFormatter func(obj interface{}, tag uint64, data []byte) (int, error)

// Item is a single node of the tree. Variant fields are mutually exclusive
// and selected by Kind. All fields are only ever touched under the owning
// Tree's mutex.
type Item struct {
	Ino      uint64
	name     string
	nameHash uint32
	parent   *Item
	tree     *Tree
	kind     Kind

	registered bool
	refCount   int

	// KindDirectory / KindSeriesDir / KindHistogramDir
	children []*Item

	// KindValueFile
	obj   interface{}
	tag   uint64
	read  ReadFormatter
	write WriteFormatter

	// KindSeriesDir
	series *accum.U64Series

	// KindHistogramDir
	hist *accum.U32Histogram

	// KindAggregator cursor state is per file-handle, held by fsadapter;
	// the tree only needs to know this item must be skipped by readdir.
}

// Name returns the item's name as it appears in its parent's directory
// listing.
func (it *Item) Name() string { return it.name }

// Kind returns the item's variant tag.
func (it *Item) Kind() Kind { return it.kind }

// Parent returns the item's parent, or nil for the root.
func (it *Item) Parent() *Item { return it.parent }

// Registered reports whether the item is reachable from root.
func (it *Item) Registered() bool { return it.registered }

// RefCount returns the current reference count. Exposed for tests only.
func (it *Item) RefCount() int { return it.refCount }

// Series returns the backing accumulator for a series directory, or nil.
func (it *Item) Series() *accum.U64Series { return it.series }

// Histogram returns the backing accumulator for a histogram directory, or
// nil.
func (it *Item) Histogram() *accum.U32Histogram { return it.hist }

// Writable reports whether a value-file accepts writes.
func (it *Item) Writable() bool { return it.kind == KindValueFile && it.write != nil }

// Readable reports whether a value-file accepts reads, i.e. has a
// read-formatter (write-only control files such as "reset" do not;
// directories and aggregators are read via readdir/the aggregator protocol
// instead).
func (it *Item) Readable() bool { return it.kind == KindValueFile && it.read != nil }

// nameHashOf computes the 32-bit FNV-like hash spec.md 3 requires:
// h = 31*h + byte, over the raw bytes of name.
func nameHashOf(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = 31*h + uint32(name[i])
	}
	return h
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validateName(name string) error {
	if name == "" || !nameRe.MatchString(name) {
		return ErrInvalidArgument
	}
	return nil
}
