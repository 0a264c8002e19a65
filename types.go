package procstat

import (
	"github.com/solganik/procstat/internal/accum"
	"github.com/solganik/procstat/internal/tree"
)

// Item, DirEntry and the accumulator/formatter types are re-exported from
// their internal packages so callers never import internal/... directly
// (spec.md 6's programmatic surface).
type (
	Item            = tree.Item
	Kind            = tree.Kind
	DirEntry        = tree.DirEntry
	SimpleDescriptor = tree.SimpleDescriptor
	StartEndDescriptor = tree.StartEndDescriptor
	ReadFormatter   = tree.ReadFormatter
	WriteFormatter  = tree.WriteFormatter
	U64Series       = accum.U64Series
	U32Histogram    = accum.U32Histogram
)

const (
	KindDirectory    = tree.KindDirectory
	KindValueFile    = tree.KindValueFile
	KindSeriesDir    = tree.KindSeriesDir
	KindHistogramDir = tree.KindHistogramDir
	KindAggregator   = tree.KindAggregator
)
