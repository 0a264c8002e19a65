package tree

import (
	"math"

	"github.com/solganik/procstat/internal/accum"
)

const (
	histFieldSum uint64 = iota
	histFieldCount
	histFieldLast
	histFieldAvg
	histFieldPercentile
)

func histReadFormatter(obj interface{}, tag uint64, buf []byte) (int, error) {
	h := obj.(*accum.U32Histogram)
	switch tag {
	case histFieldSum:
		return FormatUint64Decimal(h.Sum)(obj, tag, buf)
	case histFieldCount:
		return FormatUint64Decimal(h.Count)(obj, tag, buf)
	case histFieldLast:
		return FormatUint64Decimal(h.Last)(obj, tag, buf)
	case histFieldAvg:
		return FormatUint64Decimal(h.Avg)(obj, tag, buf)
	default:
		return 0, ErrInvalidArgument
	}
}

// percentileTag packs a fraction's bit pattern into a single uint64 tag:
// the low bit marks "this is a percentile file", the remaining 63 bits hold
// the fraction's float64 bits shifted up by one. The shift drops only the
// sign bit, which is 0 for fractions in (0, 1], so tag>>1 recovers the
// fraction exactly.
func percentileTag(fraction float64) uint64 {
	return (math.Float64bits(fraction) << 1) | 1
}

func percentileReadFormatter(obj interface{}, tag uint64, buf []byte) (int, error) {
	h := obj.(*accum.U32Histogram)
	fraction := math.Float64frombits(tag >> 1)
	return FormatUint64Decimal(func() uint64 { return uint64(h.Percentile(fraction)) })(obj, tag, buf)
}

func histGetResetIntervalFormatter(obj interface{}, _ uint64, buf []byte) (int, error) {
	h := obj.(*accum.U32Histogram)
	return FormatUint64Decimal(func() uint64 { return uint64(h.Reset.IntervalSec()) })(obj, 0, buf)
}

// CreateHistogramU32Series creates a histogram directory named name under
// parent with sum/count/last/avg/get_reset_interval_sec, one file per
// requested percentile fraction, and the reset/reset_interval_sec control
// files (spec.md 3/4.3/6).
func (t *Tree) CreateHistogramU32Series(parent *Item, name string, fractions []float64) (*Item, *accum.U32Histogram, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parent.kind != KindDirectory || !parent.registered {
		return nil, nil, ErrInvalidArgument
	}

	dir, err := t.newItemLocked(KindHistogramDir, name)
	if err != nil {
		return nil, nil, err
	}
	hist := accum.NewU32Histogram()
	dir.hist = hist

	created := make([]*Item, 0, len(fractions)+7)
	rollback := func() {
		for _, c := range created {
			delete(t.byIno, c.Ino)
		}
		delete(t.byIno, dir.Ino)
	}

	scalarFields := []struct {
		name string
		tag  uint64
	}{
		{"sum", histFieldSum},
		{"count", histFieldCount},
		{"last", histFieldLast},
		{"avg", histFieldAvg},
	}
	for _, f := range scalarFields {
		child, err := t.newItemLocked(KindValueFile, f.name)
		if err != nil {
			rollback()
			return nil, nil, err
		}
		child.obj = hist
		child.tag = f.tag
		child.read = histReadFormatter
		child.parent = dir
		dir.children = append(dir.children, child)
		created = append(created, child)
	}

	for _, fraction := range fractions {
		pname := percentileName(fraction)
		child, err := t.newItemLocked(KindValueFile, pname)
		if err != nil {
			rollback()
			return nil, nil, err
		}
		child.obj = hist
		child.tag = percentileTag(fraction)
		child.read = percentileReadFormatter
		child.parent = dir
		dir.children = append(dir.children, child)
		created = append(created, child)
	}

	getInterval, err := t.newItemLocked(KindValueFile, "get_reset_interval_sec")
	if err != nil {
		rollback()
		return nil, nil, err
	}
	getInterval.obj = hist
	getInterval.read = histGetResetIntervalFormatter
	getInterval.parent = dir
	dir.children = append(dir.children, getInterval)
	created = append(created, getInterval)

	resetFile, err := t.newItemLocked(KindValueFile, "reset")
	if err != nil {
		rollback()
		return nil, nil, err
	}
	resetFile.obj = hist
	resetFile.write = resetWriteFormatter
	resetFile.parent = dir
	dir.children = append(dir.children, resetFile)
	created = append(created, resetFile)

	intervalFile, err := t.newItemLocked(KindValueFile, "reset_interval_sec")
	if err != nil {
		rollback()
		return nil, nil, err
	}
	intervalFile.obj = hist
	intervalFile.write = resetIntervalWriteFormatter
	intervalFile.parent = dir
	dir.children = append(dir.children, intervalFile)
	created = append(created, intervalFile)

	if err := t.linkChildLocked(parent, dir); err != nil {
		rollback()
		delete(t.byIno, dir.Ino)
		return nil, nil, err
	}
	dir.parent = parent
	return dir, hist, nil
}
