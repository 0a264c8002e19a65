package tree

import (
	"github.com/solganik/procstat/internal/accum"
)

// series field tags, carried as the value-file's Tag so a single shared
// formatter can dispatch on which scalar of the backing accumulator to
// render.
const (
	seriesFieldSum uint64 = iota
	seriesFieldCount
	seriesFieldMin
	seriesFieldMax
	seriesFieldLast
	seriesFieldAvg
	seriesFieldMean
	seriesFieldStddev
)

func seriesReadFormatter(obj interface{}, tag uint64, buf []byte) (int, error) {
	s := obj.(*accum.U64Series)
	switch tag {
	case seriesFieldSum:
		return FormatUint64Decimal(s.Sum)(obj, tag, buf)
	case seriesFieldCount:
		return FormatUint64Decimal(s.Count)(obj, tag, buf)
	case seriesFieldMin:
		return FormatUint64Decimal(s.Min)(obj, tag, buf)
	case seriesFieldMax:
		return FormatUint64Decimal(s.Max)(obj, tag, buf)
	case seriesFieldLast:
		return FormatUint64Decimal(s.Last)(obj, tag, buf)
	case seriesFieldAvg:
		return FormatUint64Decimal(s.Avg)(obj, tag, buf)
	case seriesFieldMean:
		return FormatFloat64(s.Mean)(obj, tag, buf)
	case seriesFieldStddev:
		return FormatFloat64(s.Stddev)(obj, tag, buf)
	default:
		return 0, ErrInvalidArgument
	}
}

func seriesGetResetIntervalFormatter(obj interface{}, _ uint64, buf []byte) (int, error) {
	s := obj.(*accum.U64Series)
	return FormatUint64Decimal(func() uint64 { return uint64(s.Reset.IntervalSec()) })(obj, 0, buf)
}

func resetWriteFormatter(obj interface{}, _ uint64, data []byte) (int, error) {
	v, ok := ParseUint64Decimal(data)
	if !ok || v != 1 {
		return 0, nil
	}
	switch o := obj.(type) {
	case *accum.U64Series:
		o.Reset.TriggerReset()
	case *accum.U32Histogram:
		o.Reset.TriggerReset()
	default:
		return 0, nil
	}
	return 1, nil
}

func resetIntervalWriteFormatter(obj interface{}, _ uint64, data []byte) (int, error) {
	v, ok := ParseUint64Decimal(data)
	if !ok {
		return 0, nil
	}
	switch o := obj.(type) {
	case *accum.U64Series:
		o.Reset.SetIntervalSec(int64(v))
	case *accum.U32Histogram:
		o.Reset.SetIntervalSec(int64(v))
	default:
		return 0, nil
	}
	return 1, nil
}

// CreateU64Series creates a series directory named name under parent,
// populated with the nine derived value-files and two control files spec.md
// 3/4.3 and 6 specify, backed by a freshly initialized U64Series.
func (t *Tree) CreateU64Series(parent *Item, name string) (*Item, *accum.U64Series, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parent.kind != KindDirectory || !parent.registered {
		return nil, nil, ErrInvalidArgument
	}

	dir, err := t.newItemLocked(KindSeriesDir, name)
	if err != nil {
		return nil, nil, err
	}
	series := accum.NewU64Series()
	dir.series = series

	fields := []struct {
		name string
		tag  uint64
	}{
		{"sum", seriesFieldSum},
		{"count", seriesFieldCount},
		{"min", seriesFieldMin},
		{"max", seriesFieldMax},
		{"last", seriesFieldLast},
		{"avg", seriesFieldAvg},
		{"mean", seriesFieldMean},
		{"stddev", seriesFieldStddev},
	}
	created := make([]*Item, 0, len(fields)+3)
	rollback := func() {
		for _, c := range created {
			delete(t.byIno, c.Ino)
		}
		delete(t.byIno, dir.Ino)
	}

	for _, f := range fields {
		child, err := t.newItemLocked(KindValueFile, f.name)
		if err != nil {
			rollback()
			return nil, nil, err
		}
		child.obj = series
		child.tag = f.tag
		child.read = seriesReadFormatter
		child.parent = dir
		dir.children = append(dir.children, child)
		created = append(created, child)
	}

	getInterval, err := t.newItemLocked(KindValueFile, "get_reset_interval_sec")
	if err != nil {
		rollback()
		return nil, nil, err
	}
	getInterval.obj = series
	getInterval.read = seriesGetResetIntervalFormatter
	getInterval.parent = dir
	dir.children = append(dir.children, getInterval)
	created = append(created, getInterval)

	resetFile, err := t.newItemLocked(KindValueFile, "reset")
	if err != nil {
		rollback()
		return nil, nil, err
	}
	resetFile.obj = series
	resetFile.write = resetWriteFormatter
	resetFile.parent = dir
	dir.children = append(dir.children, resetFile)
	created = append(created, resetFile)

	intervalFile, err := t.newItemLocked(KindValueFile, "reset_interval_sec")
	if err != nil {
		rollback()
		return nil, nil, err
	}
	intervalFile.obj = series
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
	return dir, series, nil
}

// CreateMultipleU64Series creates several series directories in one call,
// rolling back everything already created if any name collides or is
// invalid (spec.md 7's all-or-nothing creation policy).
func (t *Tree) CreateMultipleU64Series(parent *Item, names []string) ([]*Item, []*accum.U64Series, error) {
	items := make([]*Item, 0, len(names))
	series := make([]*accum.U64Series, 0, len(names))
	for _, name := range names {
		it, s, err := t.CreateU64Series(parent, name)
		if err != nil {
			for _, created := range items {
				_ = t.Remove(created)
			}
			return nil, nil, err
		}
		items = append(items, it)
		series = append(series, s)
	}
	return items, series, nil
}
