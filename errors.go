package procstat

import (
	"github.com/solganik/procstat/internal/errcapture"
	"github.com/solganik/procstat/internal/tree"
)

// Sentinel errors returned by the programmatic surface (spec.md 7), re-
// exported from internal/tree so callers never need to import the internal
// package directly. The filesystem adapter maps each onto the corresponding
// syscall.Errno.
var (
	ErrInvalidArgument = tree.ErrInvalidArgument
	ErrNotFound        = tree.ErrNotFound
	ErrExists          = tree.ErrExists
	ErrPermission      = tree.ErrPermission
	ErrIO              = tree.ErrIO
)

// MultiError aggregates independent failures from a single operation that
// tries several cleanups regardless of earlier ones failing (grounded on the
// teacher's internal/errcapture package, adapted here for Destroy's
// unmount-then-teardown sequence instead of client_golang's HTTP response
// closing).
type MultiError = errcapture.MultiError
