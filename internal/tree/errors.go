package tree

import "errors"

// Sentinel errors for tree operations (spec.md 7). fsadapter maps these onto
// syscall.Errno at the filesystem boundary; the root package re-exports them
// for the programmatic surface.
var (
	ErrInvalidArgument = errors.New("procstat: invalid argument")
	ErrNotFound        = errors.New("procstat: not found")
	ErrExists          = errors.New("procstat: already exists")
	ErrPermission      = errors.New("procstat: permission denied")
	ErrIO              = errors.New("procstat: i/o error")
)
