// Package errcapture aggregates a failure from a deferred cleanup (an
// unmount, a teardown) into an error a caller already holds, instead of
// silently dropping one of the two (grounded on the teacher's
// internal/errcapture package; adapted here to use this module's own
// MultiError instead of client_golang's, since pulling in the Prometheus
// client just for its MultiError would contradict spec.md's explicit
// no-wire-format Non-goal).
package errcapture

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// MultiError aggregates independent failures from an operation that runs
// several cleanups regardless of earlier ones failing.
type MultiError []error

// Append records err if non-nil.
func (m *MultiError) Append(err error) {
	if err != nil {
		*m = append(*m, err)
	}
}

// ErrorOrNil returns m as an error if it has any entries, else nil.
func (m MultiError) ErrorOrNil() error {
	if len(m) == 0 {
		return nil
	}
	return m
}

func (m MultiError) Error() string {
	parts := make([]string, len(m))
	for i, e := range m {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d error(s) occurred: %s", len(m), strings.Join(parts, "; "))
}

type doFunc func() error

// Do runs doer and, if it fails, folds the resulting error into *err
// (preserving whatever *err already held) instead of overwriting it. Used
// by Destroy (procstat.go) to aggregate unmount and tree-teardown failures
// without losing either one.
func Do(err *error, doer doFunc, format string, a ...interface{}) {
	derr := doer()
	if derr == nil {
		return
	}

	// A double-close of an already-closed resource is a common, harmless
	// race during teardown; don't surface it as a failure.
	if errors.Is(derr, os.ErrClosed) {
		return
	}

	var errs MultiError
	errs.Append(*err)
	errs.Append(fmt.Errorf(format+": %w", append(a, derr)...))
	*err = errs
}
