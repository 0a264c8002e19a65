package procstat

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/jpillora/backoff"

	"github.com/solganik/procstat/fsadapter"
	"github.com/solganik/procstat/internal/errcapture"
	"github.com/solganik/procstat/internal/tree"
)

// mountConfig collects the functional options passed to Create.
type mountConfig struct {
	debug      bool
	fsName     string
	allowOther bool
}

// Option configures a Context at construction time.
type Option func(*mountConfig)

// WithDebug turns on go-fuse's own request/reply logging (fuse.MountOptions.Debug).
func WithDebug(debug bool) Option {
	return func(c *mountConfig) { c.debug = debug }
}

// WithFsName sets the value shown in the first column of `df -T`.
func WithFsName(name string) Option {
	return func(c *mountConfig) { c.fsName = name }
}

// WithAllowOther passes -o allow_other so users other than the mount owner
// may access the filesystem.
func WithAllowOther(allow bool) Option {
	return func(c *mountConfig) { c.allowOther = allow }
}

// Context is a single mounted procstat filesystem instance (spec.md 4.6).
// The zero value is not usable; construct one with Create.
type Context struct {
	// Debug mirrors fuse.MountOptions.Debug; Loop uses it to decide
	// whether to log lifecycle transitions.
	Debug bool

	tree       *tree.Tree
	server     *fuse.Server
	mountpoint string

	stopOnce   sync.Once
	unmountErr error
}

// retryableMountErrno reports whether err looks like a transient condition
// (a stale mountpoint still settling, or the kernel briefly out of fuse
// device slots) worth retrying rather than failing Create outright.
func retryableMountErrno(err error) bool {
	return errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EAGAIN)
}

// Create makes mountpoint if it doesn't exist, mounts an empty procstat
// filesystem there, and returns its context. Transient mount failures are
// retried with exponential backoff (spec.md 4.6: "fail with the errno
// reported by the underlying mount/session" only once retries are
// exhausted).
func Create(mountpoint string, opts ...Option) (*Context, error) {
	cfg := mountConfig{fsName: "procstat"}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := os.MkdirAll(mountpoint, 0755); err != nil {
		return nil, fmt.Errorf("procstat: create mountpoint %s: %w", mountpoint, err)
	}

	t := tree.New()
	adapter := fsadapter.New(t)

	mountOpts := &fuse.MountOptions{
		Debug:      cfg.debug,
		FsName:     cfg.fsName,
		Name:       "procstat",
		AllowOther: cfg.allowOther,
	}

	b := &backoff.Backoff{Min: 10 * time.Millisecond, Max: 500 * time.Millisecond, Factor: 2, Jitter: true}
	const maxAttempts = 5

	var server *fuse.Server
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		server, err = fuse.NewServer(adapter, mountpoint, mountOpts)
		if err == nil {
			break
		}
		if !retryableMountErrno(err) {
			return nil, fmt.Errorf("procstat: mount %s: %w", mountpoint, err)
		}
		time.Sleep(b.Duration())
	}
	if err != nil {
		return nil, fmt.Errorf("procstat: mount %s after %d attempts: %w", mountpoint, maxAttempts, err)
	}

	return &Context{
		Debug:      cfg.debug,
		tree:       t,
		server:     server,
		mountpoint: mountpoint,
	}, nil
}

// Mount blocks until the kernel confirms the mount is live. Callers that
// spawn Loop in a goroutine should call Mount afterwards before touching
// the mountpoint from another process.
func (c *Context) Mount() error {
	return c.server.WaitMount()
}

// Loop services filesystem requests until Stop is called. It is intended
// to be called exactly once, from a dedicated goroutine (spec.md 4.6).
func (c *Context) Loop() {
	if c.Debug {
		log.Printf("procstat: serving %s", c.mountpoint)
	}
	c.server.Serve()
	if c.Debug {
		log.Printf("procstat: stopped serving %s", c.mountpoint)
	}
}

// Stop signals Loop to return. Unmounting alone is sometimes not enough to
// wake a blocked request loop, so Stop also nudges the mount with a no-op
// stat of its root directory (spec.md 4.6: "stop must also generate
// activity against the mount"). Safe to call more than once; the first
// call's Unmount error is retained so Destroy can fold it into its own
// teardown error instead of losing it.
func (c *Context) Stop() {
	c.stopOnce.Do(func() {
		c.unmountErr = c.server.Unmount()
		go func() {
			fi, _ := os.Stat(c.mountpoint)
			_ = fi
		}()
	})
}

// Destroy stops the loop, unmounts, tears down every child of the root,
// and frees ctx. After Destroy, *ctx is set to nil in place, so a caller
// that accidentally keeps using the old value will crash instead of
// silently operating on a torn-down context (spec.md 4.6).
func Destroy(ctx **Context) error {
	c := *ctx
	if c == nil {
		return nil
	}

	c.Stop()

	err := c.unmountErr
	errcapture.Do(&err, func() error {
		return c.tree.Remove(c.tree.Root())
	}, "teardown root")

	*ctx = nil
	return err
}
