package bootstrap

import (
	"context"
	"errors"
	"fmt"
)

// Handlers are the three phases of a scoped detach. Nil handlers are
// skipped.
type Handlers struct {
	// Setup runs only in the pre-detach process.
	Setup func() error
	// Parent runs in the original process once the daemon is started.
	Parent func(childPID int) error
	// Child runs in the daemon. The PID file is released when it returns.
	Child func(ctx context.Context, b *Bootstrap) error
}

// Do detaches a daemon for pidFile with the platform detacher and runs
// the handlers for this process's role. See [Bootstrap.Run].
func Do(ctx context.Context, opts Options, pidFile string, h Handlers) (Role, error) {
	return New(opts).Run(ctx, pidFile, h)
}

// Run executes Setup (pre-detach only), Daemonize, and then exactly one
// of Parent or Child. Release runs on every exit path, including handler
// errors and panics, so the daemon never leaves its PID file behind.
func (b *Bootstrap) Run(ctx context.Context, pidFile string, h Handlers) (role Role, err error) {
	defer func() {
		rerr := b.Release()
		if p := recover(); p != nil {
			panic(p)
		}
		if rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	if b.Setup() && h.Setup != nil {
		if err := h.Setup(); err != nil {
			return Undecided, fmt.Errorf("setup: %w", err)
		}
	}

	role, err = b.Daemonize(pidFile)
	if err != nil {
		return role, err
	}

	switch role {
	case Parent:
		if h.Parent != nil {
			err = h.Parent(b.childPID)
		}
	case Child:
		if h.Child != nil {
			err = h.Child(ctx, b)
		}
	}
	return role, err
}
