//go:build windows

package bootstrap

import "os"

// unsupported refuses to detach. There is no session or flock handoff to
// build on.
type unsupported struct{}

func newDetacher() Detacher { return unsupported{} }

func (unsupported) WasReborn() bool                   { return false }
func (unsupported) Reborn(*Spec) (*os.Process, error) { return nil, ErrNotSupported }
func (unsupported) Release() error                    { return nil }
