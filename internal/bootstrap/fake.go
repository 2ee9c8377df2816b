package bootstrap

import "os"

// FakeDetacher is an in-memory [Detacher] for testing. It records every
// call (spy) and plays either side of the detach (fake).
type FakeDetacher struct {
	// IsChild makes the fake behave as the re-executed child.
	IsChild bool
	// Received is the Spec handed to the child when IsChild is set.
	Received Spec
	// ChildPID is the PID reported to the parent.
	ChildPID int

	RebornErr  error
	ReleaseErr error

	Calls []string // "WasReborn", "Reborn", "Release"
	Sent  []Spec   // specs passed to Reborn by the parent
}

// WasReborn reports IsChild.
func (f *FakeDetacher) WasReborn() bool {
	f.Calls = append(f.Calls, "WasReborn")
	return f.IsChild
}

// Reborn records s, then returns a process for ChildPID in the parent or
// delivers Received in the child.
func (f *FakeDetacher) Reborn(s *Spec) (*os.Process, error) {
	f.Calls = append(f.Calls, "Reborn")
	if f.RebornErr != nil {
		return nil, f.RebornErr
	}
	if f.IsChild {
		*s = f.Received
		return nil, nil
	}
	f.Sent = append(f.Sent, *s)
	return &os.Process{Pid: f.ChildPID}, nil
}

// Release records the call and returns ReleaseErr.
func (f *FakeDetacher) Release() error {
	f.Calls = append(f.Calls, "Release")
	return f.ReleaseErr
}

// Count returns how many times method was called.
func (f *FakeDetacher) Count(method string) int {
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

var _ Detacher = (*FakeDetacher)(nil)
