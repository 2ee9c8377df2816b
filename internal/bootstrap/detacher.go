package bootstrap

import "os"

// Spec is the state carried from the parent to the child across the
// re-exec.
type Spec struct {
	PIDFile     string
	PIDFilePerm os.FileMode
	LogFile     string
	LogFilePerm os.FileMode
	WorkDir     string
	Umask       int
	Args        []string
	Env         []string
}

// Detacher is the OS-level detach mechanism.
//
// In the parent, Reborn starts the child from s and returns its process.
// In the child, Reborn returns a nil process and overwrites s with the
// Spec the parent sent.
type Detacher interface {
	WasReborn() bool
	Reborn(s *Spec) (*os.Process, error)
	Release() error
}
