//go:build !windows

package bootstrap

import (
	"errors"
	"fmt"
	"os"

	daemon "github.com/sevlyar/go-daemon"
)

// goDaemon detaches with github.com/sevlyar/go-daemon. The parent creates
// and flocks the PID file, passes it to the child as an inherited file
// and sends the context over the child's stdin.
type goDaemon struct {
	ctx *daemon.Context
}

func newDetacher() Detacher { return &goDaemon{} }

func (g *goDaemon) WasReborn() bool { return daemon.WasReborn() }

func (g *goDaemon) Reborn(s *Spec) (*os.Process, error) {
	g.ctx = &daemon.Context{
		PidFileName: s.PIDFile,
		PidFilePerm: s.PIDFilePerm,
		LogFileName: s.LogFile,
		LogFilePerm: s.LogFilePerm,
		WorkDir:     s.WorkDir,
		Umask:       s.Umask,
		Args:        s.Args,
		Env:         s.Env,
	}
	child, err := g.ctx.Reborn()
	if err != nil {
		if errors.Is(err, daemon.ErrWouldBlock) {
			return nil, fmt.Errorf("%s: %w: %w", s.PIDFile, ErrAlreadyRunning, err)
		}
		return nil, err
	}
	if child == nil {
		*s = Spec{
			PIDFile:     g.ctx.PidFileName,
			PIDFilePerm: g.ctx.PidFilePerm,
			LogFile:     g.ctx.LogFileName,
			LogFilePerm: g.ctx.LogFilePerm,
			WorkDir:     g.ctx.WorkDir,
			Umask:       g.ctx.Umask,
			Args:        g.ctx.Args,
			Env:         g.ctx.Env,
		}
	}
	return child, nil
}

func (g *goDaemon) Release() error {
	if g.ctx == nil {
		return nil
	}
	return g.ctx.Release()
}
