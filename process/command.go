package process

import (
	"os"
	"os/exec"
	"syscall"
)

// configure applies the shared options to c. Every child leads its own
// process group so signals reach the whole tree.
func configure(c *exec.Cmd, opts Options) {
	c.Dir = opts.Dir
	c.Env = mergeEnv(opts.Env)
	c.SysProcAttr = sysProcAttr(opts)
}

func sysProcAttr(opts Options) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{Setpgid: true}
	if opts.UID != nil || opts.GID != nil {
		cred := &syscall.Credential{
			Uid:         uint32(os.Getuid()), //nolint:gosec // uid fits in uint32 on unix
			Gid:         uint32(os.Getgid()), //nolint:gosec // gid fits in uint32 on unix
			NoSetGroups: true,
		}
		if opts.UID != nil {
			cred.Uid = *opts.UID
		}
		if opts.GID != nil {
			cred.Gid = *opts.GID
		}
		attr.Credential = cred
	}
	return attr
}

// mergeEnv merges additional env vars with the current environment.
// Later entries win, so extra overrides inherited keys.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	env := os.Environ()
	return append(env, extra...)
}
