package build

import (
	"os/exec"
)

// runShell spawns command through the platform's shell with the given
// working directory and environment, returning its exit code.
func (e *Executor) runShell(command, dir string, env []string) (int, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = env
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
