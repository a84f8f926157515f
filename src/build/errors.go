package build

import "fmt"

// CompileError reports a non-zero compiler exit.
type CompileError struct {
	Target   string
	ExitCode int
	Stderr   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile of %s failed with exit code %d: %s", e.Target, e.ExitCode, e.Stderr)
}

// LinkError reports a non-zero linker exit.
type LinkError struct {
	Target   string
	ExitCode int
	Stderr   string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link of %s failed with exit code %d: %s", e.Target, e.ExitCode, e.Stderr)
}

// CacheWriteError describes a cache directory that could not be written
// to. The Executor does not return it: when the cache directory is not
// writable, cachedBuild logs a warning and falls back to directBuild.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache directory %s not writable: %s", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// CopyError records a failed copyFiles copy; the Executor warns and
// continues rather than aborting the build.
type CopyError struct {
	Src, Dst string
	Err      error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("failed to copy %s to %s: %s", e.Src, e.Dst, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// CommandError reports a non-zero exit from a user pre/post command, which
// aborts the build.
type CommandError struct {
	Command  string
	ExitCode int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
}
