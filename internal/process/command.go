// Package process runs external tools (compilers, interpreters, compiled
// snippets) in their own process group so cancellation reaches every child.
package process

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// WaitDelay bounds how long Wait blocks on output pipes after the process
// group was killed.
const WaitDelay = 2 * time.Second

// FailureStatus is reported for processes that ended without an exit code,
// e.g. killed by a signal.
const FailureStatus = 1

// Command returns an exec.Cmd bound to ctx. On cancellation the whole
// process group is killed instead of only the direct child.
func Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- tool paths come from toolchain discovery
	SetProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			KillProcessGroup(cmd.Process.Pid)
		}
		return nil
	}
	cmd.WaitDelay = WaitDelay
	return cmd
}

// ExitStatus converts the error of cmd.Run into an exit status.
// A non-zero exit is a status, not an error; err is non-nil only when the
// command could not be started or ctx ended first.
func ExitStatus(ctx context.Context, runErr error) (int, error) {
	if runErr == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code, nil
		}
		return FailureStatus, nil
	}
	return 0, runErr
}
