package process

// Notes:
// - KillProcessGroup is only called with an invalid PID: PID 0 would kill the
//   test's own process group and real PIDs could target unrelated processes.
// - Command/ExitStatus tests use the Go toolchain's own test binary via
//   os.Args[0] with a helper env var, so no shell is required.

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"
)

const helperEnv = "MD2SLIDES_PROCESS_HELPER"

// TestMain doubles as a helper process: when helperEnv is set the binary
// exits with that status (or sleeps for "sleep") instead of running tests.
func TestMain(m *testing.M) {
	switch v := os.Getenv(helperEnv); v {
	case "":
		os.Exit(m.Run())
	case "sleep":
		time.Sleep(time.Minute)
		os.Exit(0)
	default:
		code, _ := strconv.Atoi(v)
		os.Exit(code)
	}
}

func helper(ctx context.Context, mode string) *exec.Cmd {
	cmd := Command(ctx, os.Args[0])
	cmd.Env = append(os.Environ(), helperEnv+"="+mode)
	return cmd
}

// ---------------------------------------------------------------------------
// TestKillProcessGroup - Invalid PID Handling
// ---------------------------------------------------------------------------

func TestKillProcessGroup_InvalidPID(t *testing.T) {
	t.Parallel()

	KillProcessGroup(999999999)
}

// ---------------------------------------------------------------------------
// TestExitStatus - Status extraction
// ---------------------------------------------------------------------------

func TestExitStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mode string
		want int
	}{
		{name: "success", mode: "0", want: 0},
		{name: "failure", mode: "3", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			status, err := ExitStatus(ctx, helper(ctx, tt.mode).Run())
			if err != nil {
				t.Fatalf("ExitStatus unexpected error: %v", err)
			}
			if status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}
}

func TestExitStatus_StartFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := ExitStatus(ctx, Command(ctx, "/nonexistent/tool").Run())
	if err == nil {
		t.Error("expected start error")
	}
}

func TestCommand_CancelKillsProcess(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := ExitStatus(ctx, helper(ctx, "sleep").Run())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ExitStatus error = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Second {
		t.Errorf("command not killed promptly: %v", elapsed)
	}
}
