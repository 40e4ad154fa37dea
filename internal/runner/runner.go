// Package runner launches a child transfer process, supervises it with
// cooperative cancellation, and reports whether it exited cleanly. The
// supervision loop polls the cancellation signal on a 100ms tick; on
// cancellation it sends a graceful termination signal and escalates to a
// hard kill after a 3s grace period.
package runner

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/dougbenjamin/pilot3/internal/log"
)

// Result is what the runner reports back about a single invocation.
type Result struct {
	Success  bool
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	// HasExitCode is false when the child never ran at all (spawn failure).
	HasExitCode bool
}

// Options configures the runner's cooperative-cancellation timing. Zero
// values fall back to the defaults (100ms tick, 3s grace).
type Options struct {
	Tick        time.Duration
	GracePeriod time.Duration

	// Stdin, when set, is piped to the child's standard input — used by the
	// external communicator plugin transport to deliver a request envelope.
	Stdin io.Reader
}

func (o Options) withDefaults() Options {
	if o.Tick <= 0 {
		o.Tick = 100 * time.Millisecond
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 3 * time.Second
	}
	return o
}

// Run launches argv[0] with argv[1:] as arguments, cwd as its working
// directory, with pipes for stdout/stderr. It supervises the child by
// checking, every Tick, whether ctx has been cancelled; on cancellation it
// sends a graceful termination signal to the child's process group, waits
// up to GracePeriod for the child to exit, then sends an unconditional kill
// to the group.
func Run(ctx context.Context, argv []string, cwd string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	logger := log.WithComponent("runner")

	if len(argv) == 0 {
		return Result{}, errEmptyArgv
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = cwd
	// Own process group, so termination reaches any descendants that would
	// otherwise keep the output pipes open.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		logger.Error("failed to spawn child", "argv", argv, "error", err)
		return Result{Success: false}, nil
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	ticker := time.NewTicker(opts.Tick)
	defer ticker.Stop()

supervise:
	for {
		select {
		case err := <-waitErr:
			return finish(cmd, stdout.Bytes(), stderr.Bytes(), err), nil
		case <-ticker.C:
			select {
			case <-ctx.Done():
				break supervise
			default:
			}
		}
	}

	return terminate(cmd, waitErr, stdout.Bytes(), stderr.Bytes(), opts.GracePeriod, logger), nil
}

// terminate runs the escalation sequence: graceful signal, 3s grace, hard kill.
func terminate(cmd *exec.Cmd, waitErr chan error, stdout, stderr []byte, grace time.Duration, logger interface {
	Warn(string, ...any)
}) Result {
	if cmd.Process != nil {
		_ = syscall.Kill(-cmd.Process.Pid, terminationSignal)
	}

	graceTimer := time.NewTimer(grace)
	defer graceTimer.Stop()

	select {
	case err := <-waitErr:
		return finish(cmd, stdout, stderr, err)
	case <-graceTimer.C:
		logger.Warn("child did not exit within grace period, sending kill")
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		err := <-waitErr
		return finish(cmd, stdout, stderr, err)
	}
}

func finish(cmd *exec.Cmd, stdout, stderr []byte, waitErr error) Result {
	res := Result{Stdout: stdout, Stderr: stderr}

	if waitErr == nil {
		res.Success = true
		res.ExitCode = 0
		res.HasExitCode = true
		return res
	}

	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
		res.HasExitCode = true
		res.Success = res.ExitCode == 0
		return res
	}

	// The child was killed by us or failed in some other way we didn't
	// expect an exit code from.
	res.Success = false
	return res
}
