// Package transfer drives the copytool subprocess invocations that move job
// input and output files between the job working directory and remote
// storage. It holds the stage-in and stage-out workers, the log tarball
// packager, and the stage-out driver that parses the copytool's transfer
// summary.
package transfer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dougbenjamin/pilot3/internal/config"
	"github.com/dougbenjamin/pilot3/internal/job"
	"github.com/dougbenjamin/pilot3/internal/runner"
)

// rucioLoggingFormat is set in the copytool's environment before every
// invocation. It is a process-wide side effect, acceptable because copytool
// invocations never overlap for a given job.
const rucioLoggingFormat = "%(asctime)s %(levelname)s [%(message)s]"

// DownloadArgv builds the download invocation's argument vector:
// order-significant, one call per job covering every input file at once.
func DownloadArgv(copytoolPath string, in job.Input) []string {
	return []string{
		"env", copytoolPath, "-v", "download",
		"--no-subdir",
		"--rse", in.Endpoint,
		fmt.Sprintf("%s:%s", in.Scope, strings.Join(in.Files, ",")),
	}
}

// UploadArgv builds a single output's upload invocation: one call per
// output file (and the log), using the first destination endpoint as
// authoritative.
func UploadArgv(copytoolPath string, out job.Output, guid, scope, name string) []string {
	return []string{
		"env", copytoolPath, "-v", "upload",
		"--summary", "--no-register",
		"--guid", guid,
		"--rse", out.FirstEndpoint(),
		"--scope", scope,
		name,
	}
}

// RunnerOptions narrows config into the timing Options the subprocess
// runner needs, keeping the copytool invocation helpers free of config
// coupling beyond what they read once at call time. Exported so
// internal/autotransfer's per-file invocation convention can share the
// same runner timing as the pipelined workers.
func RunnerOptions(cfg *config.Config) runner.Options {
	return runner.Options{
		Tick:        cfg.Service.RunnerTick,
		GracePeriod: cfg.Service.RunnerGracePeriod,
	}
}

// SetRucioLoggingFormat sets the copytool's stderr log format in the
// process environment so downstream stderr parsing sees a stable shape.
// Shared by the pipelined workers and the batch-mode auto stage-in/out
// callers.
func SetRucioLoggingFormat() {
	os.Setenv("RUCIO_LOGGING_FORMAT", rucioLoggingFormat)
}

// Invoke runs argv in cwd via the subprocess runner, logging the outcome.
// It is the shared tail of download/upload invocation, both of which only
// differ in argv construction; exported for internal/autotransfer's
// per-file invocation convention.
func Invoke(ctx context.Context, argv []string, cwd string, cfg *config.Config, logger interface {
	Info(string, ...any)
	Warn(string, ...any)
}) (runner.Result, error) {
	res, err := runner.Run(ctx, argv, cwd, RunnerOptions(cfg))
	if err != nil {
		return res, err
	}
	if !res.Success {
		logger.Warn("copytool invocation failed", "argv", argv, "exit_code", res.ExitCode, "has_exit_code", res.HasExitCode)
	}
	return res, nil
}

// invoke is the package-local alias used by stagein.go/stageout.go.
func invoke(ctx context.Context, argv []string, cwd string, cfg *config.Config, logger interface {
	Info(string, ...any)
	Warn(string, ...any)
}) (runner.Result, error) {
	return Invoke(ctx, argv, cwd, cfg, logger)
}
