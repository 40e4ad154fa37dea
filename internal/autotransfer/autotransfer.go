// Package autotransfer implements the batch-mode auto stage-in/out calling
// convention: a per-file synchronous status vector, distinct from the
// queue-driven pipeline in internal/transfer. One copytool invocation per
// file (not batched like the pipeline's download call), a quick pre-check
// that short-circuits a file whose local path is already known bad, and
// stderr "Details:" line extraction on transfer failure. It shares the
// pipeline's copytool-invocation helpers rather than reimplementing
// subprocess supervision.
package autotransfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dougbenjamin/pilot3/internal/config"
	"github.com/dougbenjamin/pilot3/internal/job"
	"github.com/dougbenjamin/pilot3/internal/log"
	"github.com/dougbenjamin/pilot3/internal/runner"
	"github.com/dougbenjamin/pilot3/internal/transfer"
)

// Status is one of the batch-mode per-file outcomes.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Error classes: 0 success, 1 destination missing, 2 in-progress
// (transient, never observed in the final result slice this core returns
// since it runs every file to completion), 3 transfer error.
const (
	ErrnoSuccess            = 0
	ErrnoDestinationMissing = 1
	ErrnoInProgress         = 2
	ErrnoTransferError      = 3
)

// FileResult is the per-file outcome of a batch-mode invocation.
type FileResult struct {
	Name   string
	Status Status
	Errno  int
	Detail string
}

// AutoStageIn downloads every file named in job.Input.Files into
// job.WorkDir, one copytool invocation per file.
func AutoStageIn(ctx context.Context, cfg *config.Config, j *job.Record) []FileResult {
	logger := log.WithJob(job.FormatPandaID(j.PandaID))
	transfer.SetRucioLoggingFormat()

	results := make([]FileResult, len(j.Input.Files))
	for i, name := range j.Input.Files {
		results[i] = FileResult{Name: name, Status: StatusRunning, Errno: ErrnoInProgress}
	}

	if _, err := os.Stat(j.WorkDir); err != nil {
		for i := range results {
			results[i].Status = StatusFailed
			results[i].Errno = ErrnoDestinationMissing
			results[i].Detail = fmt.Sprintf("destination directory does not exist: %s", j.WorkDir)
		}
		return results
	}

	for i, name := range j.Input.Files {
		argv := []string{
			"env", cfg.Copytool.DownloadPath, "-v", "download",
			"--no-subdir",
			"--dir", j.WorkDir,
			fmt.Sprintf("%s:%s", j.Input.Scope, name),
		}

		res, err := transfer.Invoke(ctx, argv, j.WorkDir, cfg, logger)
		results[i] = classify(name, res, err)
	}

	return results
}

// AutoStageOut uploads every file named in job.Output.Files from
// job.WorkDir, one copytool invocation per file.
func AutoStageOut(ctx context.Context, cfg *config.Config, j *job.Record) []FileResult {
	logger := log.WithJob(job.FormatPandaID(j.PandaID))
	transfer.SetRucioLoggingFormat()

	results := make([]FileResult, len(j.Output.Files))
	for i, name := range j.Output.Files {
		results[i] = FileResult{Name: name, Status: StatusRunning, Errno: ErrnoInProgress}
	}

	for i, name := range j.Output.Files {
		source := filepath.Join(j.WorkDir, name)
		if _, err := os.Stat(source); err != nil {
			results[i].Status = StatusFailed
			results[i].Errno = ErrnoDestinationMissing
			results[i].Detail = fmt.Sprintf("source file does not exist: %s", source)
			continue
		}

		argv := []string{
			"env", cfg.Copytool.UploadPath, "-v", "upload",
			"--summary", "--no-register",
		}
		if guid := outputGUID(j, name); guid != "" {
			argv = append(argv, "--guid", guid)
		}
		argv = append(argv, "--rse", j.Output.FirstEndpoint(), "--scope", j.Output.Scope, name)

		res, err := transfer.Invoke(ctx, argv, j.WorkDir, cfg, logger)
		results[i] = classify(name, res, err)
	}

	return results
}

// outputGUID looks up the optional per-file GUID from the job report, if
// one was produced; batch-mode stage-out treats the report as optional.
func outputGUID(j *job.Record, name string) string {
	if j.Report == nil {
		return ""
	}
	sub, ok := j.Report.SubFiles[name]
	if !ok {
		return ""
	}
	return sub.GUID
}

// classify turns a completed runner.Result into a FileResult, extracting
// the rucio "Details:" line from stderr on failure.
func classify(name string, res runner.Result, err error) FileResult {
	if err != nil {
		return FileResult{Name: name, Status: StatusFailed, Errno: ErrnoTransferError, Detail: err.Error()}
	}
	if res.Success {
		return FileResult{Name: name, Status: StatusDone, Errno: ErrnoSuccess}
	}
	return FileResult{Name: name, Status: StatusFailed, Errno: ErrnoTransferError, Detail: extractDetail(res.Stderr)}
}

// extractDetail pulls the first stderr line beginning with "Details:", the
// prefix rucio uses for its exception detail messages.
func extractDetail(stderr []byte) string {
	for _, line := range strings.Split(string(stderr), "\n") {
		if strings.HasPrefix(line, "Details:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Details:"))
		}
	}
	return "could not find rucio error message details - please check stderr directly"
}
