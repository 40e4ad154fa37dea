package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dougbenjamin/pilot3/internal/config"
	"github.com/dougbenjamin/pilot3/internal/events"
	"github.com/dougbenjamin/pilot3/internal/job"
	"github.com/dougbenjamin/pilot3/internal/log"
	"github.com/dougbenjamin/pilot3/internal/queues"
)

// outputDescriptor is one entry of the transfer set the driver builds
// before staging out.
type outputDescriptor struct {
	Scope    string
	Name     string
	UniqueID string
	ByteSize int64
}

func summaryKey(scope, name string) string {
	return fmt.Sprintf("%s:%s", scope, name)
}

// buildTransferSet assembles the descriptors to stage out: the log alone in
// StageOutLog mode, or every per-output descriptor from j.Report plus the
// log in StageOutAll mode. A missing report degrades to log-only with a
// warning.
func buildTransferSet(j *job.Record, denyList []string, logger interface{ Warn(string, ...any) }) ([]outputDescriptor, LogDescriptor, error) {
	tarballName := fmt.Sprintf("tarball_PandaJob_%d", j.PandaID)
	logDesc, err := PrepareLog(j, tarballName, denyList)
	if err != nil {
		return nil, LogDescriptor{}, fmt.Errorf("prepare log: %w", err)
	}

	if j.StageOut == job.StageOutLog {
		return nil, logDesc, nil
	}

	if j.Report == nil {
		logger.Warn("job has no job report (payload failed?) - will only stage-out log file")
		return nil, logDesc, nil
	}

	descriptors := make([]outputDescriptor, 0, len(j.Report.SubFiles))
	for name, sub := range j.Report.SubFiles {
		descriptors = append(descriptors, outputDescriptor{
			Scope:    j.Output.Scope,
			Name:     name,
			UniqueID: sub.GUID,
			ByteSize: sub.Bytes,
		})
	}
	return descriptors, logDesc, nil
}

// StageOutAll is the stage-out driver: it builds the transfer set, uploads
// every descriptor whose name is among j.Output.Files (the log always
// counts), parses each upload's summary artifact, and accumulates file
// info on j. It returns overall success; a single failed transfer does not
// abort the remaining ones in the pass (best-effort packaging), but the
// overall result is failure.
func StageOutAll(ctx context.Context, cfg *config.Config, j *job.Record) bool {
	logger := log.WithJob(jobLogKey(j))

	descriptors, logDesc, err := buildTransferSet(j, cfg.LogPackager.DenyList, logger)
	if err != nil {
		logger.Error("failed to build transfer set", "error", err)
		j.MarkFailed("stage_out_failed", err.Error())
		return false
	}

	if logDesc.Digest != "" {
		logger.Info("log tarball packaged", "name", logDesc.Name, "digest", logDesc.Digest, "bytes", logDesc.ByteSize)
	}

	// The log is always included.
	all := append(descriptors, outputDescriptor{
		Scope:    logDesc.Scope,
		Name:     logDesc.Name,
		UniqueID: logDesc.UniqueID,
		ByteSize: logDesc.ByteSize,
	})

	SetRucioLoggingFormat()

	failed := false
	for _, d := range all {
		if !j.HasOutFile(d.Name) {
			continue
		}

		argv := UploadArgv(cfg.Copytool.UploadPath, j.Output, d.UniqueID, d.Scope, d.Name)
		res, err := invoke(ctx, argv, j.WorkDir, cfg, logger)
		if err != nil || !res.Success {
			logger.Warn("upload failed", "name", d.Name, "error", err)
			failed = true
			continue
		}

		summary, err := readUploadSummary(j.WorkDir, d.Scope, d.Name)
		if err != nil {
			logger.Warn("missing or unreadable upload summary, treating as failure", "name", d.Name, "error", err)
			failed = true
			continue
		}

		j.SetFileInfo(d.Name, job.FileInfo{
			UniqueID:    d.UniqueID,
			ByteSize:    d.ByteSize,
			Checksum:    summary.Adler32,
			PhysicalURL: summary.PFN,
		})
	}

	if failed {
		j.MarkFailed("stage_out_failed", "one or more transfers failed during stage-out")
		logger.Warn("stage-out failed")
		return false
	}

	j.MarkFinished()
	logger.Info("stage-out finished correctly")
	return true
}

// summaryEntry is the pfn/adler32 pair extracted for one uploaded file.
type summaryEntry struct {
	PFN     string `json:"pfn"`
	Adler32 string `json:"adler32"`
}

// readUploadSummary reads <workdir>/rucio_upload.json and extracts the pfn
// and adler32 fields for scope:name. A missing summary file after a
// successful child exit is treated as a failure of that file.
func readUploadSummary(workdir, scope, name string) (summaryEntry, error) {
	path := filepath.Join(workdir, "rucio_upload.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return summaryEntry{}, fmt.Errorf("read %s: %w", path, err)
	}

	var summary map[string]summaryEntry
	if err := json.Unmarshal(data, &summary); err != nil {
		return summaryEntry{}, fmt.Errorf("parse %s: %w", path, err)
	}

	entry, ok := summary[summaryKey(scope, name)]
	if !ok {
		return summaryEntry{}, fmt.Errorf("no entry for %s in %s", summaryKey(scope, name), path)
	}

	return entry, nil
}

// StageOutWorker drains queues.DataOut, invokes StageOutAll, and routes the
// job to FinishedDataOut/FailedDataOut.
type StageOutWorker struct {
	Queues *queues.Bundle
	Config *config.Config
	Events *events.Hub
}

// Run loops dequeuing queues.DataOut with a 1-second timeout until ctx is
// cancelled.
func (w *StageOutWorker) Run(ctx context.Context) {
	logger := log.WithComponent("stage_out_worker")
	logger.Info("stage-out worker started")
	defer logger.Info("stage-out worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}

		j, ok := w.Queues.DataOut.DequeueContext(ctx, 1*time.Second)
		if !ok {
			continue
		}

		if StageOutAll(ctx, w.Config, j) {
			w.publish(events.TypeJobStagedOut, j)
			w.Queues.FinishedDataOut.Enqueue(j)
		} else {
			w.publish(events.TypeJobStageOutFailed, j)
			w.Queues.FailedDataOut.Enqueue(j)
		}
	}
}

func (w *StageOutWorker) publish(eventType string, j *job.Record) {
	if w.Events == nil {
		return
	}
	w.Events.Publish(eventType, map[string]any{"panda_id": j.PandaID})
}
