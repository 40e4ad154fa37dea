package transfer

import (
	"context"
	"time"

	"github.com/dougbenjamin/pilot3/internal/config"
	"github.com/dougbenjamin/pilot3/internal/events"
	"github.com/dougbenjamin/pilot3/internal/job"
	"github.com/dougbenjamin/pilot3/internal/log"
	"github.com/dougbenjamin/pilot3/internal/queues"
)

// StateReporter is the external state-reporting collaborator: synchronous,
// best-effort. Consumed, not implemented, by this core; failure is
// swallowed by the caller.
type StateReporter interface {
	SendState(j *job.Record, state job.Status)
}

// NoopStateReporter discards every report. Used when no collaborator is
// wired in (e.g. tests, or a deployment that reports state some other way).
type NoopStateReporter struct{}

func (NoopStateReporter) SendState(*job.Record, job.Status) {}

// stageInDownload invokes the copytool with the download argument vector
// for j's declared inputs, cwd = j.WorkDir.
func stageInDownload(ctx context.Context, cfg *config.Config, j *job.Record) bool {
	logger := log.WithJob(jobLogKey(j))

	SetRucioLoggingFormat()

	res, err := invoke(ctx, DownloadArgv(cfg.Copytool.DownloadPath, j.Input), j.WorkDir, cfg, logger)
	if err != nil {
		logger.Error("stage-in invocation error", "error", err)
		return false
	}
	return res.Success
}

// StageInWorker drains queues.DataIn and routes each job to
// FinishedDataIn/FailedDataIn. Run is a blocking call that returns when
// ctx is cancelled.
type StageInWorker struct {
	Queues   *queues.Bundle
	Config   *config.Config
	Reporter StateReporter
	Events   *events.Hub
}

// Run loops dequeuing queues.DataIn with a 1-second timeout until ctx is
// cancelled; an empty dequeue is benign and the loop continues.
func (w *StageInWorker) Run(ctx context.Context) {
	logger := log.WithComponent("stage_in_worker")
	logger.Info("stage-in worker started")
	defer logger.Info("stage-in worker stopped")

	reporter := w.Reporter
	if reporter == nil {
		reporter = NoopStateReporter{}
	}

	for {
		if ctx.Err() != nil {
			return
		}

		j, ok := w.Queues.DataIn.DequeueContext(ctx, 1*time.Second)
		if !ok {
			continue
		}

		jlog := log.WithJob(jobLogKey(j))
		reporter.SendState(j, job.StatusRunning)
		j.MarkRunning()

		if stageInDownload(ctx, w.Config, j) {
			jlog.Info("stage-in finished")
			w.publish(events.TypeJobStagedIn, j)
			w.Queues.FinishedDataIn.Enqueue(j)
			continue
		}

		jlog.Warn("stage-in failed, routing to failed_data_in")
		j.MarkFailed("stage_in_failed", "copytool download invocation failed")
		w.publish(events.TypeJobStageInFailed, j)
		w.Queues.FailedDataIn.Enqueue(j)
	}
}

func (w *StageInWorker) publish(eventType string, j *job.Record) {
	if w.Events == nil {
		return
	}
	w.Events.Publish(eventType, map[string]any{"panda_id": j.PandaID})
}

// jobLogKey formats a job's identity for log correlation.
func jobLogKey(j *job.Record) string {
	if j == nil {
		return ""
	}
	return job.FormatPandaID(j.PandaID)
}
