// Package monitor implements the queue monitor: it drives job transitions
// between the pipeline's terminal queues, retries a log-only stage-out on
// stage-in failure, and classifies a job's final outcome by its payload
// exit codes once stage-out has finished.
package monitor

import (
	"context"
	"time"

	"github.com/dougbenjamin/pilot3/internal/config"
	"github.com/dougbenjamin/pilot3/internal/events"
	"github.com/dougbenjamin/pilot3/internal/job"
	"github.com/dougbenjamin/pilot3/internal/log"
	"github.com/dougbenjamin/pilot3/internal/queues"
	"github.com/dougbenjamin/pilot3/internal/transfer"
)

// Monitor services failed_data_in, finished_data_out, and failed_data_out
// once per pass on a 1-second cadence.
type Monitor struct {
	Queues *queues.Bundle
	Config *config.Config
	Events *events.Hub
}

// Run executes the monitor's loop until ctx is cancelled. It waits 1s on
// the cancellation signal first each pass, exiting before any queue read
// if triggered.
func (m *Monitor) Run(ctx context.Context) {
	logger := log.WithComponent("queue_monitor")
	logger.Info("queue monitor started")
	defer logger.Info("queue monitor stopped")

	timer := time.NewTimer(1 * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		timer.Reset(1 * time.Second)

		if ctx.Err() != nil {
			return
		}

		m.monitorFailedDataIn(ctx)
		m.monitorFinishedDataOut()
		m.monitorFailedDataOut()
	}
}

// monitorFailedDataIn attempts a log-only stage-out recovery for jobs that
// failed stage-in.
func (m *Monitor) monitorFailedDataIn(ctx context.Context) {
	j, ok := m.Queues.FailedDataIn.DequeueContext(ctx, 1*time.Second)
	if !ok {
		return
	}

	jlog := log.WithJob(logKey(j))
	log.WithQueue("failed_data_in").Debug("dequeued job for log-only stage-out recovery", "job_id", logKey(j))
	j.StageOut = job.StageOutLog

	if transfer.StageOutAll(ctx, m.Config, j) {
		jlog.Info("job failed during stage-in, log staged out, routing to failed_jobs")
		m.publish(events.TypeJobFailed, j)
		m.Queues.FailedJobs.Enqueue(j)
		return
	}

	jlog.Info("job failed during stage-in and log stage-out, routing to failed_data_out")
	m.Queues.FailedDataOut.Enqueue(j)
}

// monitorFinishedDataOut classifies a completed stage-out by the job's
// payload exit codes.
func (m *Monitor) monitorFinishedDataOut() {
	j, ok := m.Queues.FinishedDataOut.Dequeue(1 * time.Second)
	if !ok {
		return
	}

	jlog := log.WithJob(logKey(j))

	if j.ExitCode == 0 && j.TransExitCode == 0 {
		jlog.Info("finished stage-out for finished payload, routing to finished_jobs")
		m.publish(events.TypeJobFinished, j)
		m.Queues.FinishedJobs.Enqueue(j)
		return
	}

	jlog.Info("finished stage-out for failed payload, routing to failed_jobs")
	m.publish(events.TypeJobFailed, j)
	m.Queues.FailedJobs.Enqueue(j)
}

// monitorFailedDataOut routes a job that failed stage-out straight to
// failed_jobs.
func (m *Monitor) monitorFailedDataOut() {
	j, ok := m.Queues.FailedDataOut.Dequeue(1 * time.Second)
	if !ok {
		return
	}

	log.WithJob(logKey(j)).Info("job failed during stage-out, routing to failed_jobs")
	m.publish(events.TypeJobFailed, j)
	m.Queues.FailedJobs.Enqueue(j)
}

func (m *Monitor) publish(eventType string, j *job.Record) {
	if m.Events == nil {
		return
	}
	m.Events.Publish(eventType, map[string]any{"panda_id": j.PandaID})
}

func logKey(j *job.Record) string {
	if j == nil {
		return ""
	}
	return job.FormatPandaID(j.PandaID)
}
