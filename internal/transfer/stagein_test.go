package transfer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dougbenjamin/pilot3/internal/config"
	"github.com/dougbenjamin/pilot3/internal/events"
	"github.com/dougbenjamin/pilot3/internal/job"
	"github.com/dougbenjamin/pilot3/internal/queues"
)

func writeFakeScript(t *testing.T, path string, exitCode int) {
	t.Helper()
	content := "#!/bin/sh\nexit 0\n"
	if exitCode != 0 {
		content = "#!/bin/sh\nexit 1\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}

func newStageInJob(t *testing.T, pandaID int64) *job.Record {
	workDir := t.TempDir()
	j := job.New(pandaID, "task-1", "jobset-1", workDir)
	j.Input = job.Input{Scope: "mc16_13TeV", Endpoint: "RSE1", Files: []string{"input1.root"}}
	return j
}

type recordingReporter struct {
	mu     sync.Mutex
	states []job.Status
}

func (r *recordingReporter) SendState(_ *job.Record, state job.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingReporter) recorded() []job.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]job.Status, len(r.states))
	copy(out, r.states)
	return out
}

func TestStageInDownloadSuccess(t *testing.T) {
	downloadPath := filepath.Join(t.TempDir(), "download.sh")
	writeFakeScript(t, downloadPath, 0)

	cfg := config.Defaults()
	cfg.Copytool.DownloadPath = downloadPath

	j := newStageInJob(t, 101)
	require.True(t, stageInDownload(context.Background(), cfg, j))
}

func TestStageInDownloadFailure(t *testing.T) {
	downloadPath := filepath.Join(t.TempDir(), "download.sh")
	writeFakeScript(t, downloadPath, 1)

	cfg := config.Defaults()
	cfg.Copytool.DownloadPath = downloadPath

	j := newStageInJob(t, 102)
	require.False(t, stageInDownload(context.Background(), cfg, j))
}

func TestStageInWorkerRoutesSuccessfulJobToFinishedDataIn(t *testing.T) {
	downloadPath := filepath.Join(t.TempDir(), "download.sh")
	writeFakeScript(t, downloadPath, 0)
	cfg := config.Defaults()
	cfg.Copytool.DownloadPath = downloadPath

	reporter := &recordingReporter{}
	w := &StageInWorker{
		Queues:   queues.NewBundle(),
		Config:   cfg,
		Reporter: reporter,
		Events:   events.NewHub(16),
	}

	j := newStageInJob(t, 201)
	w.Queues.DataIn.Enqueue(j)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := w.Queues.FinishedDataIn.TryDequeue()
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	require.Equal(t, job.StatusRunning, j.Status)
	require.Contains(t, reporter.recorded(), job.StatusRunning)

	cancel()
	<-done
}

func TestStageInWorkerRoutesFailedJobToFailedDataIn(t *testing.T) {
	downloadPath := filepath.Join(t.TempDir(), "download.sh")
	writeFakeScript(t, downloadPath, 1)
	cfg := config.Defaults()
	cfg.Copytool.DownloadPath = downloadPath

	w := &StageInWorker{
		Queues: queues.NewBundle(),
		Config: cfg,
	}

	j := newStageInJob(t, 202)
	w.Queues.DataIn.Enqueue(j)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	var failed *job.Record
	require.Eventually(t, func() bool {
		v, ok := w.Queues.FailedDataIn.TryDequeue()
		if ok {
			failed = v
		}
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	require.Equal(t, job.StatusFailed, failed.Status)
	require.Contains(t, failed.ErrorCodes, "stage_in_failed")

	cancel()
	<-done
}
