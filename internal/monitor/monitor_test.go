package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dougbenjamin/pilot3/internal/config"
	"github.com/dougbenjamin/pilot3/internal/events"
	"github.com/dougbenjamin/pilot3/internal/job"
	"github.com/dougbenjamin/pilot3/internal/queues"
)

// writeFakeUploadScript writes an executable shell script at path that, when
// run by the copytool invocation helper, writes a rucio_upload.json summary
// for scope:name into its working directory and exits 0.
func writeFakeUploadScript(t *testing.T, path, scope, name string) {
	t.Helper()
	script := fmt.Sprintf(`#!/bin/sh
cat > rucio_upload.json <<'EOF'
{"%s:%s": {"pfn": "https://example.org/rse/%s", "adler32": "deadbeef"}}
EOF
exit 0
`, scope, name, name)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
}

func writeFailingScript(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 1\n"), 0o755))
}

func newTestConfig(uploadPath string) *config.Config {
	cfg := config.Defaults()
	cfg.Copytool.UploadPath = uploadPath
	return cfg
}

func newFailedStageInJob(t *testing.T, pandaID int64) *job.Record {
	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "payload.log"), []byte("hello"), 0o600))

	j := job.New(pandaID, "task-1", "jobset-1", workDir)
	j.Output = job.Output{
		LogFile:  "log.tgz",
		LogScope: "mc16_13TeV",
		LogGUID:  "11111111-1111-1111-1111-111111111111",
	}
	j.MarkFailed("stage_in_failed", "copytool download invocation failed")
	return j
}

func TestMonitorFailedDataInRecoversLogStageOut(t *testing.T) {
	uploadPath := filepath.Join(t.TempDir(), "upload.sh")
	j := newFailedStageInJob(t, 101)
	writeFakeUploadScript(t, uploadPath, j.Output.LogScope, j.Output.LogFile)

	m := &Monitor{
		Queues: queues.NewBundle(),
		Config: newTestConfig(uploadPath),
		Events: events.NewHub(16),
	}
	m.Queues.FailedDataIn.Enqueue(j)

	m.monitorFailedDataIn(context.Background())

	recovered, ok := m.Queues.FailedJobs.TryDequeue()
	require.True(t, ok, "job should land on failed_jobs after a successful log-only stage-out")
	require.Equal(t, j, recovered)
	require.Equal(t, job.StatusFailed, recovered.Status, "the stage-in failure is terminal; a recovered log does not resurrect the job")

	_, stillFailedDataOut := m.Queues.FailedDataOut.TryDequeue()
	require.False(t, stillFailedDataOut)
}

func TestMonitorFailedDataInRoutesToFailedDataOutWhenLogStageOutFails(t *testing.T) {
	uploadPath := filepath.Join(t.TempDir(), "upload.sh")
	j := newFailedStageInJob(t, 102)
	writeFailingScript(t, uploadPath)

	m := &Monitor{
		Queues: queues.NewBundle(),
		Config: newTestConfig(uploadPath),
		Events: events.NewHub(16),
	}
	m.Queues.FailedDataIn.Enqueue(j)

	m.monitorFailedDataIn(context.Background())

	_, onFailedJobs := m.Queues.FailedJobs.TryDequeue()
	require.False(t, onFailedJobs)

	routed, ok := m.Queues.FailedDataOut.TryDequeue()
	require.True(t, ok, "a failed log-only stage-out routes to failed_data_out")
	require.Equal(t, j, routed)
}

func TestMonitorFinishedDataOutClassifiesByExitCodes(t *testing.T) {
	cases := []struct {
		name          string
		exitCode      int
		transExitCode int
		wantFinished  bool
	}{
		{"both zero is success", 0, 0, true},
		{"payload exit nonzero is failure", 1, 0, false},
		{"trans exit nonzero is failure", 0, 1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &Monitor{Queues: queues.NewBundle(), Config: config.Defaults()}
			j := job.New(200, "task-1", "jobset-1", t.TempDir())
			j.ExitCode = tc.exitCode
			j.TransExitCode = tc.transExitCode
			m.Queues.FinishedDataOut.Enqueue(j)

			m.monitorFinishedDataOut()

			if tc.wantFinished {
				got, ok := m.Queues.FinishedJobs.TryDequeue()
				require.True(t, ok)
				require.Equal(t, j, got)
				_, onFailed := m.Queues.FailedJobs.TryDequeue()
				require.False(t, onFailed)
			} else {
				got, ok := m.Queues.FailedJobs.TryDequeue()
				require.True(t, ok)
				require.Equal(t, j, got)
				_, onFinished := m.Queues.FinishedJobs.TryDequeue()
				require.False(t, onFinished)
			}
		})
	}
}

func TestMonitorFailedDataOutRoutesStraightToFailedJobs(t *testing.T) {
	m := &Monitor{Queues: queues.NewBundle(), Config: config.Defaults()}
	j := job.New(300, "task-1", "jobset-1", t.TempDir())
	m.Queues.FailedDataOut.Enqueue(j)

	m.monitorFailedDataOut()

	got, ok := m.Queues.FailedJobs.TryDequeue()
	require.True(t, ok)
	require.Equal(t, j, got)
}

func TestMonitorRunStopsOnContextCancellation(t *testing.T) {
	m := &Monitor{Queues: queues.NewBundle(), Config: config.Defaults()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly after context cancellation")
	}
}
