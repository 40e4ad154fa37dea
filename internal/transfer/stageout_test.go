package transfer

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

// writeMultiEntryUploadScript writes an upload fake that emits one
// rucio_upload.json covering every scope:name pair supplied, regardless of
// which descriptor triggered the particular invocation.
func writeMultiEntryUploadScript(t *testing.T, path string, entries map[string]struct{ PFN, Adler32 string }) {
	t.Helper()
	body := "{"
	first := true
	for key, v := range entries {
		if !first {
			body += ","
		}
		first = false
		body += fmt.Sprintf("%q: {\"pfn\": %q, \"adler32\": %q}", key, v.PFN, v.Adler32)
	}
	body += "}"

	script := fmt.Sprintf("#!/bin/sh\ncat > rucio_upload.json <<'EOF'\n%s\nEOF\nexit 0\n", body)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
}

func newStageOutJob(t *testing.T, pandaID int64) *job.Record {
	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "output1.root"), []byte("payload output"), 0o600))

	j := job.New(pandaID, "task-1", "jobset-1", workDir)
	j.Output = job.Output{
		Scope:     "mc16_13TeV",
		Endpoints: []string{"RSE2"},
		Files:     []string{"output1.root"},
		LogFile:   "log.tgz",
		LogScope:  "mc16_13TeV",
		LogGUID:   "33333333-3333-3333-3333-333333333333",
	}
	j.Report = &job.Report{
		SubFiles: map[string]job.SubFile{
			"output1.root": {Name: "output1.root", GUID: "44444444-4444-4444-4444-444444444444", Bytes: 1024},
		},
	}
	return j
}

func TestStageOutAllSuccess(t *testing.T) {
	uploadPath := filepath.Join(t.TempDir(), "upload.sh")
	j := newStageOutJob(t, 202)

	writeMultiEntryUploadScript(t, uploadPath, map[string]struct{ PFN, Adler32 string }{
		summaryKey(j.Output.Scope, "output1.root"):      {PFN: "https://example.org/rse/output1.root", Adler32: "aaaa1111"},
		summaryKey(j.Output.LogScope, j.Output.LogFile): {PFN: "https://example.org/rse/log.tgz", Adler32: "bbbb2222"},
	})

	cfg := config.Defaults()
	cfg.Copytool.UploadPath = uploadPath

	ok := StageOutAll(context.Background(), cfg, j)
	require.True(t, ok)
	require.Equal(t, job.StatusFinished, j.Status)

	outInfo, present := j.FileInfo["output1.root"]
	require.True(t, present)
	require.Equal(t, "aaaa1111", outInfo.Checksum)
	require.Equal(t, "https://example.org/rse/output1.root", outInfo.PhysicalURL)

	logInfo, present := j.FileInfo["log.tgz"]
	require.True(t, present)
	require.Equal(t, "bbbb2222", logInfo.Checksum)
}

func TestStageOutAllDegradesToLogOnlyWhenReportMissing(t *testing.T) {
	uploadPath := filepath.Join(t.TempDir(), "upload.sh")
	j := newStageOutJob(t, 203)
	j.Report = nil

	writeMultiEntryUploadScript(t, uploadPath, map[string]struct{ PFN, Adler32 string }{
		summaryKey(j.Output.LogScope, j.Output.LogFile): {PFN: "https://example.org/rse/log.tgz", Adler32: "cccc3333"},
	})

	cfg := config.Defaults()
	cfg.Copytool.UploadPath = uploadPath

	ok := StageOutAll(context.Background(), cfg, j)
	require.True(t, ok)
	_, outputUploaded := j.FileInfo["output1.root"]
	require.False(t, outputUploaded, "degraded log-only mode never attempts the output file upload")

	_, logUploaded := j.FileInfo["log.tgz"]
	require.True(t, logUploaded)
}

func TestStageOutAllStageOutLogModeOnlyUploadsLog(t *testing.T) {
	uploadPath := filepath.Join(t.TempDir(), "upload.sh")
	j := newStageOutJob(t, 204)
	j.StageOut = job.StageOutLog

	writeMultiEntryUploadScript(t, uploadPath, map[string]struct{ PFN, Adler32 string }{
		summaryKey(j.Output.LogScope, j.Output.LogFile): {PFN: "https://example.org/rse/log.tgz", Adler32: "dddd4444"},
	})

	cfg := config.Defaults()
	cfg.Copytool.UploadPath = uploadPath

	ok := StageOutAll(context.Background(), cfg, j)
	require.True(t, ok)
	_, outputUploaded := j.FileInfo["output1.root"]
	require.False(t, outputUploaded)
}

func TestStageOutAllFailsWhenUploadSummaryMissing(t *testing.T) {
	// The fake script exits 0 but never writes rucio_upload.json: the driver
	// must treat a missing summary after a clean exit as a failure.
	uploadPath := filepath.Join(t.TempDir(), "upload.sh")
	require.NoError(t, os.WriteFile(uploadPath, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	j := newStageOutJob(t, 205)
	cfg := config.Defaults()
	cfg.Copytool.UploadPath = uploadPath

	ok := StageOutAll(context.Background(), cfg, j)
	require.False(t, ok)
	require.Equal(t, job.StatusFailed, j.Status)
	require.Contains(t, j.ErrorCodes, "stage_out_failed")
}

func TestStageOutAllContinuesPastIndividualFailureButReportsOverallFailure(t *testing.T) {
	// The output upload fails, but the log upload (which always runs) still
	// succeeds and is recorded; overall StageOutAll still reports failure.
	uploadPath := filepath.Join(t.TempDir(), "upload.sh")
	j := newStageOutJob(t, 206)

	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
  *output1.root*)
    exit 1
    ;;
  *)
    cat > rucio_upload.json <<'EOF'
{%q: {"pfn": "https://example.org/rse/log.tgz", "adler32": "eeee5555"}}
EOF
    exit 0
    ;;
esac
`, summaryKey(j.Output.LogScope, j.Output.LogFile))
	require.NoError(t, os.WriteFile(uploadPath, []byte(script), 0o755))

	cfg := config.Defaults()
	cfg.Copytool.UploadPath = uploadPath

	ok := StageOutAll(context.Background(), cfg, j)
	require.False(t, ok)
	require.Equal(t, job.StatusFailed, j.Status)

	_, outputRecorded := j.FileInfo["output1.root"]
	require.False(t, outputRecorded)
	_, logRecorded := j.FileInfo["log.tgz"]
	require.True(t, logRecorded, "the log still uploads even though the output failed")
}

func TestStageOutWorkerRoutesJobs(t *testing.T) {
	uploadPath := filepath.Join(t.TempDir(), "upload.sh")
	j := newStageOutJob(t, 207)
	writeMultiEntryUploadScript(t, uploadPath, map[string]struct{ PFN, Adler32 string }{
		summaryKey(j.Output.Scope, "output1.root"):      {PFN: "pfn1", Adler32: "aa"},
		summaryKey(j.Output.LogScope, j.Output.LogFile): {PFN: "pfn2", Adler32: "bb"},
	})

	cfg := config.Defaults()
	cfg.Copytool.UploadPath = uploadPath

	w := &StageOutWorker{
		Queues: queues.NewBundle(),
		Config: cfg,
		Events: events.NewHub(16),
	}
	w.Queues.DataOut.Enqueue(j)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := w.Queues.FinishedDataOut.TryDequeue()
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
