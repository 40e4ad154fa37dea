package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMergesOntoDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "pilotd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service:
  log_level: debug
copytool:
  download_path: /opt/rucio/bin/rucio
workers:
  stage_in_workers: 2
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Service.LogLevel)
	require.Equal(t, "/opt/rucio/bin/rucio", cfg.Copytool.DownloadPath)
	require.Equal(t, 2, cfg.Workers.StageInWorkers)
	// untouched defaults survive the merge
	require.Equal(t, 1*1_000_000_000, int(cfg.Service.QueueTimeout))
	require.Equal(t, []string{"geomDB", "sqlite200"}, cfg.LogPackager.DenyList)
}

func TestLoadRejectsInvalidWorkerCount(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "pilotd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers:
  stage_in_workers: 0
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
