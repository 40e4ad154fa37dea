package transfer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dougbenjamin/pilot3/internal/job"
)

func TestDownloadArgvOrdersArgumentsAndJoinsFiles(t *testing.T) {
	in := job.Input{Scope: "mc16_13TeV", Endpoint: "RSE1", Files: []string{"a.root", "b.root"}}

	argv := DownloadArgv("/opt/rucio/bin/rucio", in)
	require.Equal(t, []string{
		"env", "/opt/rucio/bin/rucio", "-v", "download",
		"--no-subdir",
		"--rse", "RSE1",
		"mc16_13TeV:a.root,b.root",
	}, argv)
}

func TestUploadArgvUsesFirstEndpoint(t *testing.T) {
	out := job.Output{Scope: "mc16_13TeV", Endpoints: []string{"RSE2", "RSE3"}, Files: []string{"output1.root"}}

	argv := UploadArgv("/opt/rucio/bin/rucio", out, "guid-1", "mc16_13TeV", "output1.root")
	require.Equal(t, []string{
		"env", "/opt/rucio/bin/rucio", "-v", "upload",
		"--summary", "--no-register",
		"--guid", "guid-1",
		"--rse", "RSE2",
		"--scope", "mc16_13TeV",
		"output1.root",
	}, argv)
}
