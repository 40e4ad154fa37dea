package transfer

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dougbenjamin/pilot3/internal/config"
	"github.com/dougbenjamin/pilot3/internal/job"
)

// LogDescriptor is what the log packager returns: enough to drive a
// stage-out upload of the tarball it produced. Digest is a BLAKE3 hex
// digest of the finished tarball, kept alongside the descriptor so a
// downstream consumer can detect corruption introduced after staging it
// out.
type LogDescriptor struct {
	Scope    string
	Name     string
	UniqueID string
	ByteSize int64
	Digest   string
}

// PrepareLog scans j's working directory and produces a gzip tarball at
// <workdir>/<j.Output.LogFile> whose archive paths are rooted at
// tarballName. Input files, output files, and the fixed deny-list are
// excluded; symbolic links are dereferenced.
func PrepareLog(j *job.Record, tarballName string, denyList []string) (LogDescriptor, error) {
	excluded := make(map[string]bool, len(j.Input.Files)+len(j.Output.Files)+len(denyList))
	for _, f := range j.Input.Files {
		excluded[f] = true
	}
	for _, f := range j.Output.Files {
		excluded[f] = true
	}
	for _, f := range denyList {
		excluded[f] = true
	}

	tarballPath := filepath.Join(j.WorkDir, j.Output.LogFile)
	// The tarball itself must never try to include itself.
	excluded[j.Output.LogFile] = true

	entries, err := os.ReadDir(j.WorkDir)
	if err != nil {
		return LogDescriptor{}, fmt.Errorf("read workdir %s: %w", j.WorkDir, err)
	}

	out, err := os.Create(tarballPath)
	if err != nil {
		return LogDescriptor{}, fmt.Errorf("create log tarball %s: %w", tarballPath, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, entry := range entries {
		if excluded[entry.Name()] {
			continue
		}
		if err := addToTar(tw, j.WorkDir, entry.Name(), tarballName); err != nil {
			tw.Close()
			gz.Close()
			return LogDescriptor{}, fmt.Errorf("add %s to log tarball: %w", entry.Name(), err)
		}
	}

	if err := tw.Close(); err != nil {
		return LogDescriptor{}, fmt.Errorf("close tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return LogDescriptor{}, fmt.Errorf("close gzip writer: %w", err)
	}

	info, err := os.Stat(tarballPath)
	if err != nil {
		return LogDescriptor{}, fmt.Errorf("stat log tarball %s: %w", tarballPath, err)
	}

	digest, err := config.ComputeBlake3Hash(tarballPath)
	if err != nil {
		return LogDescriptor{}, fmt.Errorf("digest log tarball %s: %w", tarballPath, err)
	}

	return LogDescriptor{
		Scope:    j.Output.LogScope,
		Name:     j.Output.LogFile,
		UniqueID: j.Output.LogGUID,
		ByteSize: info.Size(),
		Digest:   digest,
	}, nil
}

// addToTar adds workdir/name to tw, dereferencing symlinks, archiving it
// under tarballName/name.
func addToTar(tw *tar.Writer, workdir, name, tarballName string) error {
	path := filepath.Join(workdir, name)

	// Stat (not Lstat) follows symlinks so link targets are archived.
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Join(tarballName, name)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}
