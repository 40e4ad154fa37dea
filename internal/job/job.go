// Package job defines the Job record that flows through the data-movement
// pipeline and the communication manager's request/response payloads refer
// to.
package job

import (
	"strconv"
	"strings"
	"sync"
)

// Status is the job's mutable lifecycle state. It is strictly monotonic:
// once Finished or Failed, a Record never transitions again.
type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

// StageOutMode selects how the stage-out driver builds its transfer set
// for a job.
type StageOutMode string

const (
	StageOutAll StageOutMode = "all" // every output plus the log
	StageOutLog StageOutMode = "log" // the log only (recovery path)
)

// Input describes the job's input files: one scope, one source endpoint,
// an ordered list of names.
type Input struct {
	Scope    string
	Endpoint string
	Files    []string
}

// Output describes the job's output descriptor, including the log.
type Output struct {
	Scope string
	// Endpoints holds one-or-more destination endpoints (originally
	// comma-separated); the first is authoritative.
	Endpoints []string
	Files     []string

	LogFile  string
	LogScope string
	LogGUID  string
}

// FirstEndpoint returns the authoritative destination endpoint.
func (o Output) FirstEndpoint() string {
	if len(o.Endpoints) == 0 {
		return ""
	}
	return o.Endpoints[0]
}

// ParseEndpoints splits a comma-joined destination endpoint string; the
// first entry is the authoritative endpoint.
func ParseEndpoints(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SubFile is one entry of a job report's per-output metadata.
type SubFile struct {
	Name  string
	GUID  string
	Bytes int64
}

// Report is the optional nested job report producing per-output metadata.
// Its absence triggers the stage-out driver's log-only degrade path.
type Report struct {
	SubFiles map[string]SubFile // keyed by output file name
}

// FileInfo is the stage-out result recorded per output (and the log) once
// a transfer's summary artifact has been parsed.
type FileInfo struct {
	UniqueID    string
	ByteSize    int64
	Checksum    string
	PhysicalURL string
}

// Record is the unit of work flowing through the data pipeline.
type Record struct {
	mu sync.Mutex

	PandaID  int64
	TaskID   string
	JobsetID string

	WorkDir string

	Input  Input
	Output Output
	Report *Report

	Status        Status
	StageOut      StageOutMode
	ExitCode      int // payload exit code, default 0
	TransExitCode int // transformation exit code, default 0

	ErrorCodes    []string
	ErrorMessages []string

	FileInfo map[string]FileInfo // keyed by output/log file name
}

// New returns a Record in its initial state.
func New(pandaID int64, taskID, jobsetID, workDir string) *Record {
	return &Record{
		PandaID:  pandaID,
		TaskID:   taskID,
		JobsetID: jobsetID,
		WorkDir:  workDir,
		Status:   StatusUnknown,
		StageOut: StageOutAll,
		FileInfo: make(map[string]FileInfo),
	}
}

// MarkRunning transitions a job to running. It is a no-op once the job has
// reached a terminal state, preserving strict monotonicity.
func (r *Record) MarkRunning() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminalLocked() {
		return
	}
	r.Status = StatusRunning
}

// MarkFailed transitions a job to failed and appends diagnostics. A no-op
// if already terminal.
func (r *Record) MarkFailed(errorCode, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminalLocked() {
		return
	}
	r.Status = StatusFailed
	if errorCode != "" {
		r.ErrorCodes = append(r.ErrorCodes, errorCode)
	}
	if message != "" {
		r.ErrorMessages = append(r.ErrorMessages, message)
	}
}

// MarkFinished transitions a job to finished. A no-op if already terminal.
func (r *Record) MarkFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminalLocked() {
		return
	}
	r.Status = StatusFinished
}

// IsTerminal reports whether the job has reached finished or failed.
func (r *Record) IsTerminal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminalLocked()
}

func (r *Record) terminalLocked() bool {
	return r.Status == StatusFinished || r.Status == StatusFailed
}

// SetFileInfo records a stage-out result for a named output or log file.
func (r *Record) SetFileInfo(name string, info FileInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FileInfo == nil {
		r.FileInfo = make(map[string]FileInfo)
	}
	r.FileInfo[name] = info
}

// FormatPandaID renders a panda ID for log correlation.
func FormatPandaID(pandaID int64) string {
	return strconv.FormatInt(pandaID, 10)
}

// HasOutFile reports whether name is among the job's declared output files.
// The log file always counts as present.
func (r *Record) HasOutFile(name string) bool {
	if name == r.Output.LogFile {
		return true
	}
	for _, f := range r.Output.Files {
		if f == name {
			return true
		}
	}
	return false
}
