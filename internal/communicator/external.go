package communicator

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dougbenjamin/pilot3/internal/commmgr"
	"github.com/dougbenjamin/pilot3/internal/log"
	"github.com/dougbenjamin/pilot3/internal/protocol"
	"github.com/dougbenjamin/pilot3/internal/runner"
)

// External is a Communicator backed by a discovered plugin subprocess. Each
// call invokes the plugin's entrypoint fresh, writes a protocol.Request to
// its stdin, and decodes a protocol.Response from its stdout — there is no
// persistent child process.
type External struct {
	plugin     *Plugin
	runnerOpts runner.Options
}

// NewExternal wraps a discovered Plugin as a Communicator.
func NewExternal(p *Plugin, opts runner.Options) *External {
	return &External{plugin: p, runnerOpts: opts}
}

func (e *External) precheck(cmd protocol.Command) PreCheckResult {
	resp, err := e.invoke(cmd, nil, nil)
	if err != nil || resp.Status != "ok" {
		return PreCheckResult{Status: 1}
	}
	return PreCheckResult{Status: 0}
}

func (e *External) PreCheckGetJobs() PreCheckResult      { return e.precheck(protocol.CommandGetJobs) }
func (e *External) PreCheckGetEvents() PreCheckResult    { return e.precheck(protocol.CommandGetEvents) }
func (e *External) PreCheckUpdateJobs() PreCheckResult   { return e.precheck(protocol.CommandUpdateJobs) }
func (e *External) PreCheckUpdateEvents() PreCheckResult { return e.precheck(protocol.CommandUpdateEvents) }

// A plugin invoked fresh per call has no in-flight operation of its own to
// poll; collecting a submitted get_jobs/get_events is ready as soon as the
// plugin answers its readiness probe.
func (e *External) CheckGetJobsStatus() PreCheckResult   { return e.precheck(protocol.CommandGetJobs) }
func (e *External) CheckGetEventsStatus() PreCheckResult { return e.precheck(protocol.CommandGetEvents) }

func (e *External) RequestGetJobs(req *commmgr.Request) *commmgr.Response {
	return e.call(protocol.CommandGetJobs, req)
}

func (e *External) GetJobs(req *commmgr.Request) *commmgr.Response {
	return e.call(protocol.CommandGetJobs, req)
}

func (e *External) RequestGetEvents(req *commmgr.Request) *commmgr.Response {
	return e.call(protocol.CommandGetEvents, req)
}

func (e *External) GetEvents(req *commmgr.Request) *commmgr.Response {
	return e.call(protocol.CommandGetEvents, req)
}

func (e *External) UpdateJobs(req *commmgr.Request) *commmgr.Response {
	return e.call(protocol.CommandUpdateJobs, req)
}

func (e *External) UpdateEvents(req *commmgr.Request) *commmgr.Response {
	return e.call(protocol.CommandUpdateEvents, req)
}

func (e *External) call(cmd protocol.Command, req *commmgr.Request) *commmgr.Response {
	payload := map[string]any{}
	var args map[string]string
	if req != nil {
		payload["job_count"] = req.Payload.JobCount
		payload["event_count"] = req.Payload.EventCount
		if req.Payload.JobUpdates != nil {
			payload["job_updates"] = req.Payload.JobUpdates
		}
		if req.Payload.EventUpdates != nil {
			payload["event_updates"] = req.Payload.EventUpdates
		}
		if req.Payload.Job != (commmgr.JobDescriptor{}) {
			payload["job"] = req.Payload.Job
		}
		args = req.Payload.Args
	}

	resp, err := e.invoke(cmd, payload, args)
	if err != nil {
		return &commmgr.Response{Status: false, Error: err.Error()}
	}
	if resp.Status == "error" {
		return &commmgr.Response{Status: false, Error: resp.Error}
	}
	return &commmgr.Response{Status: true, Content: resp.Content}
}

func (e *External) invoke(cmd protocol.Command, payload map[string]any, args map[string]string) (*protocol.Response, error) {
	plog := log.WithPlugin(e.plugin.Name)

	wireReq := &protocol.Request{
		Protocol: protocol.SupportedProtocol,
		Command:  cmd,
		Payload:  payload,
		Args:     args,
	}

	var stdin bytes.Buffer
	if err := protocol.EncodeRequest(&stdin, wireReq); err != nil {
		return nil, fmt.Errorf("encode request for plugin %s: %w", e.plugin.Name, err)
	}

	opts := e.runnerOpts
	opts.Stdin = &stdin

	plog.Debug("invoking plugin", "command", cmd)

	result, err := runner.Run(context.Background(), []string{e.plugin.Entrypoint}, "", opts)
	if err != nil {
		plog.Error("plugin invocation failed", "command", cmd, "error", err)
		return nil, fmt.Errorf("invoke plugin %s: %w", e.plugin.Name, err)
	}
	if !result.Success {
		plog.Error("plugin exited non-zero", "command", cmd, "exit_code", result.ExitCode, "stderr", result.Stderr)
		return nil, fmt.Errorf("plugin %s exited non-zero (code=%d): %s", e.plugin.Name, result.ExitCode, result.Stderr)
	}

	resp, err := protocol.DecodeResponse(bytes.NewReader(result.Stdout))
	if err != nil {
		plog.Error("failed to decode plugin response", "command", cmd, "error", err)
		return nil, fmt.Errorf("decode response from plugin %s: %w", e.plugin.Name, err)
	}
	return resp, nil
}
