package commmgr

import (
	"errors"
	"time"
)

// ErrCommunicationFailure is returned by a synchronous client call when the
// manager's response carries a non-empty Error field.
var ErrCommunicationFailure = errors.New("communication_failure")

// ErrMissingJob is returned immediately by GetEventRanges when no job
// descriptor is supplied; the request never touches a queue.
var ErrMissingJob = errors.New("get_event_ranges: job descriptor is required")

// GetJobs requests n jobs. If postHook is nil, it blocks until a response
// is available and returns the response content; with a postHook it
// enqueues and returns immediately.
func (m *Manager) GetJobs(n int, postHook PostHook, args map[string]string) (any, error) {
	req := NewRequest(KindGetJobs, Payload{JobCount: n, Args: args}, postHook)
	m.enqueue(req)
	return m.deliver(req)
}

// UpdateJobs submits job status updates.
func (m *Manager) UpdateJobs(updates []JobUpdate, postHook PostHook) (any, error) {
	req := NewRequest(KindUpdateJobs, Payload{JobUpdates: updates}, postHook)
	m.enqueue(req)
	return m.deliver(req)
}

// GetEventRanges requests n event ranges for job. job is required; its
// absence raises immediately without ever touching a queue.
func (m *Manager) GetEventRanges(n int, postHook PostHook, job JobDescriptor) (any, error) {
	if job == (JobDescriptor{}) {
		return nil, ErrMissingJob
	}
	req := NewRequest(KindGetEvents, Payload{Job: job, EventCount: n}, postHook)
	m.enqueue(req)
	return m.deliver(req)
}

// UpdateEvents submits event range updates.
func (m *Manager) UpdateEvents(updates []EventUpdate, postHook PostHook) (any, error) {
	req := NewRequest(KindUpdateEvents, Payload{EventUpdates: updates}, postHook)
	m.enqueue(req)
	return m.deliver(req)
}

// deliver implements the synchronous-wait contract: with no post-hook,
// poll req.Response() at 1s cadence until set, then propagate the error if
// present, return nil if status is false, else return content. With a
// post-hook, return immediately with no content.
func (m *Manager) deliver(req *Request) (any, error) {
	if req.PostHook != nil {
		return nil, nil
	}

	for {
		if resp, ok := req.Response(); ok {
			if resp.Error != "" {
				return nil, errors.Join(ErrCommunicationFailure, errors.New(resp.Error))
			}
			if !resp.Status {
				return nil, nil
			}
			return resp.Content, nil
		}
		time.Sleep(1 * time.Second)
	}
}
