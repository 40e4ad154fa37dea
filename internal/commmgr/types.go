// Package commmgr implements the communication manager: a multi-queue
// request/response broker that serializes client requests toward a
// pluggable remote communicator, enforcing per-stage concurrency limits
// and supporting both synchronous and asynchronous delivery.
package commmgr

import (
	"sync"

	"github.com/google/uuid"
)

// RequestKind is the closed set of communication request tags.
type RequestKind string

const (
	KindGetJobs      RequestKind = "request_jobs"
	KindUpdateJobs   RequestKind = "update_jobs"
	KindGetEvents    RequestKind = "request_events"
	KindUpdateEvents RequestKind = "update_events"
)

// JobUpdate is one entry of an UpdateJobs request payload.
type JobUpdate struct {
	PandaID int64
	Fields  map[string]any
}

// EventUpdate is one entry of an UpdateEvents request payload.
type EventUpdate struct {
	PandaID int64
	EventID string
	Status  string
}

// JobDescriptor identifies the job an event-range request is for.
type JobDescriptor struct {
	PandaID  int64
	TaskID   string
	JobsetID string
}

// Payload is the per-kind request body. Exactly one field group is
// meaningful, selected by Kind.
type Payload struct {
	// request_jobs
	JobCount int
	Args     map[string]string

	// update_jobs
	JobUpdates []JobUpdate

	// request_events
	Job        JobDescriptor
	EventCount int

	// update_events
	EventUpdates []EventUpdate
}

// Response is the communication response record.
type Response struct {
	// Status is true on success; a false Status with a non-empty Error is
	// a terminal failure.
	Status  bool
	Content any
	Error   string
}

// PostHook is invoked with the final response for asynchronous delivery.
type PostHook func(*Response)

// Request is the tagged record flowing through the manager's inbound
// queues. ID exists purely for diagnostics/event correlation; it plays no
// role in routing.
type Request struct {
	ID      string
	Kind    RequestKind
	Payload Payload

	PostHook PostHook

	mu       sync.Mutex
	response *Response
	abort    bool
}

// NewRequest constructs a Request ready for enqueueing.
func NewRequest(kind RequestKind, payload Payload, hook PostHook) *Request {
	return &Request{
		ID:       uuid.NewString(),
		Kind:     kind,
		Payload:  payload,
		PostHook: hook,
	}
}

// setResponse attaches the terminal response and reports whether this call
// was the one that attached it. A request's response is set at most once
// over its lifetime; later attempts are dropped. Invoking the post-hook is
// the caller's decision: the dispatch loop gates it per processor-table
// entry, and Abort always fires it.
func (r *Request) setResponse(resp *Response) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.response != nil {
		return false
	}
	r.response = resp
	return true
}

// Response returns the response if one has been set.
func (r *Request) Response() (*Response, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.response == nil {
		return nil, false
	}
	return r.response, true
}

// Abort marks the request aborted and attaches a communication_failure
// response, releasing any synchronous waiter. The post-hook, when present,
// is always invoked on abort so asynchronous callers see the failure too.
func (r *Request) Abort(message string) {
	r.mu.Lock()
	r.abort = true
	r.mu.Unlock()

	resp := &Response{Status: false, Error: message}
	if r.setResponse(resp) && r.PostHook != nil {
		r.PostHook(resp)
	}
}

// Aborted reports whether Abort was called on this request.
func (r *Request) Aborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.abort
}
