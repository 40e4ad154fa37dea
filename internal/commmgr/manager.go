package commmgr

import (
	"sync"
	"time"

	"github.com/dougbenjamin/pilot3/internal/events"
	"github.com/dougbenjamin/pilot3/internal/log"
)

// stageName is one of the manager's six named queues, used as the key into
// Manager.queues/limits.
type stageName string

const (
	stageRequestGetJobs    stageName = "request_get_jobs"
	stageRequestGetEvents  stageName = "request_get_events"
	stageUpdateJobs        stageName = "update_jobs"
	stageUpdateEvents      stageName = "update_events"
	stageProcessingGetJobs stageName = "processing_get_jobs"
	stageProcessingGetEvt  stageName = "processing_get_events"
)

// entry is one row of the fixed processor table.
type entry struct {
	source   stageName
	preCheck func(Communicator) PreCheck
	handler  func(Communicator, *Request) *Response
	next     stageName // empty means terminal
	// postHook gates post-hook delivery for responses attached at this
	// entry. The submission stages leave it unset: a request that fails
	// there gets its response recorded for any synchronous waiter, but the
	// caller's post-hook never fires from them.
	postHook bool
}

// Manager is the communication manager: a single long-lived worker driving
// the fixed processor table over named queues.
type Manager struct {
	communicator Communicator
	events       *events.Hub

	queues map[stageName]chan *Request
	limits map[stageName]int // 0 means unbounded

	cancel chan struct{}
	once   sync.Once
	done   chan struct{}
}

// New constructs a Manager bound to a concrete Communicator backend. Queue
// capacities are generous; only the in-flight (processing_*) stages carry
// a real concurrency limit of 1, so at most one asynchronous operation per
// request family is outstanding at a time.
func New(comm Communicator, hub *events.Hub) *Manager {
	m := &Manager{
		communicator: comm,
		events:       hub,
		queues:       make(map[stageName]chan *Request),
		limits: map[stageName]int{
			stageRequestGetJobs:    0,
			stageRequestGetEvents:  0,
			stageUpdateJobs:        0,
			stageUpdateEvents:      0,
			stageProcessingGetJobs: 1,
			stageProcessingGetEvt:  1,
		},
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	for stage := range m.limits {
		m.queues[stage] = make(chan *Request, 4096)
	}
	return m
}

func (m *Manager) processorTable() []entry {
	return []entry{
		{
			source:   stageRequestGetJobs,
			preCheck: Communicator.PreCheckGetJobs,
			handler:  Communicator.RequestGetJobs,
			next:     stageProcessingGetJobs,
		},
		{
			source:   stageRequestGetEvents,
			preCheck: Communicator.PreCheckGetEvents,
			handler:  Communicator.RequestGetEvents,
			next:     stageProcessingGetEvt,
		},
		{
			source:   stageUpdateJobs,
			preCheck: Communicator.PreCheckUpdateJobs,
			handler:  Communicator.UpdateJobs,
			postHook: true,
		},
		{
			source:   stageUpdateEvents,
			preCheck: Communicator.PreCheckUpdateEvents,
			handler:  Communicator.UpdateEvents,
			postHook: true,
		},
		{
			source:   stageProcessingGetJobs,
			preCheck: Communicator.CheckGetJobsStatus,
			handler:  Communicator.GetJobs,
			postHook: true,
		},
		{
			source:   stageProcessingGetEvt,
			preCheck: Communicator.CheckGetEventsStatus,
			handler:  Communicator.GetEvents,
			postHook: true,
		},
	}
}

// enqueue places req onto the inbound queue matching its RequestKind.
func (m *Manager) enqueue(req *Request) {
	switch req.Kind {
	case KindGetJobs:
		m.queues[stageRequestGetJobs] <- req
	case KindGetEvents:
		m.queues[stageRequestGetEvents] <- req
	case KindUpdateJobs:
		m.queues[stageUpdateJobs] <- req
	case KindUpdateEvents:
		m.queues[stageUpdateEvents] <- req
	}
}

// Stop signals the manager to begin graceful shutdown: every queued request
// is aborted with a communication_failure response before Run returns.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.cancel) })
}

// Done reports whether the manager's run loop has exited.
func (m *Manager) Done() <-chan struct{} { return m.done }

// QueueDepths reports the current length of every named stage queue, for
// the diagnostics API's /status endpoint.
func (m *Manager) QueueDepths() map[string]int {
	depths := make(map[string]int, len(m.queues))
	for stage, ch := range m.queues {
		depths[string(stage)] = len(ch)
	}
	return depths
}

func (m *Manager) stopping() bool {
	select {
	case <-m.cancel:
		return true
	default:
		return false
	}
}

// Run drives the dispatch loop: for each pass it iterates the fixed
// processor table, draining and aborting every queue once
// stopping, else processing at most one request per ready stage. It sleeps
// 1s between passes that did no work, and exits once stopping and a pass did
// no work.
func (m *Manager) Run() {
	logger := log.WithComponent("commmgr")
	logger.Info("communication manager started")
	defer func() {
		logger.Info("communication manager stopped")
		close(m.done)
	}()

	table := m.processorTable()

	for {
		stopping := m.stopping()
		didWork := false

		for _, e := range table {
			if stopping {
				m.drainAndAbort(e.source)
				continue
			}
			if m.canProcess(e) {
				if m.processOne(e) {
					didWork = true
				}
			}
		}

		if !didWork && stopping {
			return
		}
		if !didWork {
			time.Sleep(1 * time.Second)
		}
	}
}

// canProcess reports whether e's source queue is non-empty and, if e has a
// next (in-flight) queue, that queue is below its concurrency limit.
func (m *Manager) canProcess(e entry) bool {
	if len(m.queues[e.source]) == 0 {
		return false
	}
	if e.next == "" {
		return true
	}
	limit := m.limits[e.next]
	if limit == 0 {
		return true
	}
	return len(m.queues[e.next]) < limit
}

// processOne runs one request through entry e: pre-check, dequeue, handle,
// and route to the next queue or attach a terminal response. The post-hook
// fires only when e's postHook bit is set. It returns whether work was
// actually done this call; a failed pre-check does not count as work.
func (m *Manager) processOne(e entry) bool {
	pre := e.preCheck(m.communicator)
	if !pre.Ready() {
		return false
	}

	req := <-m.queues[e.source]

	resp := e.handler(m.communicator, req)

	if !resp.Status {
		m.finish(e, req, resp)
	} else if e.next != "" {
		m.queues[e.next] <- req
	} else {
		m.finish(e, req, resp)
	}

	if m.events != nil {
		m.events.Publish(events.TypeCommmgrRequestProcessed, map[string]any{
			"kind":   string(req.Kind),
			"stage":  string(e.source),
			"status": resp.Status,
		})
	}

	return true
}

// finish attaches resp as req's terminal response, releasing any
// synchronous waiter, and delivers it through the post-hook only when e's
// postHook bit is set.
func (m *Manager) finish(e entry, req *Request, resp *Response) {
	if req.setResponse(resp) && e.postHook && req.PostHook != nil {
		req.PostHook(resp)
	}
}

// drainAndAbort empties stage, aborting every request with a
// communication_failure response so no synchronous waiter blocks
// indefinitely after shutdown.
func (m *Manager) drainAndAbort(stage stageName) {
	for {
		select {
		case req := <-m.queues[stage]:
			log.WithQueue(string(stage)).Info("aborting request, communication manager is stopping", "kind", req.Kind)
			req.Abort("communication manager is stopping, aborting this request")
			if m.events != nil {
				m.events.Publish(events.TypeCommmgrAborted, map[string]any{"kind": string(req.Kind)})
			}
		default:
			return
		}
	}
}
