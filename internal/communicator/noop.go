package communicator

import "github.com/dougbenjamin/pilot3/internal/commmgr"

// Noop is a Communicator that always reports ready and returns an empty
// successful response. It exists for tests and as the communicator used
// when no concrete backend has been wired in; callers needing a real
// backend provide one satisfying Communicator, built-in or discovered.
type Noop struct{}

func (Noop) PreCheckGetJobs() PreCheckResult      { return PreCheckResult{Status: 0} }
func (Noop) PreCheckGetEvents() PreCheckResult    { return PreCheckResult{Status: 0} }
func (Noop) PreCheckUpdateJobs() PreCheckResult   { return PreCheckResult{Status: 0} }
func (Noop) PreCheckUpdateEvents() PreCheckResult { return PreCheckResult{Status: 0} }
func (Noop) CheckGetJobsStatus() PreCheckResult   { return PreCheckResult{Status: 0} }
func (Noop) CheckGetEventsStatus() PreCheckResult { return PreCheckResult{Status: 0} }

func (Noop) RequestGetJobs(req *commmgr.Request) *commmgr.Response {
	return &commmgr.Response{Status: true, Content: "submitted"}
}

func (Noop) GetJobs(req *commmgr.Request) *commmgr.Response {
	return &commmgr.Response{Status: true, Content: []any{}}
}

func (Noop) RequestGetEvents(req *commmgr.Request) *commmgr.Response {
	return &commmgr.Response{Status: true, Content: "submitted"}
}

func (Noop) GetEvents(req *commmgr.Request) *commmgr.Response {
	return &commmgr.Response{Status: true, Content: []any{}}
}

func (Noop) UpdateJobs(req *commmgr.Request) *commmgr.Response {
	return &commmgr.Response{Status: true, Content: true}
}

func (Noop) UpdateEvents(req *commmgr.Request) *commmgr.Response {
	return &commmgr.Response{Status: true, Content: true}
}
