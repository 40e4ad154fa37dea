package api

// HealthzResponse is the body of GET /healthz.
type HealthzResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	UptimeSeconds  int64          `json:"uptime_seconds"`
	QueueDepths    map[string]int `json:"queue_depths"`
	CommmgrBacklog map[string]int `json:"commmgr_backlog"`
	FinishedJobs   int            `json:"finished_jobs"`
	FailedJobs     int            `json:"failed_jobs"`
}

// ErrorResponse is the body of any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
