package queues

import "github.com/dougbenjamin/pilot3/internal/job"

// Bundle is the fixed set of named queues the data-movement pipeline routes
// jobs through. The queue graph has no cycles except the recovery edge
// FailedDataIn -> FailedDataOut, which the queue monitor drives explicitly.
type Bundle struct {
	DataIn  *Queue[*job.Record]
	DataOut *Queue[*job.Record]

	FinishedDataIn *Queue[*job.Record]
	FailedDataIn   *Queue[*job.Record]

	FinishedDataOut *Queue[*job.Record]
	FailedDataOut   *Queue[*job.Record]

	FinishedJobs *Queue[*job.Record]
	FailedJobs   *Queue[*job.Record]
}

// NewBundle constructs a Bundle with generously buffered queues. Capacity
// does not encode a correctness requirement here; the pipeline never blocks
// forever on Enqueue.
func NewBundle() *Bundle {
	return &Bundle{
		DataIn:          NewQueue[*job.Record](0),
		DataOut:         NewQueue[*job.Record](0),
		FinishedDataIn:  NewQueue[*job.Record](0),
		FailedDataIn:    NewQueue[*job.Record](0),
		FinishedDataOut: NewQueue[*job.Record](0),
		FailedDataOut:   NewQueue[*job.Record](0),
		FinishedJobs:    NewQueue[*job.Record](0),
		FailedJobs:      NewQueue[*job.Record](0),
	}
}

// Depths returns a snapshot of every queue's current length, keyed by name,
// for the diagnostics API's /status endpoint.
func (b *Bundle) Depths() map[string]int {
	return map[string]int{
		"data_in":           b.DataIn.Len(),
		"data_out":          b.DataOut.Len(),
		"finished_data_in":  b.FinishedDataIn.Len(),
		"failed_data_in":    b.FailedDataIn.Len(),
		"finished_data_out": b.FinishedDataOut.Len(),
		"failed_data_out":   b.FailedDataOut.Len(),
		"finished_jobs":     b.FinishedJobs.Len(),
		"failed_jobs":       b.FailedJobs.Len(),
	}
}
