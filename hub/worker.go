package hub

// WorkerEventKind classifies a background job's status update.
type WorkerEventKind int

const (
	WorkerStarted  WorkerEventKind = iota // WorkerStarted announces a job has begun
	WorkerProgress                        // WorkerProgress carries an incremental status update
	WorkerDone                            // WorkerDone announces successful completion
	WorkerFailed                          // WorkerFailed announces the job ended in error
)

// WorkerEvent is posted by a long-running background operation (directory
// walk, diff computation, copy/move, extension handler exec) back to the
// Input Loop, which folds it into a screen redraw or status message.
type WorkerEvent struct {
	JobID   string
	Kind    WorkerEventKind
	Message string
	Err     error
}
