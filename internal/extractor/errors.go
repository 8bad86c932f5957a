package extractor

import "errors"

// Configuration errors rejected synchronously at the API boundary. The job
// state is never touched when one of these is returned.
var (
	// ErrAlreadyRunning is returned by Start and Continue while a job is
	// processing. One active job at a time; single-process deployment.
	ErrAlreadyRunning = errors.New("an extraction job is already running")

	// ErrNoStoppedJob is returned by Continue when the last persisted state
	// is not STOPPED.
	ErrNoStoppedJob = errors.New("no stopped job to continue")

	// ErrAllPagesProcessed is returned by Continue when the stopped job has
	// no pages left in its configured range.
	ErrAllPagesProcessed = errors.New("all pages in range already processed")
)
