package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/pastq-dev/pastq/internal/progress"
	"github.com/pastq-dev/pastq/internal/source"
)

// run is the background worker: one long-lived goroutine processing pages
// strictly sequentially. ctx cancellation is checked only between pages so
// per-page side effects stay atomic.
func (o *Orchestrator) run(ctx context.Context, src source.Source, state *progress.JobState, endPage int) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("extraction worker panicked", "job_id", state.JobID, "panic", r)
			o.failJob(state, fmt.Sprintf("worker panic: %v", r))
		}
		src.Close()
		o.mu.Lock()
		o.running = false
		o.cancel = nil
		close(o.done)
		o.mu.Unlock()
	}()

	proc, err := o.newProcessor(ctx, src, state.Model)
	if err != nil {
		o.failJob(state, fmt.Sprintf("failed to initialize page processor: %v", err))
		return
	}

	for page := state.Cursor + 1; page <= endPage; page++ {
		if ctx.Err() != nil {
			o.mu.Lock()
			state.Finish(progress.StatusStopped, "")
			state.AddLog("job stopped after page %d", state.Cursor)
			o.mu.Unlock()
			if err := o.persist(state); err != nil {
				o.logger.Error("failed to persist stopped state", "job_id", state.JobID, "error", err)
			}
			o.logger.Info("extraction job stopped", "job_id", state.JobID, "cursor", state.Cursor)
			return
		}

		// The in-flight page must complete even if Stop is called, so page
		// work runs detached from the cancellation signal.
		res, pageErr := proc.ProcessPage(context.WithoutCancel(ctx), page, state.Overwrite)

		o.mu.Lock()
		for _, line := range res.logs {
			state.AddLog("%s", line)
		}
		state.Counters.Created += res.created
		state.Counters.Updated += res.updated
		state.Counters.VerifiedSkipped += res.verifiedSkipped
		state.Counters.Skipped += res.skipped
		if pageErr != nil {
			state.RecordFailedPage(page)
			state.AddLog("page %d failed: %v", page, pageErr)
		} else {
			state.RecordPageYield(page, res.yield)
		}
		state.Cursor = page
		o.mu.Unlock()

		if pageErr != nil {
			o.logger.Warn("page failed, continuing",
				"job_id", state.JobID,
				"page", page,
				"error", pageErr)
		} else {
			o.logger.Info("page processed",
				"job_id", state.JobID,
				"page", page,
				"yield", res.yield)
		}

		// The persisted state is the crash-safe resume point; losing the
		// ability to write it is job-fatal.
		if err := o.persist(state); err != nil {
			o.failJob(state, fmt.Sprintf("failed to persist job state: %v", err))
			return
		}

		if page < endPage && o.cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.cfg.PageDelay):
			}
		}
	}

	o.mu.Lock()
	state.Finish(progress.StatusCompleted, "")
	state.AddLog("job completed: %d created, %d updated, %d verified-skipped, %d skipped, %d failed pages",
		state.Counters.Created, state.Counters.Updated,
		state.Counters.VerifiedSkipped, state.Counters.Skipped,
		len(state.FailedPages))
	o.mu.Unlock()
	if err := o.persist(state); err != nil {
		o.logger.Error("failed to persist completed state", "job_id", state.JobID, "error", err)
	}
	o.logger.Info("extraction job completed",
		"job_id", state.JobID,
		"created", state.Counters.Created,
		"updated", state.Counters.Updated,
		"failed_pages", len(state.FailedPages))
}

// persist snapshots the state under the lock and writes it out.
func (o *Orchestrator) persist(state *progress.JobState) error {
	o.mu.Lock()
	snapshot := state.Clone()
	o.mu.Unlock()
	return o.progress.Save(snapshot)
}

// failJob transitions into FAILED and saves best-effort.
func (o *Orchestrator) failJob(state *progress.JobState, msg string) {
	o.mu.Lock()
	state.Finish(progress.StatusFailed, msg)
	state.AddLog("job failed: %s", msg)
	o.mu.Unlock()
	if err := o.persist(state); err != nil {
		o.logger.Error("failed to persist failed state", "job_id", state.JobID, "error", err)
	}
	o.logger.Error("extraction job failed", "job_id", state.JobID, "error", msg)
}
