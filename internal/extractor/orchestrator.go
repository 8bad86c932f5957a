// Package extractor owns the extraction job lifecycle: the resumable state
// machine, the sequential page loop, and the per-page processing pipeline.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pastq-dev/pastq/internal/dedup"
	"github.com/pastq-dev/pastq/internal/progress"
	"github.com/pastq-dev/pastq/internal/providers"
	"github.com/pastq-dev/pastq/internal/records"
	"github.com/pastq-dev/pastq/internal/source"
)

// Config holds the pipeline tunables, resolved from configuration once at
// orchestrator construction.
type Config struct {
	SimilarityThreshold float64
	ConfidenceMargin    float64
	PageDelay           time.Duration
	YearMin             int
	YearMax             int
	ModelOptions        providers.Options
}

// Options configure one extraction job.
type Options struct {
	// StartPage is the first page to process, 1-indexed. Zero means 1.
	StartPage int
	// MaxPages bounds how many pages this job may process. Zero means all
	// pages from StartPage to the end of the document.
	MaxPages int
	// Overwrite bypasses the merge policy: every similarity match is
	// unconditionally updated, verified or not.
	Overwrite bool
}

// OpenSourceFunc resolves a document name to a readable source.
type OpenSourceFunc func(document string) (source.Source, error)

// Orchestrator runs at most one extraction job at a time. Job submission is
// non-blocking; pages are processed strictly sequentially by one background
// goroutine, and cancellation is observed only between pages.
type Orchestrator struct {
	cfg        Config
	store      records.Store
	progress   progress.Store
	client     providers.Client
	vocab      *records.Vocabulary
	openSource OpenSourceFunc
	nameHint   NameHintFunc
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	state   *progress.JobState
	done    chan struct{}
}

// New creates an orchestrator. nameHint may be nil to use the default
// filename inference.
func New(cfg Config, store records.Store, progressStore progress.Store, client providers.Client, openSource OpenSourceFunc, nameHint NameHintFunc, logger *slog.Logger) *Orchestrator {
	if nameHint == nil {
		nameHint = DefaultNameHint
	}
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		progress:   progressStore,
		client:     client,
		vocab:      records.NewVocabulary(store),
		openSource: openSource,
		nameHint:   nameHint,
		logger:     logger,
	}
}

// Start begins a new extraction job over document and returns its job ID
// without waiting for any page to complete.
func (o *Orchestrator) Start(document string, opts Options) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return "", ErrAlreadyRunning
	}

	src, err := o.openSource(document)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}

	totalPages := src.PageCount()
	startPage := opts.StartPage
	if startPage < 1 {
		startPage = 1
	}
	if startPage > totalPages {
		src.Close()
		return "", fmt.Errorf("start page %d is beyond the document's %d pages", startPage, totalPages)
	}
	maxPages := opts.MaxPages
	if maxPages < 1 {
		maxPages = totalPages - startPage + 1
	}
	endPage := startPage + maxPages - 1
	if endPage > totalPages {
		endPage = totalPages
	}

	state := progress.NewIdleState()
	state.JobID = uuid.New().String()
	state.Status = progress.StatusProcessing
	state.Document = src.Name()
	state.Cursor = startPage - 1
	state.TotalPages = totalPages
	state.StartPage = startPage
	state.MaxPages = maxPages
	state.Overwrite = opts.Overwrite
	state.Model = o.client.Model()
	state.StartedAt = time.Now().UTC()
	state.AddLog("job %s started: %s pages %d-%d", state.JobID, state.Document, startPage, endPage)

	if err := o.progress.Save(state); err != nil {
		src.Close()
		return "", fmt.Errorf("failed to persist initial job state: %w", err)
	}

	o.launch(src, state, endPage)

	o.logger.Info("extraction job started",
		"job_id", state.JobID,
		"document", state.Document,
		"start_page", startPage,
		"end_page", endPage,
		"overwrite", opts.Overwrite)
	return state.JobID, nil
}

// Stop requests cancellation of the running job. The in-flight page always
// completes, including its store writes, before the job transitions to
// STOPPED. Returns an informational message when nothing is running.
func (o *Orchestrator) Stop() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return "no extraction job is running", nil
	}
	o.cancel()
	o.logger.Info("stop requested", "job_id", o.state.JobID, "cursor", o.state.Cursor)
	return "stop requested; the in-flight page will complete first", nil
}

// Continue resumes a stopped job from its persisted cursor under a new job
// ID, carrying forward counters, failed pages, and logs.
func (o *Orchestrator) Continue() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return "", ErrAlreadyRunning
	}

	state, err := o.progress.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load job state: %w", err)
	}
	if state == nil || state.Status != progress.StatusStopped {
		return "", ErrNoStoppedJob
	}
	if state.Cursor >= state.TotalPages {
		return "", ErrAllPagesProcessed
	}
	remaining := state.MaxPages - (state.Cursor - (state.StartPage - 1))
	if remaining <= 0 {
		return "", ErrAllPagesProcessed
	}

	src, err := o.openSource(state.Document)
	if err != nil {
		return "", fmt.Errorf("failed to reopen document: %w", err)
	}

	endPage := state.Cursor + remaining
	if endPage > state.TotalPages {
		endPage = state.TotalPages
	}

	state.JobID = uuid.New().String()
	state.Status = progress.StatusProcessing
	state.EndedAt = nil
	state.Error = ""
	state.Model = o.client.Model()
	state.AddLog("job %s continuing from page %d", state.JobID, state.Cursor+1)

	if err := o.progress.Save(state); err != nil {
		src.Close()
		return "", fmt.Errorf("failed to persist continued job state: %w", err)
	}

	o.launch(src, state, endPage)

	o.logger.Info("extraction job continued",
		"job_id", state.JobID,
		"document", state.Document,
		"next_page", state.Cursor+1,
		"end_page", endPage)
	return state.JobID, nil
}

// launch starts the background worker. Caller must hold o.mu.
func (o *Orchestrator) launch(src source.Source, state *progress.JobState, endPage int) {
	ctx, cancel := context.WithCancel(context.Background())
	o.running = true
	o.cancel = cancel
	o.state = state
	o.done = make(chan struct{})
	go o.run(ctx, src, state, endPage)
}

// SetClient swaps the model client, typically after a config reload.
// Rejected while a job is running so an in-progress run keeps one model.
func (o *Orchestrator) SetClient(client providers.Client) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrAlreadyRunning
	}
	o.client = client
	return nil
}

// Status returns the best-known job state: the live state while a job is
// running, the persisted state otherwise, or an IDLE default when nothing
// has ever run.
func (o *Orchestrator) Status() (*progress.JobState, error) {
	o.mu.Lock()
	if o.running && o.state != nil {
		defer o.mu.Unlock()
		return o.state.Clone(), nil
	}
	o.mu.Unlock()

	state, err := o.progress.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load job state: %w", err)
	}
	if state == nil {
		return progress.NewIdleState(), nil
	}
	return state, nil
}

// Logs returns the job's log lines.
func (o *Orchestrator) Logs() ([]string, error) {
	state, err := o.Status()
	if err != nil {
		return nil, err
	}
	return state.Logs, nil
}

// Statistics returns corpus-wide aggregates.
func (o *Orchestrator) Statistics(ctx context.Context) (*records.Stats, error) {
	return o.store.Stats(ctx)
}

// Wait blocks until the current background run finishes. Test helper.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

// newEngine builds the merge engine bound to this orchestrator's tunables.
func (o *Orchestrator) newEngine() *dedup.Engine {
	return dedup.NewEngine(o.store, o.cfg.SimilarityThreshold, o.cfg.ConfidenceMargin)
}
