// Package progress persists extraction job state so multi-hour runs survive
// restarts and can be stopped and continued without losing work.
package progress

import (
	"fmt"
	"time"
)

// Status is the job lifecycle state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusStopped    Status = "stopped"
)

// CurrentVersion is the persisted state schema version. Bump when the
// layout changes incompatibly.
const CurrentVersion = 1

// maxLogLines bounds the in-state log buffer; oldest lines are dropped.
const maxLogLines = 500

// Counters accumulate across a job and its continuations.
type Counters struct {
	Created         int `json:"created"`
	Updated         int `json:"updated"`
	VerifiedSkipped int `json:"verifiedSkipped"`
	Skipped         int `json:"skipped"`
}

// JobState is the single source of truth for resumability. It is
// read-modify-written after every page.
type JobState struct {
	Version     int            `json:"version"`
	JobID       string         `json:"jobId"`
	Status      Status         `json:"status"`
	Document    string         `json:"document"`
	Cursor      int            `json:"cursor"`
	TotalPages  int            `json:"totalPages"`
	FailedPages []int          `json:"failedPages"`
	PageYields  map[int]int    `json:"pageYields,omitempty"`
	Counters    Counters       `json:"counters"`
	Logs        []string       `json:"logs"`
	Model       string         `json:"model,omitempty"`
	StartPage   int            `json:"startPage"`
	MaxPages    int            `json:"maxPages"`
	Overwrite   bool           `json:"overwrite"`
	StartedAt   time.Time      `json:"startedAt"`
	EndedAt     *time.Time     `json:"endedAt,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewIdleState returns the default state reported when nothing has run yet.
func NewIdleState() *JobState {
	return &JobState{
		Version:     CurrentVersion,
		Status:      StatusIdle,
		FailedPages: []int{},
		Logs:        []string{},
	}
}

// AddLog appends a timestamped log line, trimming the buffer when it grows
// past maxLogLines.
func (s *JobState) AddLog(format string, args ...any) {
	line := time.Now().Format("15:04:05") + " " + fmt.Sprintf(format, args...)
	s.Logs = append(s.Logs, line)
	if len(s.Logs) > maxLogLines {
		s.Logs = s.Logs[len(s.Logs)-maxLogLines:]
	}
}

// RecordPageYield notes how many records a page produced.
func (s *JobState) RecordPageYield(page, yield int) {
	if s.PageYields == nil {
		s.PageYields = make(map[int]int)
	}
	s.PageYields[page] = yield
}

// RecordFailedPage adds a page to the failed set once.
func (s *JobState) RecordFailedPage(page int) {
	for _, p := range s.FailedPages {
		if p == page {
			return
		}
	}
	s.FailedPages = append(s.FailedPages, page)
}

// Finish transitions into a terminal status with an end timestamp.
func (s *JobState) Finish(status Status, errMsg string) {
	now := time.Now().UTC()
	s.Status = status
	s.EndedAt = &now
	s.Error = errMsg
}

// IsActive reports whether a background run owns this state.
func (s *JobState) IsActive() bool {
	return s.Status == StatusProcessing
}

// Validate checks invariants after loading persisted state. Unknown legacy
// fields deserialize as defaults; structural violations are errors.
func (s *JobState) Validate() error {
	if s.Version > CurrentVersion {
		return fmt.Errorf("job state version %d is newer than supported %d", s.Version, CurrentVersion)
	}
	if s.Status == "" {
		return fmt.Errorf("job state has no status")
	}
	if s.TotalPages > 0 && s.Cursor > s.TotalPages {
		return fmt.Errorf("cursor %d exceeds total pages %d", s.Cursor, s.TotalPages)
	}
	return nil
}

// normalize fills nil collections on legacy states.
func (s *JobState) normalize() {
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	if s.FailedPages == nil {
		s.FailedPages = []int{}
	}
	if s.Logs == nil {
		s.Logs = []string{}
	}
}

// Clone returns a deep copy safe to hand to readers while the worker keeps
// mutating the original.
func (s *JobState) Clone() *JobState {
	cp := *s
	cp.FailedPages = append([]int(nil), s.FailedPages...)
	cp.Logs = append([]string(nil), s.Logs...)
	if s.PageYields != nil {
		cp.PageYields = make(map[int]int, len(s.PageYields))
		for k, v := range s.PageYields {
			cp.PageYields[k] = v
		}
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}
