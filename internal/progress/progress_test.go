package progress

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleState() *JobState {
	s := NewIdleState()
	s.JobID = "job-123"
	s.Status = StatusProcessing
	s.Document = "exam.pdf"
	s.Cursor = 42
	s.TotalPages = 200
	s.StartPage = 1
	s.MaxPages = 200
	s.Model = "gpt-4o-mini"
	s.StartedAt = time.Now().UTC().Truncate(time.Second)
	s.Counters = Counters{Created: 10, Updated: 2, VerifiedSkipped: 1, Skipped: 3}
	s.RecordPageYield(42, 4)
	s.RecordFailedPage(7)
	s.AddLog("processed page %d", 42)
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extraction_state.json")
	store := NewFileStore(path)

	want := sampleState()
	if err := store.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil after Save")
	}
	if got.JobID != want.JobID || got.Cursor != want.Cursor || got.Status != want.Status {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Counters != want.Counters {
		t.Errorf("counters mismatch: %+v", got.Counters)
	}
	if len(got.FailedPages) != 1 || got.FailedPages[0] != 7 {
		t.Errorf("failed pages mismatch: %v", got.FailedPages)
	}
	if got.PageYields[42] != 4 {
		t.Errorf("page yields mismatch: %v", got.PageYields)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load of missing state should not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil state, got %+v", got)
	}
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)

	if err := store.Save(sampleState()); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("state file should be removed")
	}
	// Clearing again is a no-op.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear should not error: %v", err)
	}
}

func TestFileStoreRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	data := `{"version": 99, "status": "stopped"}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(path).Load()
	if err == nil {
		t.Error("expected error loading a newer state version")
	}
}

func TestFileStoreLegacyStateGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	// No version field, no collections: a state written by an older build.
	data := `{"status": "stopped", "cursor": 10, "totalPages": 50}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("legacy state should load: %v", err)
	}
	if got.Version != CurrentVersion {
		t.Errorf("legacy state should be upgraded to version %d, got %d", CurrentVersion, got.Version)
	}
	if got.FailedPages == nil || got.Logs == nil {
		t.Error("nil collections should be normalized to empty")
	}
}

func TestFileStoreRejectsCursorPastEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	data := `{"version": 1, "status": "stopped", "cursor": 60, "totalPages": 50}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Error("cursor past totalPages should fail validation")
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	s := sampleState()
	if err := store.Save(s); err != nil {
		t.Fatal(err)
	}

	// Mutating the original must not affect the stored copy.
	s.Cursor = 999
	s.FailedPages = append(s.FailedPages, 8)

	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.Cursor != 42 {
		t.Errorf("stored state should be isolated, cursor = %d", got.Cursor)
	}
	if len(got.FailedPages) != 1 {
		t.Errorf("stored failed pages should be isolated: %v", got.FailedPages)
	}
}

func TestAddLogTrims(t *testing.T) {
	s := NewIdleState()
	for i := 0; i < maxLogLines+50; i++ {
		s.AddLog("line %d", i)
	}
	if len(s.Logs) != maxLogLines {
		t.Errorf("log buffer should cap at %d, got %d", maxLogLines, len(s.Logs))
	}
	if !strings.Contains(s.Logs[len(s.Logs)-1], "line 549") {
		t.Errorf("latest line should survive trimming, got %q", s.Logs[len(s.Logs)-1])
	}
}

func TestRecordFailedPageDedupes(t *testing.T) {
	s := NewIdleState()
	s.RecordFailedPage(5)
	s.RecordFailedPage(5)
	s.RecordFailedPage(6)
	if len(s.FailedPages) != 2 {
		t.Errorf("failed pages should be a set: %v", s.FailedPages)
	}
}

func TestFinish(t *testing.T) {
	s := sampleState()
	s.Finish(StatusStopped, "")
	if s.Status != StatusStopped {
		t.Errorf("status = %s", s.Status)
	}
	if s.EndedAt == nil {
		t.Error("Finish should set the end timestamp")
	}
	if s.IsActive() {
		t.Error("finished job should not be active")
	}
}
