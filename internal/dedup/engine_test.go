package dedup

import (
	"context"
	"strings"
	"testing"

	"github.com/pastq-dev/pastq/internal/records"
)

const stem = "Which of the following muscles is the primary flexor of the forearm at the elbow joint?"

func newCandidate(confidence float64) *records.Candidate {
	return &records.Candidate{
		Stem:       stem,
		OptionA:    "Biceps brachii",
		OptionB:    "Triceps brachii",
		OptionC:    "Deltoid",
		OptionD:    "Brachioradialis",
		OptionE:    "Supinator",
		Correct:    "A",
		Topics:     []string{"Anatomy"},
		Year:       2019,
		Cohort:     "May",
		Confidence: confidence,
	}
}

func seedExisting(t *testing.T, store *records.MemoryStore, status records.VerificationStatus, confidence float64) *records.Question {
	t.Helper()
	q := records.FromCandidate(newCandidate(confidence), "m", "d.pdf", 1)
	q.Status = status
	if err := store.Create(context.Background(), q); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return q
}

func TestResolveCreateOnEmptyCorpus(t *testing.T) {
	store := records.NewMemoryStore()
	eng := NewEngine(store, 0.8, 0.1)

	d, err := eng.Resolve(context.Background(), newCandidate(0.9), false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Action != ActionCreate {
		t.Errorf("expected CREATE, got %s", d.Action)
	}
}

func TestResolveSkipVerified(t *testing.T) {
	store := records.NewMemoryStore()
	seedExisting(t, store, records.StatusApproved, 0.75)
	eng := NewEngine(store, 0.8, 0.1)

	d, err := eng.Resolve(context.Background(), newCandidate(0.6), false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Action != ActionSkip {
		t.Fatalf("expected SKIP for approved duplicate, got %s", d.Action)
	}
	if d.Reason != SkipReasonVerified {
		t.Errorf("expected reason %q, got %q", SkipReasonVerified, d.Reason)
	}
}

func TestResolveVerifiedNeverDowngraded(t *testing.T) {
	store := records.NewMemoryStore()
	existing := seedExisting(t, store, records.StatusApproved, 0.2)
	eng := NewEngine(store, 0.8, 0.1)

	// Even a maximally confident candidate must not touch an approved item.
	d, err := eng.Resolve(context.Background(), newCandidate(1.0), false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Action != ActionSkip || d.Reason != SkipReasonVerified {
		t.Fatalf("expected SKIP(verified), got %s(%s)", d.Action, d.Reason)
	}

	stored, _ := store.Get(existing.ID)
	if stored.Confidence != 0.2 || stored.Status != records.StatusApproved {
		t.Error("approved record must be unchanged after Resolve")
	}
}

func TestResolveUpdateOnHigherConfidence(t *testing.T) {
	store := records.NewMemoryStore()
	existing := seedExisting(t, store, records.StatusUnverified, 0.75)
	eng := NewEngine(store, 0.8, 0.1)

	d, err := eng.Resolve(context.Background(), newCandidate(0.9), false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Action != ActionUpdate {
		t.Fatalf("0.9 vs 0.75 exceeds the 0.1 margin, expected UPDATE, got %s", d.Action)
	}
	if d.Target == nil || d.Target.ID != existing.ID {
		t.Error("decision should carry the matched record")
	}
}

func TestResolveSkipWithinMargin(t *testing.T) {
	store := records.NewMemoryStore()
	seedExisting(t, store, records.StatusUnverified, 0.75)
	eng := NewEngine(store, 0.8, 0.1)

	// 0.8 vs 0.75 is inside the margin and the stem is no longer.
	d, err := eng.Resolve(context.Background(), newCandidate(0.8), false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Action != ActionSkip {
		t.Fatalf("expected SKIP inside the confidence margin, got %s", d.Action)
	}
	if d.Reason != SkipReasonExisting {
		t.Errorf("expected reason %q, got %q", SkipReasonExisting, d.Reason)
	}
}

func TestResolveUpdateOnLongerStem(t *testing.T) {
	store := records.NewMemoryStore()
	seedExisting(t, store, records.StatusUnverified, 0.75)
	eng := NewEngine(store, 0.8, 0.1)

	c := newCandidate(0.7) // lower confidence, but a fuller stem
	c.Stem = stem + " " + strings.Repeat("including the relevant anatomy ", 2)
	d, err := eng.Resolve(context.Background(), c, false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Action != ActionUpdate {
		t.Errorf("a 20%%-longer stem should win, got %s", d.Action)
	}
}

func TestResolveOverwriteBypassesPolicy(t *testing.T) {
	store := records.NewMemoryStore()
	seedExisting(t, store, records.StatusApproved, 0.99)
	eng := NewEngine(store, 0.8, 0.1)

	d, err := eng.Resolve(context.Background(), newCandidate(0.1), true)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Action != ActionUpdate {
		t.Errorf("overwrite should force UPDATE even on approved items, got %s", d.Action)
	}
}

func TestResolveBelowThresholdCreates(t *testing.T) {
	store := records.NewMemoryStore()
	q := records.FromCandidate(newCandidate(0.9), "m", "d.pdf", 1)
	// Same prefix so the pre-filter finds it, but mostly different tokens.
	q.Stem = stem[:40] + " entirely different continuation about cardiac physiology and conduction"
	if err := store.Create(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	eng := NewEngine(store, 0.8, 0.1)

	c := newCandidate(0.9)
	c.Stem = stem[:40] + " some other unrelated ending about renal tubular acidosis instead"
	d, err := eng.Resolve(context.Background(), c, false)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Action != ActionCreate {
		t.Errorf("below-threshold similarity should CREATE, got %s", d.Action)
	}
}
