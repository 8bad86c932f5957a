package records

import (
	"context"
	"strings"
	"testing"
)

func sampleCandidate() *Candidate {
	return &Candidate{
		Stem:       "Which of the following is the longest bone in the human body?",
		OptionA:    "Femur",
		OptionB:    "Tibia",
		OptionC:    "Humerus",
		OptionD:    "Fibula",
		OptionE:    "Radius",
		Correct:    "A",
		Topics:     []string{"Anatomy"},
		Year:       2019,
		Cohort:     "May",
		Confidence: 0.92,
	}
}

func TestFromCandidate(t *testing.T) {
	c := sampleCandidate()
	q := FromCandidate(c, "gpt-4o-mini", "anatomy-2019.pdf", 12)

	if q.Stem != c.Stem {
		t.Errorf("stem mismatch: %q", q.Stem)
	}
	if q.Status != StatusUnverified {
		t.Errorf("expected new questions unverified, got %s", q.Status)
	}
	if q.Model != "gpt-4o-mini" || q.Document != "anatomy-2019.pdf" || q.Page != 12 {
		t.Errorf("provenance not carried: %+v", q)
	}
	if q.ID != "" {
		t.Error("ID should be assigned by the store, not the converter")
	}
}

func TestStemPrefix(t *testing.T) {
	c := &Candidate{Stem: "  short stem  "}
	if got := c.StemPrefix(100); got != "short stem" {
		t.Errorf("short stem should be returned whole, got %q", got)
	}

	long := strings.Repeat("x", 250)
	c = &Candidate{Stem: long}
	if got := c.StemPrefix(100); len(got) != 100 {
		t.Errorf("expected 100-char prefix, got %d chars", len(got))
	}
}

func TestMemoryStoreCreateAndFindSimilar(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	q := FromCandidate(sampleCandidate(), "gpt-4o-mini", "doc.pdf", 1)
	if err := store.Create(ctx, q); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if q.ID == "" {
		t.Fatal("Create should assign an ID")
	}

	matches, err := store.FindSimilar(ctx, "Which of the following is the longest", 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	matches, err = store.FindSimilar(ctx, "Completely different stem", 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestMemoryStoreUpdatePreservesStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	q := FromCandidate(sampleCandidate(), "m", "d.pdf", 1)
	q.Status = StatusApproved
	if err := store.Create(ctx, q); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	replacement := FromCandidate(sampleCandidate(), "m2", "d.pdf", 2)
	replacement.Status = ""
	if err := store.Update(ctx, q.ID, replacement); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, ok := store.Get(q.ID)
	if !ok {
		t.Fatal("question disappeared after update")
	}
	if got.Status != StatusApproved {
		t.Errorf("update must not reset verification status, got %s", got.Status)
	}
	if got.Model != "m2" {
		t.Errorf("content fields should be replaced, got model %s", got.Model)
	}
}

func TestMemoryStoreCountAndStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i, status := range []VerificationStatus{StatusUnverified, StatusApproved, StatusApproved} {
		q := FromCandidate(sampleCandidate(), "m", "d.pdf", i)
		q.Stem = q.Stem + strings.Repeat("!", i)
		q.Status = status
		if err := store.Create(ctx, q); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	n, err := store.Count(ctx, Filter{Status: StatusApproved})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 approved, got %d", n)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.ByStatus["approved"] != 2 || stats.ByStatus["unverified"] != 1 {
		t.Errorf("unexpected status breakdown: %+v", stats.ByStatus)
	}
}

func TestVocabularyCaching(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	vocab := NewVocabulary(store)

	topics, err := vocab.Topics(ctx)
	if err != nil {
		t.Fatalf("Topics failed: %v", err)
	}
	if len(topics) == 0 {
		t.Fatal("expected seeded default topics")
	}

	// Mutate the backing store; the cache should still serve the old list.
	store.mu.Lock()
	store.topics = append(store.topics, "Radiology")
	store.mu.Unlock()

	cached, err := vocab.Topics(ctx)
	if err != nil {
		t.Fatalf("Topics failed: %v", err)
	}
	if len(cached) != len(topics) {
		t.Errorf("expected cached list of %d, got %d", len(topics), len(cached))
	}

	vocab.Invalidate()
	fresh, err := vocab.Topics(ctx)
	if err != nil {
		t.Fatalf("Topics failed: %v", err)
	}
	if len(fresh) != len(topics)+1 {
		t.Errorf("expected fresh list after invalidation, got %d entries", len(fresh))
	}
}
