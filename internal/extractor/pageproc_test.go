package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/pastq-dev/pastq/internal/providers"
	"github.com/pastq-dev/pastq/internal/records"
	"github.com/pastq-dev/pastq/internal/source"
)

func newTestProcessor(t *testing.T, client providers.Client, src source.Source) (*processor, *records.MemoryStore) {
	t.Helper()
	o, store, _ := newTestOrchestrator(client, src)
	proc, err := o.newProcessor(context.Background(), src, client.Model())
	if err != nil {
		t.Fatalf("newProcessor failed: %v", err)
	}
	return proc, store
}

func TestProcessPageEmptyText(t *testing.T) {
	src := &source.MemorySource{DocName: "exam.pdf", Pages: []string{"", "  \n\t "}}
	client := providers.NewMockClient(candidateJSON("Should never be called for empty pages at all?"))
	proc, store := newTestProcessor(t, client, src)

	for page := 1; page <= 2; page++ {
		res, err := proc.ProcessPage(context.Background(), page, false)
		if err != nil {
			t.Fatalf("ProcessPage(%d) failed: %v", page, err)
		}
		if res.yield != 0 {
			t.Errorf("empty page should yield 0, got %d", res.yield)
		}
		found := false
		for _, line := range res.logs {
			if strings.Contains(line, "No text found") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected 'No text found' log for page %d, got %v", page, res.logs)
		}
	}

	if client.Calls() != 0 {
		t.Errorf("model must not be called for empty pages, got %d calls", client.Calls())
	}
	n, _ := store.Count(context.Background(), records.Filter{})
	if n != 0 {
		t.Errorf("no store writes expected, got %d records", n)
	}
}

func TestProcessPageCreatesRecord(t *testing.T) {
	src := &source.MemorySource{DocName: "anatomy-may-2019.pdf", Pages: pages(1)}
	client := providers.NewMockClient(candidateJSON("Which bone articulates with the acetabulum of the pelvis?"))
	proc, store := newTestProcessor(t, client, src)

	res, err := proc.ProcessPage(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("ProcessPage failed: %v", err)
	}
	if res.yield != 1 || res.created != 1 {
		t.Errorf("expected one created record, got %+v", res)
	}

	matches, _ := store.FindSimilar(context.Background(), "Which bone articulates", 5)
	if len(matches) != 1 {
		t.Fatalf("record not persisted")
	}
	q := matches[0]
	if q.Model != "mock-model" || q.Document != "anatomy-may-2019.pdf" || q.Page != 1 {
		t.Errorf("provenance missing: %+v", q)
	}
}

func TestProcessPageModelFailure(t *testing.T) {
	src := &source.MemorySource{DocName: "exam.pdf", Pages: pages(1)}
	client := providers.NewMockClient().Fail(providers.ErrModelTransport)
	proc, store := newTestProcessor(t, client, src)

	_, err := proc.ProcessPage(context.Background(), 1, false)
	if err == nil {
		t.Fatal("model failure should be a page-level error")
	}
	n, _ := store.Count(context.Background(), records.Filter{})
	if n != 0 {
		t.Errorf("no writes expected on model failure, got %d", n)
	}
}

func TestProcessPageSkipsVerifiedDuplicate(t *testing.T) {
	stem := "Which nerve innervates the deltoid muscle of the shoulder?"
	src := &source.MemorySource{DocName: "exam.pdf", Pages: pages(1)}
	client := providers.NewMockClient(candidateJSON(stem))
	proc, store := newTestProcessor(t, client, src)

	existing := records.FromCandidate(&records.Candidate{
		Stem: stem, OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d",
		OptionE: "e", Correct: "B", Topics: []string{"Anatomy"}, Confidence: 0.4,
	}, "old-model", "old.pdf", 9)
	existing.Status = records.StatusApproved
	if err := store.Create(context.Background(), existing); err != nil {
		t.Fatal(err)
	}

	res, err := proc.ProcessPage(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("ProcessPage failed: %v", err)
	}
	if res.yield != 0 {
		t.Errorf("verified skip is not yield, got %d", res.yield)
	}
	if res.verifiedSkipped != 1 {
		t.Errorf("expected verifiedSkipped=1, got %+v", res)
	}

	stored, _ := store.Get(existing.ID)
	if stored.Correct != "B" || stored.Confidence != 0.4 {
		t.Error("approved record content must be untouched")
	}
}

func TestProcessPageUpdatesUnverifiedDuplicate(t *testing.T) {
	stem := "Which nerve innervates the diaphragm in the human thorax?"
	src := &source.MemorySource{DocName: "exam.pdf", Pages: pages(1)}
	client := providers.NewMockClient(candidateJSON(stem))
	proc, store := newTestProcessor(t, client, src)

	existing := records.FromCandidate(&records.Candidate{
		Stem: stem, OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d",
		OptionE: "e", Correct: "B", Topics: []string{"Anatomy"}, Confidence: 0.4,
	}, "old-model", "old.pdf", 9)
	if err := store.Create(context.Background(), existing); err != nil {
		t.Fatal(err)
	}

	res, err := proc.ProcessPage(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("ProcessPage failed: %v", err)
	}
	if res.updated != 1 || res.yield != 1 {
		t.Errorf("0.9 vs 0.4 confidence should update, got %+v", res)
	}

	stored, _ := store.Get(existing.ID)
	if stored.Correct != "A" {
		t.Errorf("content should be replaced, correct = %s", stored.Correct)
	}
	if stored.Status != records.StatusUnverified {
		t.Errorf("status should be preserved, got %s", stored.Status)
	}
}

func TestProcessPageUnparseableResponse(t *testing.T) {
	src := &source.MemorySource{DocName: "exam.pdf", Pages: pages(1)}
	client := providers.NewMockClient("I could not find any questions on this page, sorry!")
	proc, store := newTestProcessor(t, client, src)

	res, err := proc.ProcessPage(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("unparseable output is not a page error: %v", err)
	}
	if res.yield != 0 {
		t.Errorf("expected zero yield, got %d", res.yield)
	}
	n, _ := store.Count(context.Background(), records.Filter{})
	if n != 0 {
		t.Errorf("no writes expected, got %d", n)
	}
}

func TestValidCandidate(t *testing.T) {
	base := func() *records.Candidate {
		return &records.Candidate{
			Stem:    "A stem that is clearly long enough to pass validation?",
			OptionA: "one", OptionB: "two", OptionC: "three",
			OptionD: "four", OptionE: "five",
			Correct: "C", Topics: []string{"Anatomy"},
		}
	}

	if !validCandidate(base()) {
		t.Fatal("base candidate should validate")
	}

	c := base()
	c.Stem = "short"
	if validCandidate(c) {
		t.Error("degenerate stem should fail")
	}

	c = base()
	c.OptionC = "  "
	if validCandidate(c) {
		t.Error("blank option should fail")
	}

	c = base()
	c.OptionA, c.OptionB, c.OptionC, c.OptionD, c.OptionE = "x", "x", "x", "x", "x"
	if validCandidate(c) {
		t.Error("identical options should fail")
	}

	c = base()
	c.Topics = nil
	if validCandidate(c) {
		t.Error("missing topics should fail")
	}

	c = base()
	c.Correct = "F"
	if validCandidate(c) {
		t.Error("bad answer letter should fail")
	}
}
