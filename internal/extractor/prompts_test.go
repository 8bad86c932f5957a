package extractor

import (
	"strings"
	"testing"
)

func TestDefaultNameHint(t *testing.T) {
	tests := []struct {
		document string
		year     int
		cohort   string
	}{
		{"anatomy-may-2019.pdf", 2019, "may"},
		{"PHYSIOLOGY_JANUARY_2021.PDF", 2021, "january"},
		{"surgery-questions.pdf", 0, ""},
		{"past-questions-1995.pdf", 1995, ""},
		{"november-intake.pdf", 0, "november"},
	}

	for _, tt := range tests {
		t.Run(tt.document, func(t *testing.T) {
			year, cohort := DefaultNameHint(tt.document)
			if year != tt.year || cohort != tt.cohort {
				t.Errorf("DefaultNameHint(%q) = (%d, %q), want (%d, %q)",
					tt.document, year, cohort, tt.year, tt.cohort)
			}
		})
	}
}

func TestPromptEmbedsVocabularyAndText(t *testing.T) {
	b := newPromptBuilder(
		[]string{"Anatomy", "Physiology"},
		[]string{"January", "May", "unknown"},
		1980, 2030, DefaultNameHint)

	prompt := b.Build("Q1. Which bone is longest?", "anatomy-may-2019.pdf")

	for _, want := range []string{
		"Anatomy, Physiology",
		"January, May, unknown",
		"between 1980 and 2030",
		"Q1. Which bone is longest?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestPromptHintPriority(t *testing.T) {
	b := newPromptBuilder(
		[]string{"Anatomy"},
		[]string{"May", "unknown"},
		1980, 2030, DefaultNameHint)

	// Filename carries both hints, mapped onto the vocabulary's casing.
	prompt := b.Build("text", "anatomy-may-2019.pdf")
	if !strings.Contains(prompt, "year 2019") || !strings.Contains(prompt, `"May"`) {
		t.Errorf("expected filename hints in prompt:\n%s", prompt)
	}

	// No filename signal: the unknown fallback alone applies.
	prompt = b.Build("text", "scanned.pdf")
	if !strings.Contains(prompt, "no hint") {
		t.Errorf("expected no-hint wording:\n%s", prompt)
	}
	if !strings.Contains(prompt, `cohort "unknown"`) {
		t.Errorf("expected unknown fallback:\n%s", prompt)
	}
}

func TestPromptPluggableNameHint(t *testing.T) {
	custom := func(document string) (int, string) { return 1999, "January" }
	b := newPromptBuilder([]string{"Anatomy"}, []string{"January"}, 1980, 2030, custom)

	prompt := b.Build("text", "whatever.pdf")
	if !strings.Contains(prompt, "year 1999") {
		t.Errorf("custom hint strategy not used:\n%s", prompt)
	}
}
