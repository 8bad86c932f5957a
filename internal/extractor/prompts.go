package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NameHintFunc infers a fallback year and cohort from a document name.
// Either return may be zero-valued when the name carries no signal. This is
// a pluggable strategy; DefaultNameHint covers common naming conventions.
type NameHintFunc func(document string) (year int, cohort string)

var yearInName = regexp.MustCompile(`(19|20)\d{2}`)

// DefaultNameHint scans the filename for a four-digit year and a known
// cohort month. "anatomy-may-2019.pdf" yields (2019, "may").
func DefaultNameHint(document string) (int, string) {
	lower := strings.ToLower(document)

	year := 0
	if m := yearInName.FindString(lower); m != "" {
		year, _ = strconv.Atoi(m)
	}

	cohort := ""
	for _, month := range []string{
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
	} {
		if strings.Contains(lower, month) {
			cohort = month
			break
		}
	}
	return year, cohort
}

// promptBuilder renders the per-page extraction prompt, embedding the page
// text, the controlled vocabulary, and priority-ordered year/cohort hints.
type promptBuilder struct {
	topics   []string
	cohorts  []string
	yearMin  int
	yearMax  int
	nameHint NameHintFunc
}

func newPromptBuilder(topics, cohorts []string, yearMin, yearMax int, nameHint NameHintFunc) *promptBuilder {
	return &promptBuilder{
		topics:   topics,
		cohorts:  cohorts,
		yearMin:  yearMin,
		yearMax:  yearMax,
		nameHint: nameHint,
	}
}

// Build renders the prompt for one page.
func (b *promptBuilder) Build(pageText, document string) string {
	var sb strings.Builder

	sb.WriteString("You are extracting multiple-choice exam questions from one page of a past-questions document.\n")
	sb.WriteString("Return ONLY a JSON array. Each element must have exactly these fields:\n")
	sb.WriteString(`  "question", "option_a", "option_b", "option_c", "option_d", "option_e", "correct_answer", "topics", "year", "cohort", "confidence", "explanation"` + "\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("- \"correct_answer\" is a single letter A-E.\n")
	fmt.Fprintf(&sb, "- \"topics\" is a non-empty array drawn ONLY from: %s\n", strings.Join(b.topics, ", "))
	fmt.Fprintf(&sb, "- \"cohort\" is ONLY one of: %s\n", strings.Join(b.cohorts, ", "))
	fmt.Fprintf(&sb, "- \"year\" is an integer between %d and %d, or 0 if unknown.\n", b.yearMin, b.yearMax)
	sb.WriteString("- \"confidence\" is your extraction confidence between 0 and 1.\n")
	sb.WriteString("- If the page contains no complete questions, return [].\n\n")

	sb.WriteString("Determining year and cohort, in priority order:\n")
	sb.WriteString("1. Use any year or exam-sitting stated in the page text itself.\n")
	hintYear, hintCohort := b.nameHint(document)
	switch {
	case hintYear != 0 && hintCohort != "":
		fmt.Fprintf(&sb, "2. Otherwise use year %d and cohort %q from the document name.\n", hintYear, b.matchCohort(hintCohort))
	case hintYear != 0:
		fmt.Fprintf(&sb, "2. Otherwise use year %d from the document name.\n", hintYear)
	case hintCohort != "":
		fmt.Fprintf(&sb, "2. Otherwise use cohort %q from the document name.\n", b.matchCohort(hintCohort))
	default:
		sb.WriteString("2. The document name gives no hint.\n")
	}
	sb.WriteString("3. Otherwise use year 0 and cohort \"unknown\".\n\n")

	sb.WriteString("Page text:\n")
	sb.WriteString(pageText)
	return sb.String()
}

// matchCohort maps a lower-cased hint onto the controlled vocabulary's
// casing, falling back to the raw hint.
func (b *promptBuilder) matchCohort(hint string) string {
	for _, c := range b.cohorts {
		if strings.EqualFold(c, hint) {
			return c
		}
	}
	return hint
}
