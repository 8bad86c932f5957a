package recovery

import (
	"regexp"
	"strings"
)

// The model frequently wraps its JSON in prose or markdown and makes small
// syntax mistakes. Each helper below fixes exactly one class of damage; the
// parser applies them in order and reparses after each.

// sliceArray returns the text between the first '[' and the last ']',
// inclusive. Empty string when no array brackets are present.
func sliceArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// stripCodeFences removes markdown code-fence lines anywhere in the text.
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

var trailingComma = regexp.MustCompile(`,\s*([\]}])`)

// removeTrailingCommas drops commas immediately before a closing bracket.
func removeTrailingCommas(s string) string {
	return trailingComma.ReplaceAllString(s, "$1")
}

var (
	missingObjectComma = regexp.MustCompile(`}\s*{`)
	missingArrayComma  = regexp.MustCompile(`]\s*\[`)
)

// insertMissingCommas joins adjacent objects/arrays the model concatenated
// without a separator.
func insertMissingCommas(s string) string {
	s = missingObjectComma.ReplaceAllString(s, "},{")
	return missingArrayComma.ReplaceAllString(s, "],[")
}

// embeddedQuote matches a string value whose closing quote is followed by
// something other than a JSON delimiter, meaning the quote was part of the
// text rather than a terminator.
var embeddedQuote = regexp.MustCompile(`("(?:question|option_[a-e]|correct_answer|cohort|explanation)"\s*:\s*"(?:[^"\\]|\\.)*)"(\s*[^,}\]\s])`)

// escapeEmbeddedQuotes conservatively escapes quotes inside option and stem
// text. Bounded iterations so pathological input cannot loop forever.
func escapeEmbeddedQuotes(s string) string {
	for i := 0; i < 32; i++ {
		repaired := embeddedQuote.ReplaceAllString(s, `$1\"$2`)
		if repaired == s {
			return s
		}
		s = repaired
	}
	return s
}

// repairs are applied cumulatively, reparsing after each step.
var repairs = []func(string) string{
	stripCodeFences,
	removeTrailingCommas,
	insertMissingCommas,
	escapeEmbeddedQuotes,
}

var (
	fencedBlock  = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	greedyArray  = regexp.MustCompile(`\[[\s\S]*\]`)
	minimalArray = regexp.MustCompile(`\[[^\[\]]*\]`)
)

// extractionStrategies produce candidate substrings when bracket slicing
// fails to yield parseable JSON. Tried in order.
func extractionStrategies(raw string) []string {
	var out []string
	if m := fencedBlock.FindStringSubmatch(raw); len(m) == 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if m := greedyArray.FindString(raw); m != "" {
		out = append(out, m)
	}
	if m := minimalArray.FindString(raw); m != "" {
		out = append(out, m)
	}
	return out
}
