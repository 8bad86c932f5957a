// Package records defines the exam-item corpus: extracted candidates, stored
// questions, and the store interface the extraction pipeline writes through.
package records

import (
	"strings"
	"time"
)

// VerificationStatus tracks the human-review state of a stored question.
type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusApproved   VerificationStatus = "approved"
	StatusRejected   VerificationStatus = "rejected"
)

// Candidate is one extracted item produced by a single page's model call,
// before validation and deduplication. Candidates are never persisted
// directly; only their accepted form is.
type Candidate struct {
	Stem       string   `json:"question"`
	OptionA    string   `json:"option_a"`
	OptionB    string   `json:"option_b"`
	OptionC    string   `json:"option_c"`
	OptionD    string   `json:"option_d"`
	OptionE    string   `json:"option_e"`
	Correct    string   `json:"correct_answer"`
	Topics     []string `json:"topics"`
	Year       int      `json:"year"`
	Cohort     string   `json:"cohort"`
	Rationale  string   `json:"explanation,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Question is a persisted corpus item.
type Question struct {
	ID         string             `json:"id"`
	Stem       string             `json:"question"`
	OptionA    string             `json:"option_a"`
	OptionB    string             `json:"option_b"`
	OptionC    string             `json:"option_c"`
	OptionD    string             `json:"option_d"`
	OptionE    string             `json:"option_e"`
	Correct    string             `json:"correct_answer"`
	Topics     []string           `json:"topics"`
	Year       int                `json:"year"`
	Cohort     string             `json:"cohort"`
	Rationale  string             `json:"explanation,omitempty"`
	Confidence float64            `json:"confidence"`
	Status     VerificationStatus `json:"status"`
	Model      string             `json:"model,omitempty"`
	Document   string             `json:"document,omitempty"`
	Page       int                `json:"page,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// FromCandidate builds a Question from an accepted candidate.
// ID and timestamps are assigned by the store.
func FromCandidate(c *Candidate, model, document string, page int) *Question {
	return &Question{
		Stem:       c.Stem,
		OptionA:    c.OptionA,
		OptionB:    c.OptionB,
		OptionC:    c.OptionC,
		OptionD:    c.OptionD,
		OptionE:    c.OptionE,
		Correct:    c.Correct,
		Topics:     c.Topics,
		Year:       c.Year,
		Cohort:     c.Cohort,
		Rationale:  c.Rationale,
		Confidence: c.Confidence,
		Status:     StatusUnverified,
		Model:      model,
		Document:   document,
		Page:       page,
	}
}

// StemPrefix returns the first n characters of the stem, used as the cheap
// pre-filter key for similarity search.
func (c *Candidate) StemPrefix(n int) string {
	s := strings.TrimSpace(c.Stem)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
