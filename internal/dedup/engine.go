// Package dedup decides whether an extracted candidate creates a new corpus
// item, improves an existing one, or is discarded as a duplicate.
package dedup

import (
	"context"
	"fmt"

	"github.com/pastq-dev/pastq/internal/records"
)

// Action is the store mutation a merge decision calls for.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
)

// Skip reasons surfaced in decisions and job counters.
const (
	SkipReasonVerified = "verified"
	SkipReasonExisting = "existing is better or equal"
)

const (
	// stemPrefixLen is the cheap pre-filter key length for similarity search.
	stemPrefixLen = 100
	// searchLimit bounds how many pre-filter matches are scored per candidate.
	searchLimit = 10
)

// Decision is the outcome of resolving one candidate against the corpus.
type Decision struct {
	Action Action
	// Target is the matched existing record for UPDATE and SKIP decisions.
	Target *records.Question
	// Reason explains SKIP decisions.
	Reason string
	// Score is the similarity against Target, zero for CREATE.
	Score float64
}

// Engine resolves candidates against the existing corpus.
//
// The merge policy is deliberately asymmetric: a human-approved item is
// never replaced by model output unless the caller explicitly overwrites.
type Engine struct {
	store               records.Store
	similarityThreshold float64
	confidenceMargin    float64
}

// NewEngine creates a merge engine with the given tunables.
func NewEngine(store records.Store, similarityThreshold, confidenceMargin float64) *Engine {
	if similarityThreshold <= 0 {
		similarityThreshold = 0.8
	}
	if confidenceMargin <= 0 {
		confidenceMargin = 0.1
	}
	return &Engine{
		store:               store,
		similarityThreshold: similarityThreshold,
		confidenceMargin:    confidenceMargin,
	}
}

// Resolve computes the merge decision for one candidate.
func (e *Engine) Resolve(ctx context.Context, c *records.Candidate, overwrite bool) (*Decision, error) {
	matches, err := e.store.FindSimilar(ctx, c.StemPrefix(stemPrefixLen), searchLimit)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	best, bestScore := e.bestMatch(c, matches)
	if best == nil {
		return &Decision{Action: ActionCreate}, nil
	}

	if overwrite {
		return &Decision{Action: ActionUpdate, Target: best, Score: bestScore}, nil
	}

	if best.Status == records.StatusApproved {
		return &Decision{
			Action: ActionSkip,
			Target: best,
			Reason: SkipReasonVerified,
			Score:  bestScore,
		}, nil
	}

	if e.candidateImproves(c, best) {
		return &Decision{Action: ActionUpdate, Target: best, Score: bestScore}, nil
	}
	return &Decision{
		Action: ActionSkip,
		Target: best,
		Reason: SkipReasonExisting,
		Score:  bestScore,
	}, nil
}

// bestMatch scores pre-filter matches and returns the highest scorer above
// the similarity threshold, or nil when nothing qualifies.
func (e *Engine) bestMatch(c *records.Candidate, matches []*records.Question) (*records.Question, float64) {
	var best *records.Question
	var bestScore float64
	for _, q := range matches {
		score := Similarity(c.Stem, q.Stem)
		if score > e.similarityThreshold && score > bestScore {
			best = q
			bestScore = score
		}
	}
	return best, bestScore
}

// candidateImproves reports whether the candidate should replace an
// unverified existing record: clearly higher confidence, or a notably
// longer stem (a proxy for completeness).
func (e *Engine) candidateImproves(c *records.Candidate, existing *records.Question) bool {
	if c.Confidence > existing.Confidence+e.confidenceMargin {
		return true
	}
	return float64(len(c.Stem)) >= 1.2*float64(len(existing.Stem))
}
