package records

import "context"

// Filter narrows Count queries.
type Filter struct {
	Status VerificationStatus
	Topic  string
	Cohort string
}

// Stats summarizes the corpus for the statistics endpoint.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	ByCohort map[string]int `json:"by_cohort"`
}

// Store is the durable corpus the deduplication engine reads and mutates.
type Store interface {
	// FindSimilar returns stored questions whose stem begins with the given
	// prefix, up to limit. An exact-prefix match is a cheap pre-filter; the
	// caller applies the real similarity metric.
	FindSimilar(ctx context.Context, stemPrefix string, limit int) ([]*Question, error)

	// Create persists a new question, assigning ID and timestamps.
	Create(ctx context.Context, q *Question) error

	// Update replaces the content of an existing question by ID. The stored
	// verification status is preserved unless the caller sets one.
	Update(ctx context.Context, id string, q *Question) error

	// Count returns the number of stored questions matching the filter.
	Count(ctx context.Context, f Filter) (int, error)

	// Stats returns corpus-wide aggregates.
	Stats(ctx context.Context) (*Stats, error)

	// Topics returns the controlled vocabulary of allowed topical tags.
	Topics(ctx context.Context) ([]string, error)

	// Cohorts returns the controlled vocabulary of allowed cohort labels.
	Cohorts(ctx context.Context) ([]string, error)

	// Close releases store resources.
	Close() error
}
