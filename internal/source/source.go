// Package source acquires page text from source documents.
package source

// Source is a paginated document the extraction pipeline reads from.
// Pages are 1-indexed.
type Source interface {
	// Name returns the document name used in job state and logs.
	Name() string

	// PageCount returns the total number of pages.
	PageCount() int

	// PageText returns the plain text of a page. Unreadable or empty pages
	// return "", never an error; the pipeline treats them as zero-yield.
	PageText(pageNumber int) string

	// Close releases any underlying file handles.
	Close() error
}
