package source

// MemorySource is an in-memory document for tests.
type MemorySource struct {
	DocName string
	Pages   []string
}

func (s *MemorySource) Name() string   { return s.DocName }
func (s *MemorySource) PageCount() int { return len(s.Pages) }

func (s *MemorySource) PageText(pageNumber int) string {
	if pageNumber < 1 || pageNumber > len(s.Pages) {
		return ""
	}
	return s.Pages[pageNumber-1]
}

func (s *MemorySource) Close() error { return nil }
