package waste

import (
	"context"
	"fmt"
	"time"
)

// SourceShell wraps a configured source together with the collections of its last fetch
type SourceShell struct {
	Name          string
	Title         string
	URL           string
	CalendarTitle string
	Customize     map[string]Customize

	Collections []Collection
	RefreshTime time.Time

	fetcher Fetcher
	index   int
}

// NewSourceShell creates a shell for fetcher. index identifies the shell
// within its aggregator and is stamped on every fetched collection.
func NewSourceShell(name, title, url, calendarTitle string, index int, customize map[string]Customize, fetcher Fetcher) *SourceShell {
	if calendarTitle == "" {
		calendarTitle = title
	}
	return &SourceShell{
		Name:          name,
		Title:         title,
		URL:           url,
		CalendarTitle: calendarTitle,
		Customize:     customize,
		fetcher:       fetcher,
		index:         index,
	}
}

// Index returns the position of the shell in its aggregator
func (s *SourceShell) Index() int {
	return s.index
}

// Fetch retrieves the collections from the source and applies the customization.
// On error the collections of the previous fetch are kept.
func (s *SourceShell) Fetch(ctx context.Context, now time.Time) error {
	if s.fetcher == nil {
		return fmt.Errorf("source %s has no fetcher", s.Name)
	}

	entries, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", s.Name, err)
	}

	collections := make([]Collection, 0, len(entries))
	for _, entry := range entries {
		entry, ok := s.customize(entry)
		if !ok {
			continue
		}
		entry.Date = Day(entry.Date)
		entry.Shell = s.index
		collections = append(collections, entry)
	}

	s.Collections = collections
	s.RefreshTime = now
	return nil
}

func (s *SourceShell) customize(c Collection) (Collection, bool) {
	custom, ok := s.Customize[c.Type]
	if !ok {
		return c, true
	}
	if !custom.Show {
		return c, false
	}
	if custom.Alias != "" {
		c.Type = custom.Alias
	}
	return c, true
}
