package waste

import (
	"context"
	"time"
)

// Collection is a single pickup of one waste type on one day
type Collection struct {
	Date   time.Time `json:"date"`
	Type   string    `json:"type"`
	DaysTo int       `json:"days_to"`
	Shell  int       `json:"shell"`
}

// CollectionGroup bundles all waste types collected on the same day
type CollectionGroup struct {
	Date   time.Time `json:"date"`
	Types  []string  `json:"types"`
	DaysTo int       `json:"days_to"`
}

// Customize renames or hides a waste type delivered by a source
type Customize struct {
	WasteType string
	Alias     string
	Show      bool
}

// Fetcher is implemented by every source provider
type Fetcher interface {
	Fetch(ctx context.Context) ([]Collection, error)
}

// Day truncates t to its calendar date. Dates are kept in UTC so that day
// arithmetic is unaffected by daylight saving changes.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from today to date.
func DaysBetween(today, date time.Time) int {
	return int(Day(date).Sub(Day(today)).Hours() / 24)
}
