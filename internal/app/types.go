package app

import "time"

// LocationEntry tells where a waste type is collected and which source reported it
type LocationEntry struct {
	Location string `json:"location"`
	Source   string `json:"source"`
	Shell    int    `json:"shell"`
}

// UpcomingEvent is a collection enriched with its location entry
type UpcomingEvent struct {
	Date     time.Time `json:"date"`
	Type     string    `json:"type"`
	DaysTo   int       `json:"days_to"`
	Location string    `json:"location"`
	Source   string    `json:"source"`
}
