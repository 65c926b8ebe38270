package config

import "time"

const (
	DefaultUpdateInterval        = 60 * time.Minute
	DefaultUpdateSourcesInterval = 7 * 24 * time.Hour
	DefaultWeekdayMapping        = "Montag,Dienstag,Mittwoch,Donnerstag,Freitag,Samstag,Sonntag"
	DefaultDaySwitchTime         = "12:00"
	DefaultSourcesText           = "{}"
)

var defaultWeekdays = [7]string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag", "Sonntag"}

// Default returns the attributes of a freshly defined module
func Default() Attributes {
	return Attributes{
		UpdateInterval:        DefaultUpdateInterval,
		UpdateSourcesInterval: DefaultUpdateSourcesInterval,
		SourcesText:           DefaultSourcesText,
		WeekdayMapping:        defaultWeekdays,
		DaySwitchTime:         ClockTime{Hour: 12},
	}
}
