package config

import (
	"fmt"
	"time"
)

// Attribute names as used by the host platform's attr command
const (
	AttrUpdateInterval        = "Updateinterval"
	AttrOnlyNextReading       = "OnlyNextReading"
	AttrUpdateSourcesInterval = "UpdateSourcesInterval"
	AttrSources               = "Sources"
	AttrExcludedWastetypes    = "ExcludedWastetypes"
	AttrWeekdayMapping        = "WeekdayMapping"
	AttrDaySwitchTime         = "DaySwitchTime"
)

// ClockTime is a time of day in HH:MM
type ClockTime struct {
	Hour   int
	Minute int
}

// String formats the clock time as HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the clock time on the date of t, in t's location
func (c ClockTime) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

// CustomizeDefinition renames or hides a waste type of a single source
type CustomizeDefinition struct {
	Type  string `yaml:"type"`
	Alias string `yaml:"alias,omitempty"`
	Show  *bool  `yaml:"show,omitempty"`
}

// SourceDefinition configures one source shell
type SourceDefinition struct {
	Name      string                `yaml:"name"`
	Args      map[string]any        `yaml:"args"`
	Location  string                `yaml:"location"`
	Customize []CustomizeDefinition `yaml:"customize,omitempty"`
}

// Attributes is the validated module configuration
type Attributes struct {
	UpdateInterval        time.Duration
	OnlyNextReading       bool
	UpdateSourcesInterval time.Duration
	Sources               []SourceDefinition
	SourcesText           string
	ExcludedWastetypes    []string
	WeekdayMapping        [7]string
	DaySwitchTime         ClockTime

	// Secrets resolves !secret tags in the Sources attribute
	Secrets Secrets
}

// ExcludedSet returns the excluded waste types as a set
func (a Attributes) ExcludedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(a.ExcludedWastetypes))
	for _, t := range a.ExcludedWastetypes {
		set[t] = struct{}{}
	}
	return set
}

// Weekday returns the configured name for wd
func (a Attributes) Weekday(wd time.Weekday) string {
	// the mapping starts with Monday
	return a.WeekdayMapping[(int(wd)+6)%7]
}

// fileConfig is the YAML layout of the attributes file
type fileConfig struct {
	UpdateInterval        int                `yaml:"updateInterval"`
	OnlyNextReading       bool               `yaml:"onlyNextReading"`
	UpdateSourcesInterval int                `yaml:"updateSourcesInterval"`
	ExcludedWastetypes    []string           `yaml:"excludedWastetypes"`
	WeekdayMapping        string             `yaml:"weekdayMapping"`
	DaySwitchTime         string             `yaml:"daySwitchTime"`
	Sources               []SourceDefinition `yaml:"sources"`
}

// sourcesDocument is the layout of the Sources attribute
type sourcesDocument struct {
	Sources []SourceDefinition `yaml:"sources"`
}
