package app

import "time"

// Constants
const (
	subsystem          = "Module"
	fetchSubsystem     = "Fetch"
	daySwitchSubsystem = "DaySwitch"
	httpSubsystem      = "HTTP"

	// Reading names
	ReadingState           = "state"
	ReadingNext            = "next"
	ReadingNames           = ".readingnames"
	ReadingLastEventUpdate = "_lasteventupdate"

	// State values
	StateInitialized   = "initialized"
	StateUpdating      = "updating"
	StateFinished      = "update finished"
	StateFailed        = "update readings failed"
	StateNoSources     = "no sources found or definition is wrong"
	NotFound           = "not found"
	DescriptionSuffix  = " nicht vergessen!"
	MultiTypeSeparator = " und "

	// DefaultIcon is the icon the host shows for a freshly defined device
	DefaultIcon = "Abfalltonne"

	// Layouts
	LastEventUpdateLayout = "2006-01-02 15:04:05"
	ReadingDateLayout     = "02.01.2006"

	// LeadTime limits the per-type readings to the next days
	LeadTime = 30

	// ICS constants
	ICSProductID = "-//Abfall//FHEM Abfallkalender//DE"

	// Error messages
	ErrInternalServer = "Internal server error"
	ErrNotFound       = "Reading not found"
)

// readingSuffixes are the fields written for every waste type and for next
var readingSuffixes = []string{"", "_date", "_days", "_description", "_location", "_text", "_weekday", "_source"}

// requestTimeout bounds store access from HTTP handlers
const requestTimeout = 10 * time.Second
