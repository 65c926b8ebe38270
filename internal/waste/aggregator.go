package waste

import (
	"sort"
	"time"
)

// UpcomingOptions filters the result of Upcoming and UpcomingGroupByDay.
// Zero values disable the respective filter.
type UpcomingOptions struct {
	Count        int
	LeadTime     int
	IncludeToday bool
	IncludeTypes map[string]struct{}
	ExcludeTypes map[string]struct{}
}

// Aggregator merges the collections of several source shells
type Aggregator struct {
	shells []*SourceShell
}

// NewAggregator creates an aggregator over shells
func NewAggregator(shells []*SourceShell) *Aggregator {
	return &Aggregator{shells: shells}
}

// Shells returns the shells of the aggregator
func (a *Aggregator) Shells() []*SourceShell {
	return a.shells
}

// Types returns the sorted set of waste types known to the aggregator
func (a *Aggregator) Types() []string {
	seen := make(map[string]struct{})
	for _, shell := range a.shells {
		for _, c := range shell.Collections {
			seen[c.Type] = struct{}{}
		}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Upcoming returns the collections from today on, sorted by date and type
func (a *Aggregator) Upcoming(now time.Time, opts UpcomingOptions) []Collection {
	entries := a.filter(now, opts)
	if opts.Count > 0 && len(entries) > opts.Count {
		entries = entries[:opts.Count]
	}
	return entries
}

// UpcomingGroupByDay returns the upcoming collections grouped by date.
// Count limits the number of days, not the number of collections.
func (a *Aggregator) UpcomingGroupByDay(now time.Time, opts UpcomingOptions) []CollectionGroup {
	entries := a.filter(now, opts)

	var groups []CollectionGroup
	for _, e := range entries {
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(e.Date) {
			if !contains(groups[n-1].Types, e.Type) {
				groups[n-1].Types = append(groups[n-1].Types, e.Type)
			}
			continue
		}
		groups = append(groups, CollectionGroup{
			Date:   e.Date,
			Types:  []string{e.Type},
			DaysTo: e.DaysTo,
		})
	}

	if opts.Count > 0 && len(groups) > opts.Count {
		groups = groups[:opts.Count]
	}
	return groups
}

func (a *Aggregator) filter(now time.Time, opts UpcomingOptions) []Collection {
	today := Day(now)
	var entries []Collection
	for _, shell := range a.shells {
		for _, c := range shell.Collections {
			days := DaysBetween(today, c.Date)
			if days < 0 || (days == 0 && !opts.IncludeToday) {
				continue
			}
			if opts.LeadTime > 0 && days >= opts.LeadTime {
				continue
			}
			if opts.IncludeTypes != nil {
				if _, ok := opts.IncludeTypes[c.Type]; !ok {
					continue
				}
			}
			if _, ok := opts.ExcludeTypes[c.Type]; ok {
				continue
			}
			c.DaysTo = days
			entries = append(entries, c)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].Type < entries[j].Type
	})
	return entries
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
