package app

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klabast/wb-services/abfall-fhem/internal/waste"
	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

// Update runs one update pass. When the sources changed or the last fetch
// is older than UpdateSourcesInterval, a fetch is started in the background
// instead and the pass is repeated once it finished.
func (m *Module) Update(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(ctx)
}

// Trigger runs an update pass like Update and reports whether a fetch is
// running afterwards
func (m *Module) Trigger(ctx context.Context) (fetching bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	err = m.updateLocked(ctx)
	return m.fetching, err
}

// updateLocked runs the update pass (caller must hold mu)
func (m *Module) updateLocked(ctx context.Context) error {
	if err := m.setState(ctx, StateUpdating); err != nil {
		return err
	}

	m.checkSourcesLocked()
	m.checkNextFetchLocked(ctx)

	if m.fetchNeeded {
		m.startFetchLocked()
		logging.Info(subsystem, "Update for events started")
		return nil
	}

	now := m.now()
	agg := waste.NewAggregator(m.shells)
	m.buildLocationsLocked()

	state := StateFinished
	err := m.updateReadingsLocked(ctx, agg, now)
	if err != nil {
		state = StateFailed
		logging.Error(subsystem, err, "Error updating readings")
	} else {
		logging.Info(subsystem, "Update readings finished")
	}

	m.upcoming = m.enrich(agg.Upcoming(now, waste.UpcomingOptions{IncludeToday: m.includeToday}))
	var sb strings.Builder
	WriteICS(&sb, m.upcoming, now)
	m.ical = sb.String()

	if serr := m.setState(ctx, state); serr != nil && err == nil {
		err = serr
	}
	return err
}

// checkSourcesLocked flags a fetch when the source definitions differ from
// the ones of the last fetch
func (m *Module) checkSourcesLocked() {
	if !reflect.DeepEqual(m.attrs.Sources, m.sources) {
		logging.Info(subsystem, "Sources changed")
		m.fetchNeeded = true
	}
}

// checkNextFetchLocked flags a fetch when _lasteventupdate is missing,
// unparsable or older than UpdateSourcesInterval
func (m *Module) checkNextFetchLocked(ctx context.Context) {
	value, ok, err := m.store.Get(ctx, ReadingLastEventUpdate)
	if err != nil || !ok {
		m.fetchNeeded = true
		return
	}
	now := m.now()
	last, err := time.ParseInLocation(LastEventUpdateLayout, value, now.Location())
	if err != nil {
		m.fetchNeeded = true
		return
	}
	if now.After(last.Add(m.attrs.UpdateSourcesInterval)) {
		logging.Info(subsystem, "Update needed, last fetch %s", value)
		m.fetchNeeded = true
		return
	}
	logging.Debug(subsystem, "No update needed")
}

// buildLocationsLocked rebuilds the waste type lookup table from the shells
func (m *Module) buildLocationsLocked() {
	locations := make(map[string]LocationEntry)
	for i, shell := range m.shells {
		for _, t := range waste.NewAggregator([]*waste.SourceShell{shell}).Types() {
			locations[t] = LocationEntry{
				Location: shell.CalendarTitle,
				Source:   shell.Title,
				Shell:    i,
			}
			logging.Debug(subsystem, "Add waste type %s to source locations", t)
		}
	}
	m.locations = locations
}

func (m *Module) lookup(wasteType string) (LocationEntry, error) {
	entry, ok := m.locations[wasteType]
	if !ok {
		return LocationEntry{Location: NotFound, Source: NotFound},
			&Error{Kind: KindLookupMiss, Op: "lookup", Err: fmt.Errorf("no location for %s", wasteType)}
	}
	return entry, nil
}

func (m *Module) lookupOrWarn(wasteType string) LocationEntry {
	entry, err := m.lookup(wasteType)
	if err != nil {
		logging.Warn(subsystem, "No location found: %v", err)
	}
	return entry
}

// updateReadingsLocked writes the next readings and, unless OnlyNextReading
// is set, one reading set per waste type
func (m *Module) updateReadingsLocked(ctx context.Context, agg *waste.Aggregator, now time.Time) error {
	exclude := m.attrs.ExcludedSet()

	values := make(map[string]string)
	logging.Info(subsystem, "Update next reading")
	groups := agg.UpcomingGroupByDay(now, waste.UpcomingOptions{
		Count:        1,
		IncludeToday: m.includeToday,
		ExcludeTypes: exclude,
	})
	for _, g := range groups {
		m.addReadings(values, ReadingNext, m.groupFields(g))
	}
	if len(groups) == 0 {
		logging.Info(subsystem, "No upcoming collection, delete next readings")
		if err := m.deleteReadings(ctx, ReadingNext); err != nil {
			return err
		}
	}

	if m.attrs.OnlyNextReading {
		if err := m.store.Update(ctx, values); err != nil {
			return err
		}
		old, err := m.readingNames(ctx)
		if err != nil {
			return err
		}
		if len(old) > 0 {
			if err := m.deleteReadingSets(ctx, old); err != nil {
				return err
			}
			return m.writeReadingNames(ctx, nil)
		}
		return nil
	}

	logging.Info(subsystem, "Update single waste readings")
	entries := agg.Upcoming(now, waste.UpcomingOptions{
		LeadTime:     LeadTime,
		IncludeToday: m.includeToday,
		ExcludeTypes: exclude,
	})
	var labels []string
	owners := make(map[string]string)
	skipped := make(map[string]bool)
	for _, c := range entries {
		if slices.Contains(labels, c.Type) || skipped[c.Type] {
			continue
		}
		name := ReadingName(c.Type)
		if owner, ok := owners[name]; ok {
			logging.Warn(subsystem, "Waste types %q and %q both map to readings %s, keeping %q", owner, c.Type, name, owner)
			skipped[c.Type] = true
			continue
		}
		owners[name] = c.Type
		labels = append(labels, c.Type)
		m.addReadings(values, name, m.collectionFields(c))
	}
	if err := m.store.Update(ctx, values); err != nil {
		return err
	}
	return m.cleanupLocked(ctx, labels)
}

// fields are the values of one reading set, keyed by suffix
type fields struct {
	header      string
	date        time.Time
	days        int
	description string
	location    string
	text        string
	source      string
}

func (m *Module) collectionFields(c waste.Collection) fields {
	entry := m.lookupOrWarn(c.Type)
	return fields{
		header:      Transliterate(c.Type),
		date:        c.Date,
		days:        c.DaysTo,
		description: c.Type,
		location:    entry.Location,
		text:        c.Type,
		source:      entry.Source,
	}
}

// groupFields joins the labels of a multi type day. The source of the last
// type wins.
func (m *Module) groupFields(g waste.CollectionGroup) fields {
	var f fields
	for i, t := range g.Types {
		entry := m.lookupOrWarn(t)
		if i == 0 {
			f = fields{
				header:      Transliterate(t),
				date:        g.Date,
				days:        g.DaysTo,
				description: t,
				location:    entry.Location,
				text:        t,
				source:      entry.Source,
			}
			continue
		}
		f.header += MultiTypeSeparator + Transliterate(t)
		f.description += MultiTypeSeparator + t
		f.location += MultiTypeSeparator + entry.Location
		f.text += MultiTypeSeparator + t
		f.source = entry.Source
	}
	return f
}

func (m *Module) addReadings(values map[string]string, name string, f fields) {
	values[name] = f.header
	values[name+"_date"] = f.date.Format(ReadingDateLayout)
	values[name+"_days"] = strconv.Itoa(f.days)
	values[name+"_description"] = f.description + DescriptionSuffix
	values[name+"_location"] = f.location
	values[name+"_text"] = f.text
	values[name+"_weekday"] = m.attrs.Weekday(f.date.Weekday())
	values[name+"_source"] = f.source
}

// cleanupLocked removes the reading sets of labels that are no longer
// active and records the active labels in .readingnames. A stale label whose
// reading name is still written by an active label is kept.
func (m *Module) cleanupLocked(ctx context.Context, active []string) error {
	old, err := m.readingNames(ctx)
	if err != nil {
		return err
	}
	inUse := make(map[string]bool, len(active))
	for _, label := range active {
		inUse[ReadingName(label)] = true
	}
	var stale []string
	for _, label := range old {
		if slices.Contains(active, label) {
			continue
		}
		if inUse[ReadingName(label)] {
			logging.Debug(subsystem, "Readings %s of %s are still in use", ReadingName(label), label)
			continue
		}
		stale = append(stale, label)
	}
	if len(stale) > 0 {
		logging.Info(subsystem, "Cleanup readings %v", stale)
		if err := m.deleteReadingSets(ctx, stale); err != nil {
			return err
		}
	}
	return m.writeReadingNames(ctx, active)
}

func (m *Module) deleteReadingSets(ctx context.Context, labels []string) error {
	for _, label := range labels {
		logging.Debug(subsystem, "Delete readings for %s", label)
		if err := m.deleteReadings(ctx, ReadingName(label)); err != nil {
			return err
		}
	}
	return nil
}

// deleteReadings deletes the reading set with the given prefix
func (m *Module) deleteReadings(ctx context.Context, name string) error {
	for _, suffix := range readingSuffixes {
		if err := m.store.Delete(ctx, name+suffix); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) readingNames(ctx context.Context) ([]string, error) {
	value, ok, err := m.store.Get(ctx, ReadingNames)
	if err != nil || !ok || strings.TrimSpace(value) == "" {
		return nil, err
	}
	var labels []string
	if err := yaml.Unmarshal([]byte(value), &labels); err != nil {
		logging.Warn(subsystem, "Ignoring malformed %s: %v", ReadingNames, err)
		return nil, nil
	}
	return labels, nil
}

func (m *Module) writeReadingNames(ctx context.Context, labels []string) error {
	labels = slices.Clone(labels)
	slices.Sort(labels)
	if labels == nil {
		labels = []string{}
	}
	data, err := yaml.Marshal(labels)
	if err != nil {
		return err
	}
	return m.store.Update(ctx, map[string]string{ReadingNames: string(data)})
}

func (m *Module) enrich(entries []waste.Collection) []UpcomingEvent {
	events := make([]UpcomingEvent, 0, len(entries))
	for _, c := range entries {
		entry := m.lookupOrWarn(c.Type)
		events = append(events, UpcomingEvent{
			Date:     c.Date,
			Type:     c.Type,
			DaysTo:   c.DaysTo,
			Location: entry.Location,
			Source:   entry.Source,
		})
	}
	return events
}

func (m *Module) setState(ctx context.Context, state string) error {
	return m.store.Update(ctx, map[string]string{ReadingState: state})
}
