package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"

	"github.com/klabast/wb-services/abfall-fhem/internal/waste"
)

const icsRequestTimeout = 30 * time.Second

// icsSource reads all-day or timed VEVENTs from an iCalendar file or URL
type icsSource struct {
	url      string
	file     string
	offset   int
	splitAt  string
	regex    *regexp.Regexp
	location *time.Location
	client   *http.Client
}

func icsProvider() Provider {
	return Provider{
		Name:  "ics",
		Title: "ICS",
		URL:   "https://icalendar.org",
		New:   newICSSource,
	}
}

func newICSSource(args map[string]any) (waste.Fetcher, error) {
	src := &icsSource{location: time.Local, client: &http.Client{Timeout: icsRequestTimeout}}

	var err error
	if src.url, err = stringArg(args, "url"); err != nil {
		return nil, err
	}
	if src.file, err = stringArg(args, "file"); err != nil {
		return nil, err
	}
	if (src.url == "") == (src.file == "") {
		return nil, fmt.Errorf("ics source requires exactly one of url or file")
	}
	if src.offset, err = intArg(args, "offset", 0); err != nil {
		return nil, err
	}
	if src.splitAt, err = stringArg(args, "split_at"); err != nil {
		return nil, err
	}

	tz, err := stringArg(args, "timezone")
	if err != nil {
		return nil, err
	}
	if tz != "" {
		if src.location, err = time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("argument timezone: %w", err)
		}
	}

	expr, err := stringArg(args, "regex")
	if err != nil {
		return nil, err
	}
	if expr != "" {
		if src.regex, err = regexp.Compile(expr); err != nil {
			return nil, fmt.Errorf("argument regex: %w", err)
		}
	}
	return src, nil
}

func (s *icsSource) Fetch(ctx context.Context) ([]waste.Collection, error) {
	var r io.ReadCloser
	if s.file != "" {
		f, err := os.Open(s.file)
		if err != nil {
			return nil, err
		}
		r = f
	} else {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("GET %s: unexpected status %s", s.url, resp.Status)
		}
		r = resp.Body
	}
	defer r.Close()

	events, err := s.parse(r)
	if err != nil {
		return nil, err
	}

	var entries []waste.Collection
	for _, ev := range events {
		summary := ev.summary
		if s.regex != nil {
			m := s.regex.FindStringSubmatch(summary)
			if m == nil {
				continue
			}
			if len(m) > 1 {
				summary = m[1]
			}
		}
		date := ev.start.AddDate(0, 0, s.offset)

		types := []string{summary}
		if s.splitAt != "" {
			types = strings.Split(summary, s.splitAt)
		}
		for _, t := range types {
			if t = strings.TrimSpace(t); t != "" {
				entries = append(entries, waste.Collection{Date: waste.Day(date), Type: t})
			}
		}
	}
	return entries, nil
}

type icsEvent struct {
	start   time.Time
	summary string
}

// parse reads DTSTART and SUMMARY of every VEVENT. Events without DTSTART
// are skipped.
func (s *icsSource) parse(r io.Reader) ([]icsEvent, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	var events []icsEvent
	for _, ev := range cal.Events() {
		start, err := s.startDay(ev)
		if errors.Is(err, ics.ErrorPropertyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.Id(), err)
		}
		var summary string
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
			summary = p.Value
		}
		events = append(events, icsEvent{start: start, summary: summary})
	}
	return events, nil
}

// startDay returns the date an event starts on. Timed starts are converted
// to the source location first.
func (s *icsSource) startDay(ev *ics.VEvent) (time.Time, error) {
	prop := ev.GetProperty(ics.ComponentPropertyDtStart)
	if prop == nil {
		return time.Time{}, ics.ErrorPropertyNotFound
	}
	if isDateValue(prop.BaseProperty) {
		start, err := ev.GetAllDayStartAt()
		if err != nil {
			return time.Time{}, err
		}
		return waste.Day(start), nil
	}
	start, err := ev.GetStartAt()
	if err != nil {
		return time.Time{}, err
	}
	return waste.Day(start.In(s.location)), nil
}

func isDateValue(p ics.BaseProperty) bool {
	if v := p.ICalParameters[string(ics.ParameterValue)]; len(v) == 1 && strings.EqualFold(v[0], string(ics.ValueDataTypeDate)) {
		return true
	}
	return len(p.Value) == len("20060102")
}
