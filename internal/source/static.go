package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/klabast/wb-services/abfall-fhem/internal/waste"
)

// staticSource serves a fixed list of dates, optionally extended by a simple recurrence rule
type staticSource struct {
	wasteType string
	dates     []time.Time
}

func staticProvider() Provider {
	return Provider{
		Name:    "static",
		Title:   "Static Source",
		URL:     "https://github.com/klabast/wb-services",
		Country: "",
		New:     newStaticSource,
	}
}

func newStaticSource(args map[string]any) (waste.Fetcher, error) {
	wasteType, err := stringArg(args, "type")
	if err != nil {
		return nil, err
	}
	if wasteType == "" {
		return nil, fmt.Errorf("static source requires a type")
	}

	dates, err := dateListArg(args, "dates")
	if err != nil {
		return nil, err
	}

	recurring, err := recurrence(args)
	if err != nil {
		return nil, err
	}
	dates = append(dates, recurring...)

	excludes, err := dateListArg(args, "excludes")
	if err != nil {
		return nil, err
	}
	if len(excludes) > 0 {
		skip := make(map[time.Time]struct{}, len(excludes))
		for _, d := range excludes {
			skip[waste.Day(d)] = struct{}{}
		}
		kept := dates[:0]
		for _, d := range dates {
			if _, ok := skip[waste.Day(d)]; !ok {
				kept = append(kept, d)
			}
		}
		dates = kept
	}

	return &staticSource{wasteType: wasteType, dates: dates}, nil
}

func recurrence(args map[string]any) ([]time.Time, error) {
	frequency, err := stringArg(args, "frequency")
	if err != nil || frequency == "" {
		return nil, err
	}

	interval, err := intArg(args, "interval", 1)
	if err != nil {
		return nil, err
	}
	if interval < 1 {
		return nil, fmt.Errorf("interval must be positive, got %d", interval)
	}

	startRaw, ok := args["start"]
	if !ok {
		return nil, fmt.Errorf("frequency %s requires a start date", frequency)
	}
	start, err := dateArg(startRaw)
	if err != nil {
		return nil, fmt.Errorf("argument start: %w", err)
	}
	until := start.AddDate(1, 0, 0)
	if untilRaw, ok := args["until"]; ok {
		if until, err = dateArg(untilRaw); err != nil {
			return nil, fmt.Errorf("argument until: %w", err)
		}
	}

	var step func(time.Time, int) time.Time
	switch strings.ToUpper(frequency) {
	case "DAILY":
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }
	case "WEEKLY":
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) }
	case "MONTHLY":
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) }
	case "YEARLY":
		step = func(t time.Time, n int) time.Time { return t.AddDate(n, 0, 0) }
	default:
		return nil, fmt.Errorf("unsupported frequency %q", frequency)
	}

	var dates []time.Time
	for i := 0; ; i++ {
		d := step(start, i*interval)
		if d.After(until) {
			break
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func (s *staticSource) Fetch(ctx context.Context) ([]waste.Collection, error) {
	entries := make([]waste.Collection, 0, len(s.dates))
	for _, d := range s.dates {
		entries = append(entries, waste.Collection{Date: waste.Day(d), Type: s.wasteType})
	}
	return entries, nil
}
