package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klabast/wb-services/abfall-fhem/internal/waste"
)

const winterbergBaseURL = "https://abfallkalender.winterberg.de"

// winterbergEvent mirrors the event objects returned by the Winterberg calendar service
type winterbergEvent struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type winterbergDistrict struct {
	Events []winterbergEvent `json:"events"`
}

// winterbergSource reads the district calendar API for the current and the following year
type winterbergSource struct {
	baseURL  string
	district string
	client   *http.Client
	now      func() time.Time
}

func winterbergProvider() Provider {
	return Provider{
		Name:    "abfallkalender_winterberg_de",
		Title:   "Abfallkalender Winterberg",
		URL:     winterbergBaseURL,
		Country: "de",
		New:     newWinterbergSource,
	}
}

func newWinterbergSource(args map[string]any) (waste.Fetcher, error) {
	district, err := stringArg(args, "district")
	if err != nil {
		return nil, err
	}
	if district == "" {
		return nil, fmt.Errorf("abfallkalender_winterberg_de requires a district")
	}
	base, err := stringArg(args, "url")
	if err != nil {
		return nil, err
	}
	if base == "" {
		base = winterbergBaseURL
	}
	return &winterbergSource{
		baseURL:  strings.TrimRight(base, "/"),
		district: district,
		client:   &http.Client{Timeout: icsRequestTimeout},
		now:      time.Now,
	}, nil
}

func (s *winterbergSource) Fetch(ctx context.Context) ([]waste.Collection, error) {
	year := s.now().Year()

	var entries []waste.Collection
	for _, y := range []int{year, year + 1} {
		events, err := s.fetchYear(ctx, y)
		if err != nil {
			// the following year is usually published late
			if y != year {
				break
			}
			return nil, err
		}
		for _, ev := range events {
			d, err := time.Parse(dateLayout, ev.Date)
			if err != nil {
				continue
			}
			label := ev.Description
			if label == "" {
				label = ev.Type
			}
			entries = append(entries, waste.Collection{Date: d, Type: label})
		}
	}
	return entries, nil
}

func (s *winterbergSource) fetchYear(ctx context.Context, year int) ([]winterbergEvent, error) {
	endpoint := fmt.Sprintf("%s/api/calendar/%s?year=%d", s.baseURL, url.PathEscape(s.district), year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", endpoint, resp.Status)
	}

	var district winterbergDistrict
	if err := json.NewDecoder(resp.Body).Decode(&district); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return district.Events, nil
}
